// Package store persists the catalog in a document database. Put operations
// replace documents wholesale; Refresh operations update structural fields
// only, leaving user annotations untouched.
package store

import (
	"context"
	"time"

	"github.com/catalogd/catalogd/internal/catalog"
)

// TableRecord is the stored shape of one table document.
type TableRecord struct {
	Tenant          string    `bson:"tenant" json:"tenant"`
	Schema          string    `bson:"schema" json:"schema"`
	Name            string    `bson:"name" json:"name"`
	RowCount        int64     `bson:"rowCount" json:"rowCount"`
	ColumnCount     int       `bson:"columnCount" json:"columnCount"`
	ByteSizeMB      float64   `bson:"byteSizeMB" json:"byteSizeMB"`
	SourceComment   string    `bson:"sourceComment,omitempty" json:"sourceComment,omitempty"`
	UserDescription string    `bson:"userDescription,omitempty" json:"userDescription,omitempty"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ColumnRecord is the stored shape of one column document.
type ColumnRecord struct {
	Tenant        string          `bson:"tenant" json:"tenant"`
	Schema        string          `bson:"schema" json:"schema"`
	Table         string          `bson:"table" json:"table"`
	Name          string          `bson:"name" json:"name"`
	SQLType       string          `bson:"sqlType" json:"sqlType"`
	Nullable      bool            `bson:"nullable" json:"nullable"`
	Default       *string         `bson:"default,omitempty" json:"default,omitempty"`
	KeyRole       catalog.KeyRole `bson:"keyRole,omitempty" json:"keyRole,omitempty"`
	SourceComment string          `bson:"sourceComment,omitempty" json:"sourceComment,omitempty"`
	UserNote      string          `bson:"userNote,omitempty" json:"userNote,omitempty"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// DatabaseRecord is the stored tenant-level summary document.
type DatabaseRecord struct {
	Tenant          string    `bson:"tenant" json:"tenant"`
	Schema          string    `bson:"schema" json:"schema"`
	TotalByteSizeMB float64   `bson:"totalByteSizeMB" json:"totalByteSizeMB"`
	TotalRowCount   int64     `bson:"totalRowCount" json:"totalRowCount"`
	Tables          []string  `bson:"tables" json:"tables"`
	LastSyncedAt    time.Time `bson:"lastSyncedAt" json:"lastSyncedAt"`
	Tag             string    `bson:"tag,omitempty" json:"tag,omitempty"`
}

// ConnectionRecord holds a tenant's stored connection settings. The password
// is kept as written, which may be a secret reference resolved at use time.
type ConnectionRecord struct {
	Tenant         string `bson:"tenant" json:"tenant"`
	Type           string `bson:"type" json:"type"`
	Host           string `bson:"host" json:"host"`
	Port           int    `bson:"port" json:"port"`
	Schema         string `bson:"schema" json:"schema"`
	Username       string `bson:"username" json:"username"`
	Password       string `bson:"password" json:"-"`
	SSL            bool   `bson:"ssl" json:"ssl"`
	MaxConnections int    `bson:"maxConnections" json:"maxConnections"`
}

// Store is the catalog persistence contract.
type Store interface {
	DatabaseExists(ctx context.Context, tenant string) (bool, error)
	GetDatabase(ctx context.Context, tenant string) (*DatabaseRecord, error)
	PutDatabase(ctx context.Context, rec *DatabaseRecord) error
	ListDatabases(ctx context.Context) ([]DatabaseRecord, error)
	DeleteDatabase(ctx context.Context, tenant string) error

	ListTables(ctx context.Context, tenant string) ([]TableRecord, error)
	GetTable(ctx context.Context, tenant, schema, table string) (*TableRecord, error)
	PutTables(ctx context.Context, tenant string, tables []catalog.Table) error
	RefreshTables(ctx context.Context, tenant string, tables []catalog.Table) error
	DeleteTable(ctx context.Context, tenant, schema, table string) error

	ListColumns(ctx context.Context, tenant, schema, table string) ([]ColumnRecord, error)
	ListAllColumns(ctx context.Context, tenant string) ([]ColumnRecord, error)
	PutColumns(ctx context.Context, tenant string, columns []catalog.Column) error
	RefreshColumns(ctx context.Context, tenant string, columns []catalog.Column) error
	DeleteColumn(ctx context.Context, tenant, schema, table, column string) error
	DeleteTableColumns(ctx context.Context, tenant, schema, table string) error

	SetTableDescription(ctx context.Context, tenant, schema, table, description string) error
	SetColumnNote(ctx context.Context, tenant, schema, table, column, note string) error

	PutConnection(ctx context.Context, rec *ConnectionRecord) error
	GetConnection(ctx context.Context, tenant string) (*ConnectionRecord, error)

	Close(ctx context.Context) error
}

// tableRecordFrom builds the stored shape from a canonical table.
func tableRecordFrom(tenant string, t catalog.Table, now time.Time) TableRecord {
	return TableRecord{
		Tenant:        tenant,
		Schema:        t.Schema,
		Name:          t.Name,
		RowCount:      t.RowCount,
		ColumnCount:   t.ColumnCount,
		ByteSizeMB:    t.ByteSizeMB,
		SourceComment: t.SourceComment,
		UpdatedAt:     now,
	}
}

// columnRecordFrom builds the stored shape from a canonical column.
func columnRecordFrom(tenant string, c catalog.Column, now time.Time) ColumnRecord {
	return ColumnRecord{
		Tenant:        tenant,
		Schema:        c.Schema,
		Table:         c.Table,
		Name:          c.Name,
		SQLType:       c.SQLType,
		Nullable:      c.Nullable,
		Default:       c.Default,
		KeyRole:       c.KeyRole,
		SourceComment: c.SourceComment,
		UpdatedAt:     now,
	}
}

// Column converts a stored record back to the canonical shape, including
// the user note.
func (r ColumnRecord) Column() catalog.Column {
	return catalog.Column{
		Schema:        r.Schema,
		Table:         r.Table,
		Name:          r.Name,
		SQLType:       r.SQLType,
		Nullable:      r.Nullable,
		Default:       r.Default,
		KeyRole:       r.KeyRole,
		SourceComment: r.SourceComment,
		UserNote:      r.UserNote,
	}
}

// Table converts a stored record back to the canonical shape.
func (r TableRecord) Table() catalog.Table {
	return catalog.Table{
		Schema:          r.Schema,
		Name:            r.Name,
		RowCount:        r.RowCount,
		ColumnCount:     r.ColumnCount,
		ByteSizeMB:      r.ByteSizeMB,
		SourceComment:   r.SourceComment,
		UserDescription: r.UserDescription,
	}
}
