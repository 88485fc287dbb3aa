// Package catalog defines the canonical schema model shared by extraction,
// diffing and the document store, plus the normalization that maps raw
// introspection rows onto it.
package catalog

import "time"

// KeyRole classifies a column's participation in keys and indexes.
type KeyRole string

const (
	KeyNone    KeyRole = ""
	KeyPrimary KeyRole = "primary"
	KeyUnique  KeyRole = "unique"
	KeyIndexed KeyRole = "indexed"
)

// Column is the canonical shape of one column. SourceComment comes from the
// database; UserNote is an annotation owned by the catalog store.
type Column struct {
	Schema        string  `json:"schema"`
	Table         string  `json:"table"`
	Name          string  `json:"name"`
	SQLType       string  `json:"sqlType"`
	Nullable      bool    `json:"nullable"`
	Default       *string `json:"default,omitempty"`
	KeyRole       KeyRole `json:"keyRole,omitempty"`
	SourceComment string  `json:"sourceComment,omitempty"`
	UserNote      string  `json:"userNote,omitempty"`
}

// Table is the canonical shape of one table. RowCount is the engine's
// estimate, never negative. ByteSizeMB is rounded to 2 decimal places.
type Table struct {
	Schema          string   `json:"schema"`
	Name            string   `json:"name"`
	RowCount        int64    `json:"rowCount"`
	ColumnCount     int      `json:"columnCount"`
	ByteSizeMB      float64  `json:"byteSizeMB"`
	SourceComment   string   `json:"sourceComment,omitempty"`
	UserDescription string   `json:"userDescription,omitempty"`
	Columns         []Column `json:"columns,omitempty"`
}

// Database is the tenant-level summary document.
type Database struct {
	Tenant          string    `json:"tenant"`
	Schema          string    `json:"schema"`
	TotalByteSizeMB float64   `json:"totalByteSizeMB"`
	TotalRowCount   int64     `json:"totalRowCount"`
	Tables          []string  `json:"tables"`
	LastSyncedAt    time.Time `json:"lastSyncedAt"`
	Tag             string    `json:"tag,omitempty"`
}

// Relationship is one column-level foreign key edge, used for ERD output.
type Relationship struct {
	Constraint string `json:"constraint"`
	Table      string `json:"table"`
	Column     string `json:"column"`
	RefTable   string `json:"refTable"`
	RefColumn  string `json:"refColumn"`
}
