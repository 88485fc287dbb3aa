package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/catalogd/catalogd/internal/catalog"
)

// MockStore is an in-memory Store for tests. Refresh operations preserve
// annotations the same way the Mongo implementation does.
type MockStore struct {
	Databases   map[string]DatabaseRecord
	Tables      map[string]TableRecord  // key: tenant|schema|name
	Columns     map[string]ColumnRecord // key: tenant|schema|table|name
	Connections map[string]ConnectionRecord

	// Error knobs. When set, the matching operations fail.
	ReadErr  error
	WriteErr error

	PutTableCalls     int
	RefreshTableCalls int
	PutColumnCalls    int
	RefreshColCalls   int
	DeleteColCalls    int
	Closed            bool
}

var _ Store = (*MockStore)(nil)

func NewMockStore() *MockStore {
	return &MockStore{
		Databases:   make(map[string]DatabaseRecord),
		Tables:      make(map[string]TableRecord),
		Columns:     make(map[string]ColumnRecord),
		Connections: make(map[string]ConnectionRecord),
	}
}

func tableKey(tenant, schema, name string) string {
	return tenant + "|" + schema + "|" + name
}

func columnKey(tenant, schema, table, name string) string {
	return tenant + "|" + schema + "|" + table + "|" + name
}

func (m *MockStore) DatabaseExists(_ context.Context, tenant string) (bool, error) {
	if m.ReadErr != nil {
		return false, m.ReadErr
	}
	_, ok := m.Databases[tenant]
	return ok, nil
}

func (m *MockStore) GetDatabase(_ context.Context, tenant string) (*DatabaseRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	rec, ok := m.Databases[tenant]
	if !ok {
		return nil, fmt.Errorf("%w: database for tenant %s", catalog.ErrNotFound, tenant)
	}
	return &rec, nil
}

func (m *MockStore) PutDatabase(_ context.Context, rec *DatabaseRecord) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Databases[rec.Tenant] = *rec
	return nil
}

func (m *MockStore) ListDatabases(_ context.Context) ([]DatabaseRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	tenants := make([]string, 0, len(m.Databases))
	for t := range m.Databases {
		tenants = append(tenants, t)
	}
	sort.Strings(tenants)
	out := make([]DatabaseRecord, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, m.Databases[t])
	}
	return out, nil
}

func (m *MockStore) DeleteDatabase(_ context.Context, tenant string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if _, ok := m.Databases[tenant]; !ok {
		return fmt.Errorf("%w: database for tenant %s", catalog.ErrNotFound, tenant)
	}
	delete(m.Databases, tenant)
	return nil
}

func (m *MockStore) ListTables(_ context.Context, tenant string) ([]TableRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var out []TableRecord
	for _, rec := range m.Tables {
		if rec.Tenant == tenant {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Schema != out[j].Schema {
			return out[i].Schema < out[j].Schema
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *MockStore) GetTable(_ context.Context, tenant, schema, table string) (*TableRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	rec, ok := m.Tables[tableKey(tenant, schema, table)]
	if !ok {
		return nil, fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	return &rec, nil
}

func (m *MockStore) PutTables(_ context.Context, tenant string, tables []catalog.Table) error {
	m.PutTableCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	now := time.Now()
	for _, t := range tables {
		m.Tables[tableKey(tenant, t.Schema, t.Name)] = tableRecordFrom(tenant, t, now)
	}
	return nil
}

func (m *MockStore) RefreshTables(_ context.Context, tenant string, tables []catalog.Table) error {
	m.RefreshTableCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	now := time.Now()
	for _, t := range tables {
		key := tableKey(tenant, t.Schema, t.Name)
		rec, ok := m.Tables[key]
		if !ok {
			rec = TableRecord{Tenant: tenant, Schema: t.Schema, Name: t.Name}
		}
		rec.RowCount = t.RowCount
		rec.ColumnCount = t.ColumnCount
		rec.ByteSizeMB = t.ByteSizeMB
		rec.SourceComment = t.SourceComment
		rec.UpdatedAt = now
		m.Tables[key] = rec
	}
	return nil
}

func (m *MockStore) DeleteTable(_ context.Context, tenant, schema, table string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	key := tableKey(tenant, schema, table)
	if _, ok := m.Tables[key]; !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	delete(m.Tables, key)
	return nil
}

func (m *MockStore) ListColumns(_ context.Context, tenant, schema, table string) ([]ColumnRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var out []ColumnRecord
	for _, rec := range m.Columns {
		if rec.Tenant == tenant && rec.Schema == schema && rec.Table == table {
			out = append(out, rec)
		}
	}
	sortColumns(out)
	return out, nil
}

func (m *MockStore) ListAllColumns(_ context.Context, tenant string) ([]ColumnRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var out []ColumnRecord
	for _, rec := range m.Columns {
		if rec.Tenant == tenant {
			out = append(out, rec)
		}
	}
	sortColumns(out)
	return out, nil
}

func sortColumns(recs []ColumnRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Schema != recs[j].Schema {
			return recs[i].Schema < recs[j].Schema
		}
		if recs[i].Table != recs[j].Table {
			return recs[i].Table < recs[j].Table
		}
		return recs[i].Name < recs[j].Name
	})
}

func (m *MockStore) PutColumns(_ context.Context, tenant string, columns []catalog.Column) error {
	m.PutColumnCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	now := time.Now()
	for _, c := range columns {
		m.Columns[columnKey(tenant, c.Schema, c.Table, c.Name)] = columnRecordFrom(tenant, c, now)
	}
	return nil
}

func (m *MockStore) RefreshColumns(_ context.Context, tenant string, columns []catalog.Column) error {
	m.RefreshColCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	now := time.Now()
	for _, c := range columns {
		key := columnKey(tenant, c.Schema, c.Table, c.Name)
		rec, ok := m.Columns[key]
		if !ok {
			rec = ColumnRecord{Tenant: tenant, Schema: c.Schema, Table: c.Table, Name: c.Name}
		}
		rec.SQLType = c.SQLType
		rec.Nullable = c.Nullable
		rec.Default = c.Default
		rec.KeyRole = c.KeyRole
		rec.SourceComment = c.SourceComment
		rec.UpdatedAt = now
		m.Columns[key] = rec
	}
	return nil
}

func (m *MockStore) DeleteColumn(_ context.Context, tenant, schema, table, column string) error {
	m.DeleteColCalls++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	key := columnKey(tenant, schema, table, column)
	if _, ok := m.Columns[key]; !ok {
		return fmt.Errorf("%w: column %s.%s.%s", catalog.ErrNotFound, schema, table, column)
	}
	delete(m.Columns, key)
	return nil
}

func (m *MockStore) DeleteTableColumns(_ context.Context, tenant, schema, table string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	for key, rec := range m.Columns {
		if rec.Tenant == tenant && rec.Schema == schema && rec.Table == table {
			delete(m.Columns, key)
		}
	}
	return nil
}

func (m *MockStore) SetTableDescription(_ context.Context, tenant, schema, table, description string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	key := tableKey(tenant, schema, table)
	rec, ok := m.Tables[key]
	if !ok {
		return fmt.Errorf("%w: table %s.%s", catalog.ErrNotFound, schema, table)
	}
	rec.UserDescription = description
	m.Tables[key] = rec
	return nil
}

func (m *MockStore) SetColumnNote(_ context.Context, tenant, schema, table, column, note string) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	key := columnKey(tenant, schema, table, column)
	rec, ok := m.Columns[key]
	if !ok {
		return fmt.Errorf("%w: column %s.%s.%s", catalog.ErrNotFound, schema, table, column)
	}
	rec.UserNote = note
	m.Columns[key] = rec
	return nil
}

func (m *MockStore) PutConnection(_ context.Context, rec *ConnectionRecord) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Connections[rec.Tenant] = *rec
	return nil
}

func (m *MockStore) GetConnection(_ context.Context, tenant string) (*ConnectionRecord, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	rec, ok := m.Connections[tenant]
	if !ok {
		return nil, fmt.Errorf("%w: connection for tenant %s", catalog.ErrNotFound, tenant)
	}
	return &rec, nil
}

func (m *MockStore) Close(_ context.Context) error {
	m.Closed = true
	return nil
}
