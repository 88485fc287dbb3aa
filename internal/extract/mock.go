package extract

import "context"

// MockSource is a test double for the Source interface.
type MockSource struct {
	Session    *MockSession
	AcquireErr error
	PingErr    error

	// Track calls
	Acquired int
	Closed   bool
}

func (m *MockSource) Acquire(_ context.Context) (Session, error) {
	if m.AcquireErr != nil {
		return nil, m.AcquireErr
	}
	m.Acquired++
	return m.Session, nil
}

func (m *MockSource) Ping(_ context.Context) error {
	return m.PingErr
}

func (m *MockSource) Close() {
	m.Closed = true
}

// MockSession is a test double for the Session interface.
type MockSession struct {
	ColumnRows []RawColumn
	TableRows  []RawTable
	TotalMB    float64
	PKRows     []PrimaryKeyRow
	FKRows     []ForeignKeyRow

	ColumnsErr error
	TablesErr  error
	TotalErr   error
	PKErr      error
	FKErr      error

	// Track calls
	Released int
}

func (m *MockSession) Columns(_ context.Context, _ string) ([]RawColumn, error) {
	if m.ColumnsErr != nil {
		return nil, m.ColumnsErr
	}
	return m.ColumnRows, nil
}

func (m *MockSession) Tables(_ context.Context, _ string) ([]RawTable, error) {
	if m.TablesErr != nil {
		return nil, m.TablesErr
	}
	return m.TableRows, nil
}

func (m *MockSession) TotalByteSize(_ context.Context, _ string) (float64, error) {
	if m.TotalErr != nil {
		return 0, m.TotalErr
	}
	return m.TotalMB, nil
}

func (m *MockSession) PrimaryKeys(_ context.Context, _ string) ([]PrimaryKeyRow, error) {
	if m.PKErr != nil {
		return nil, m.PKErr
	}
	return m.PKRows, nil
}

func (m *MockSession) ForeignKeys(_ context.Context, _ string) ([]ForeignKeyRow, error) {
	if m.FKErr != nil {
		return nil, m.FKErr
	}
	return m.FKRows, nil
}

func (m *MockSession) Release() {
	m.Released++
}

var (
	_ Source  = (*MockSource)(nil)
	_ Session = (*MockSession)(nil)
)
