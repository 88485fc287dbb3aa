package store

import (
	"context"
	"testing"
	"time"

	"github.com/catalogd/catalogd/internal/catalog"
)

func TestRefreshTablesPreservesDescription(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	err := m.PutTables(ctx, "acme", []catalog.Table{
		{Schema: "shop", Name: "users", RowCount: 10, ColumnCount: 3},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.SetTableDescription(ctx, "acme", "shop", "users", "customer accounts"); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	err = m.RefreshTables(ctx, "acme", []catalog.Table{
		{Schema: "shop", Name: "users", RowCount: 25, ColumnCount: 4},
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	rec, err := m.GetTable(ctx, "acme", "shop", "users")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.UserDescription != "customer accounts" {
		t.Errorf("refresh dropped the description: %q", rec.UserDescription)
	}
	if rec.RowCount != 25 || rec.ColumnCount != 4 {
		t.Errorf("refresh did not update structural fields: %+v", rec)
	}
}

func TestRefreshColumnsUpsertsAndPreservesNote(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	err := m.PutColumns(ctx, "acme", []catalog.Column{
		{Schema: "shop", Table: "users", Name: "email", SQLType: "varchar(100)"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.SetColumnNote(ctx, "acme", "shop", "users", "email", "lowercased on write"); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	err = m.RefreshColumns(ctx, "acme", []catalog.Column{
		{Schema: "shop", Table: "users", Name: "email", SQLType: "varchar(255)"},
		{Schema: "shop", Table: "users", Name: "created_at", SQLType: "datetime"},
	})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	cols, err := m.ListColumns(ctx, "acme", "shop", "users")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(cols) != 2 {
		t.Fatalf("expected upsert to add the new column, got %d", len(cols))
	}
	// sorted by name: created_at, email
	if cols[1].SQLType != "varchar(255)" {
		t.Errorf("type not refreshed: %q", cols[1].SQLType)
	}
	if cols[1].UserNote != "lowercased on write" {
		t.Errorf("refresh dropped the note: %q", cols[1].UserNote)
	}
	if cols[0].UserNote != "" {
		t.Errorf("new column must have no note, got %q", cols[0].UserNote)
	}
}

func TestPutColumnsReplacesWholesale(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if err := m.PutColumns(ctx, "acme", []catalog.Column{
		{Schema: "shop", Table: "users", Name: "email"},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := m.SetColumnNote(ctx, "acme", "shop", "users", "email", "note"); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if err := m.PutColumns(ctx, "acme", []catalog.Column{
		{Schema: "shop", Table: "users", Name: "email"},
	}); err != nil {
		t.Fatalf("second put: %v", err)
	}

	cols, _ := m.ListColumns(ctx, "acme", "shop", "users")
	if cols[0].UserNote != "" {
		t.Errorf("full replace must drop the note, got %q", cols[0].UserNote)
	}
}

func TestAnnotateMissingReturnsNotFound(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	if err := m.SetTableDescription(ctx, "acme", "shop", "ghost", "x"); !catalog.IsNotFound(err) {
		t.Errorf("expected not-found annotating missing table, got %v", err)
	}
	if err := m.SetColumnNote(ctx, "acme", "shop", "users", "ghost", "x"); !catalog.IsNotFound(err) {
		t.Errorf("expected not-found annotating missing column, got %v", err)
	}
	if _, err := m.GetConnection(ctx, "ghost"); !catalog.IsNotFound(err) {
		t.Errorf("expected not-found for missing connection, got %v", err)
	}
}

func TestRecordRoundTrips(t *testing.T) {
	def := "0"
	col := catalog.Column{
		Schema:  "shop",
		Table:   "orders",
		Name:    "total",
		SQLType: "decimal(10,2)",
		Default: &def,
		KeyRole: catalog.KeyIndexed,
	}
	rec := columnRecordFrom("acme", col, time.Now())
	back := rec.Column()
	if back != col {
		t.Errorf("column round trip mismatch:\n got %+v\nwant %+v", back, col)
	}
}
