package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/diff"
	"github.com/catalogd/catalogd/internal/store"
)

func testReconciler() (*Reconciler, *store.MockStore) {
	m := store.NewMockStore()
	return New(m, slog.New(slog.NewTextHandler(io.Discard, nil))), m
}

func shopSnapshot() *Snapshot {
	return &Snapshot{
		Tenant:  "acme",
		Schema:  "shop",
		TotalMB: 3.5,
		Tables: []catalog.Table{
			{Schema: "shop", Name: "users", RowCount: 100, ColumnCount: 2, ByteSizeMB: 2.0},
			{Schema: "shop", Name: "orders", RowCount: 400, ColumnCount: 2, ByteSizeMB: 1.5},
		},
		Columns: []catalog.Column{
			{Schema: "shop", Table: "users", Name: "id", SQLType: "int", KeyRole: catalog.KeyPrimary},
			{Schema: "shop", Table: "users", Name: "email", SQLType: "varchar(255)"},
			{Schema: "shop", Table: "orders", Name: "id", SQLType: "int", KeyRole: catalog.KeyPrimary},
			{Schema: "shop", Table: "orders", Name: "user_id", SQLType: "int", KeyRole: catalog.KeyIndexed},
		},
	}
}

func TestCreateAllWritesSummary(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()

	if err := r.CreateAll(ctx, shopSnapshot()); err != nil {
		t.Fatalf("create: %v", err)
	}

	db, err := m.GetDatabase(ctx, "acme")
	if err != nil {
		t.Fatalf("get database: %v", err)
	}
	if db.TotalRowCount != 500 {
		t.Errorf("total rows = %d, want 500", db.TotalRowCount)
	}
	if db.TotalByteSizeMB != 3.5 {
		t.Errorf("total size = %v, want 3.5", db.TotalByteSizeMB)
	}
	if len(db.Tables) != 2 {
		t.Errorf("table names = %v", db.Tables)
	}
	if db.LastSyncedAt.IsZero() {
		t.Error("last synced timestamp not set")
	}
	if m.PutTableCalls != 1 || m.PutColumnCalls != 1 {
		t.Errorf("expected full writes, got put=%d/%d", m.PutTableCalls, m.PutColumnCalls)
	}
}

func TestUpsertAllPreservesAnnotations(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()
	snap := shopSnapshot()

	if err := r.CreateAll(ctx, snap); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := m.SetTableDescription(ctx, "acme", "shop", "users", "customer accounts"); err != nil {
		t.Fatalf("annotate table: %v", err)
	}
	if err := m.SetColumnNote(ctx, "acme", "shop", "users", "email", "pii"); err != nil {
		t.Fatalf("annotate column: %v", err)
	}

	snap.Tables[0].RowCount = 150
	if err := r.UpsertAll(ctx, snap); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	table, _ := m.GetTable(ctx, "acme", "shop", "users")
	if table.UserDescription != "customer accounts" {
		t.Errorf("description lost on refresh: %q", table.UserDescription)
	}
	if table.RowCount != 150 {
		t.Errorf("row count not refreshed: %d", table.RowCount)
	}
	cols, _ := m.ListColumns(ctx, "acme", "shop", "users")
	for _, c := range cols {
		if c.Name == "email" && c.UserNote != "pii" {
			t.Errorf("note lost on refresh: %q", c.UserNote)
		}
	}
	if m.RefreshTableCalls != 1 || m.RefreshColCalls != 1 {
		t.Errorf("expected refresh writes, got %d/%d", m.RefreshTableCalls, m.RefreshColCalls)
	}
}

func TestApplyDeletionsRemovesTableWithColumns(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()

	if err := r.CreateAll(ctx, shopSnapshot()); err != nil {
		t.Fatalf("create: %v", err)
	}

	report := &diff.Report{
		Changed: true,
		Tables:  diff.TableChanges{Changed: true, Deleted: []string{"shop.orders"}},
	}
	if err := r.ApplyDeletions(ctx, "acme", report); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if _, err := m.GetTable(ctx, "acme", "shop", "orders"); !catalog.IsNotFound(err) {
		t.Errorf("table still present: %v", err)
	}
	cols, _ := m.ListColumns(ctx, "acme", "shop", "orders")
	if len(cols) != 0 {
		t.Errorf("orphaned columns left behind: %+v", cols)
	}
	if _, err := m.GetTable(ctx, "acme", "shop", "users"); err != nil {
		t.Errorf("unrelated table touched: %v", err)
	}
}

func TestApplyDeletionsRemovesColumns(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()

	if err := r.CreateAll(ctx, shopSnapshot()); err != nil {
		t.Fatalf("create: %v", err)
	}

	report := &diff.Report{
		Changed: true,
		Columns: diff.ColumnChanges{
			Changed: true,
			Deleted: []diff.TableColumns{{Table: "shop.users", Columns: []string{"email"}}},
		},
	}
	if err := r.ApplyDeletions(ctx, "acme", report); err != nil {
		t.Fatalf("apply: %v", err)
	}

	cols, _ := m.ListColumns(ctx, "acme", "shop", "users")
	if len(cols) != 1 || cols[0].Name != "id" {
		t.Errorf("unexpected remaining columns: %+v", cols)
	}
}

func TestApplyDeletionsSkipsColumnsOfDeletedTables(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()

	if err := r.CreateAll(ctx, shopSnapshot()); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A well-formed report never lists a deleted table's columns; tolerate
	// one that does without issuing per-column deletes for it.
	report := &diff.Report{
		Changed: true,
		Tables:  diff.TableChanges{Changed: true, Deleted: []string{"shop.orders"}},
		Columns: diff.ColumnChanges{
			Changed: true,
			Deleted: []diff.TableColumns{
				{Table: "shop.orders", Columns: []string{"id", "user_id"}},
				{Table: "shop.users", Columns: []string{"email"}},
			},
		},
	}
	if err := r.ApplyDeletions(ctx, "acme", report); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if m.DeleteColCalls != 1 {
		t.Errorf("per-column deletes = %d, want 1 (users.email only)", m.DeleteColCalls)
	}
	if _, err := m.GetTable(ctx, "acme", "shop", "orders"); !catalog.IsNotFound(err) {
		t.Errorf("deleted table still present: %v", err)
	}
	cols, _ := m.ListColumns(ctx, "acme", "shop", "users")
	if len(cols) != 1 || cols[0].Name != "id" {
		t.Errorf("unexpected remaining columns: %+v", cols)
	}
}

func TestApplyDeletionsIdempotent(t *testing.T) {
	r, m := testReconciler()
	ctx := context.Background()

	if err := r.CreateAll(ctx, shopSnapshot()); err != nil {
		t.Fatalf("create: %v", err)
	}
	report := &diff.Report{
		Changed: true,
		Tables:  diff.TableChanges{Changed: true, Deleted: []string{"shop.orders"}},
		Columns: diff.ColumnChanges{
			Changed: true,
			Deleted: []diff.TableColumns{{Table: "shop.users", Columns: []string{"email"}}},
		},
	}

	if err := r.ApplyDeletions(ctx, "acme", report); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := r.ApplyDeletions(ctx, "acme", report); err != nil {
		t.Fatalf("second apply must not fail on missing documents: %v", err)
	}
	if _, err := m.GetTable(ctx, "acme", "shop", "users"); err != nil {
		t.Errorf("surviving table damaged: %v", err)
	}
}
