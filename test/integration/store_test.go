//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/store"
)

func openStore(t *testing.T) *store.MongoStore {
	t.Helper()
	ctx := context.Background()

	st, err := store.NewMongoStore(ctx, mongoURI(t), mongoDatabase(t), testLogger())
	if err != nil {
		t.Fatalf("connecting to MongoDB: %v", err)
	}
	t.Cleanup(func() { st.Close(context.Background()) })

	if err := st.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensuring indexes: %v", err)
	}
	return st
}

func TestMongoStoreTableLifecycle(t *testing.T) {
	skipIfNoMongo(t)
	ctx := context.Background()
	st := openStore(t)

	tenant := "it_lifecycle"
	defer st.DeleteDatabase(ctx, tenant)
	defer st.DeleteTable(ctx, tenant, "shop", "orders")
	defer st.DeleteTableColumns(ctx, tenant, "shop", "orders")

	tables := []catalog.Table{{
		Schema:   "shop",
		Name:     "orders",
		RowCount: 120,
	}}
	if err := st.PutTables(ctx, tenant, tables); err != nil {
		t.Fatalf("putting tables: %v", err)
	}

	if err := st.SetTableDescription(ctx, tenant, "shop", "orders", "order headers"); err != nil {
		t.Fatalf("setting description: %v", err)
	}

	// Refresh must overwrite structural fields and keep the description.
	tables[0].RowCount = 150
	if err := st.RefreshTables(ctx, tenant, tables); err != nil {
		t.Fatalf("refreshing tables: %v", err)
	}

	got, err := st.GetTable(ctx, tenant, "shop", "orders")
	if err != nil {
		t.Fatalf("getting table: %v", err)
	}
	if got.RowCount != 150 {
		t.Errorf("RowCount = %d, want 150", got.RowCount)
	}
	if got.UserDescription != "order headers" {
		t.Errorf("UserDescription = %q, want %q", got.UserDescription, "order headers")
	}

	// Put replaces the record wholesale and drops the annotation.
	if err := st.PutTables(ctx, tenant, tables); err != nil {
		t.Fatalf("re-putting tables: %v", err)
	}
	got, err = st.GetTable(ctx, tenant, "shop", "orders")
	if err != nil {
		t.Fatalf("getting table after put: %v", err)
	}
	if got.UserDescription != "" {
		t.Errorf("UserDescription after put = %q, want empty", got.UserDescription)
	}
}

func TestMongoStoreColumnNotes(t *testing.T) {
	skipIfNoMongo(t)
	ctx := context.Background()
	st := openStore(t)

	tenant := "it_notes"
	defer st.DeleteTableColumns(ctx, tenant, "shop", "users")

	cols := []catalog.Column{
		{Schema: "shop", Table: "users", Name: "id", SQLType: "int", KeyRole: catalog.KeyPrimary},
		{Schema: "shop", Table: "users", Name: "email", SQLType: "varchar(255)", Nullable: true},
	}
	if err := st.PutColumns(ctx, tenant, cols); err != nil {
		t.Fatalf("putting columns: %v", err)
	}
	if err := st.SetColumnNote(ctx, tenant, "shop", "users", "email", "PII"); err != nil {
		t.Fatalf("setting note: %v", err)
	}

	cols[1].SQLType = "varchar(320)"
	if err := st.RefreshColumns(ctx, tenant, cols); err != nil {
		t.Fatalf("refreshing columns: %v", err)
	}

	stored, err := st.ListAllColumns(ctx, tenant)
	if err != nil {
		t.Fatalf("listing columns: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("column count = %d, want 2", len(stored))
	}
	for _, c := range stored {
		if c.Name != "email" {
			continue
		}
		if c.SQLType != "varchar(320)" {
			t.Errorf("SQLType = %q, want %q", c.SQLType, "varchar(320)")
		}
		if c.UserNote != "PII" {
			t.Errorf("UserNote = %q, want %q", c.UserNote, "PII")
		}
	}
}

func TestMongoStoreGetMissing(t *testing.T) {
	skipIfNoMongo(t)
	ctx := context.Background()
	st := openStore(t)

	_, err := st.GetDatabase(ctx, "it_no_such_tenant")
	if !catalog.IsNotFound(err) {
		t.Errorf("GetDatabase error = %v, want not found", err)
	}
	_, err = st.GetTable(ctx, "it_no_such_tenant", "shop", "orders")
	if !catalog.IsNotFound(err) {
		t.Errorf("GetTable error = %v, want not found", err)
	}
}
