package diff

import (
	"reflect"
	"testing"

	"github.com/catalogd/catalogd/internal/catalog"
)

func col(table, name, sqlType string, nullable bool) catalog.Column {
	return catalog.Column{Schema: "shop", Table: table, Name: name, SQLType: sqlType, Nullable: nullable}
}

func TestCompareIdenticalIsEmpty(t *testing.T) {
	cols := []catalog.Column{
		col("users", "id", "int", false),
		col("users", "email", "varchar(255)", true),
	}

	report := Compare(cols, cols)

	if !report.Empty() || report.Changed {
		t.Fatalf("identical inputs must produce an empty report: %+v", report)
	}
	if report.Tables.Changed || report.Columns.Changed {
		t.Errorf("no section may be flagged: %+v", report)
	}
}

func TestCompareIsDeterministic(t *testing.T) {
	current := []catalog.Column{
		col("orders", "id", "int", false),
		col("users", "id", "int", false),
		col("users", "email", "varchar(255)", true),
	}
	previous := []catalog.Column{
		col("users", "id", "int", false),
	}

	a := Compare(current, previous)
	shuffled := []catalog.Column{current[2], current[0], current[1]}
	b := Compare(shuffled, previous)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("input order changed the report:\n a=%+v\n b=%+v", a, b)
	}
}

func TestCompareAddedTableHasNoColumnEntries(t *testing.T) {
	previous := []catalog.Column{
		col("users", "id", "int", false),
	}
	current := []catalog.Column{
		col("users", "id", "int", false),
		col("products", "id", "int", false),
		col("products", "sku", "varchar(64)", false),
	}

	report := Compare(current, previous)

	if !reflect.DeepEqual(report.Tables.Added, []string{"shop.products"}) {
		t.Fatalf("unexpected added tables: %v", report.Tables.Added)
	}
	if len(report.Columns.Added) != 0 {
		t.Errorf("added table must not produce column entries: %+v", report.Columns.Added)
	}
}

func TestCompareDeletedTableHasNoColumnEntries(t *testing.T) {
	previous := []catalog.Column{
		col("users", "id", "int", false),
		col("legacy", "id", "int", false),
	}
	current := []catalog.Column{
		col("users", "id", "int", false),
	}

	report := Compare(current, previous)

	if !reflect.DeepEqual(report.Tables.Deleted, []string{"shop.legacy"}) {
		t.Fatalf("unexpected deleted tables: %v", report.Tables.Deleted)
	}
	if len(report.Columns.Deleted) != 0 {
		t.Errorf("deleted table must not produce column entries: %+v", report.Columns.Deleted)
	}
}

func TestCompareColumnDrift(t *testing.T) {
	previous := []catalog.Column{
		col("users", "id", "int", false),
		col("users", "nickname", "varchar(50)", true),
		col("orders", "id", "int", false),
		col("orders", "total", "decimal(8,2)", false),
	}
	current := []catalog.Column{
		col("users", "id", "int", false),
		col("users", "email", "varchar(255)", false),
		col("orders", "id", "int", false),
		col("orders", "total", "decimal(10,2)", false),
	}

	report := Compare(current, previous)

	if !report.Changed || !report.Columns.Changed {
		t.Fatal("expected drift to be flagged")
	}
	if report.Tables.Changed {
		t.Errorf("no table level drift expected: %+v", report.Tables)
	}
	wantAdded := []TableColumns{{Table: "shop.users", Columns: []string{"email"}}}
	if !reflect.DeepEqual(report.Columns.Added, wantAdded) {
		t.Errorf("added = %+v, want %+v", report.Columns.Added, wantAdded)
	}
	wantDeleted := []TableColumns{{Table: "shop.users", Columns: []string{"nickname"}}}
	if !reflect.DeepEqual(report.Columns.Deleted, wantDeleted) {
		t.Errorf("deleted = %+v, want %+v", report.Columns.Deleted, wantDeleted)
	}
	wantUpdated := []TableColumns{{Table: "shop.orders", Columns: []string{"total"}}}
	if !reflect.DeepEqual(report.Columns.Updated, wantUpdated) {
		t.Errorf("updated = %+v, want %+v", report.Columns.Updated, wantUpdated)
	}
}

func TestCompareNullabilityCountsAsUpdate(t *testing.T) {
	previous := []catalog.Column{col("users", "email", "varchar(255)", false)}
	current := []catalog.Column{col("users", "email", "varchar(255)", true)}

	report := Compare(current, previous)

	want := []TableColumns{{Table: "shop.users", Columns: []string{"email"}}}
	if !reflect.DeepEqual(report.Columns.Updated, want) {
		t.Errorf("updated = %+v, want %+v", report.Columns.Updated, want)
	}
}

func TestCompareCommentChangeIsSilent(t *testing.T) {
	previous := []catalog.Column{{Schema: "shop", Table: "users", Name: "id", SQLType: "int", SourceComment: "old"}}
	current := []catalog.Column{{Schema: "shop", Table: "users", Name: "id", SQLType: "int", SourceComment: "new"}}

	if report := Compare(current, previous); report.Changed {
		t.Errorf("comment churn must not flag drift: %+v", report)
	}
}
