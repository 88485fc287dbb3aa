package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// TableKey identifies a table within a tenant as "schema.table".
func TableKey(schema, table string) string {
	return fmt.Sprintf("%s.%s", schema, table)
}

// BuildColumnCountIndex counts columns per table from a raw column listing.
// Keys are TableKey values.
func BuildColumnCountIndex(columns []RawColumnInput) map[string]int {
	index := make(map[string]int, len(columns))
	for _, c := range columns {
		index[TableKey(c.Schema, c.Table)]++
	}
	return index
}

// RawColumnInput is the engine-neutral column row produced by extraction.
// Key carries the MySQL COLUMN_KEY vocabulary (PRI, UNI, MUL or empty),
// which every extractor synthesizes regardless of engine.
type RawColumnInput struct {
	Schema   string
	Table    string
	Name     string
	Default  *string
	Nullable bool
	SQLType  string
	Key      string
	Comment  string
}

// RawTableInput is the engine-neutral table row produced by extraction.
type RawTableInput struct {
	Schema   string
	Name     string
	RowCount int64
	Comment  string
	SizeMB   float64
}

// NormalizeColumns converts raw extraction rows into canonical columns.
// User notes start empty; annotations are owned by the store and merged
// there, never carried through extraction.
func NormalizeColumns(rows []RawColumnInput) []Column {
	out := make([]Column, 0, len(rows))
	for _, r := range rows {
		out = append(out, Column{
			Schema:        r.Schema,
			Table:         r.Table,
			Name:          r.Name,
			SQLType:       strings.ToLower(r.SQLType),
			Nullable:      r.Nullable,
			Default:       r.Default,
			KeyRole:       keyRoleFromFlag(r.Key),
			SourceComment: r.Comment,
			UserNote:      "",
		})
	}
	return out
}

func keyRoleFromFlag(flag string) KeyRole {
	switch flag {
	case "PRI":
		return KeyPrimary
	case "UNI":
		return KeyUnique
	case "MUL":
		return KeyIndexed
	default:
		return KeyNone
	}
}

// NormalizeTables converts raw table rows into canonical tables, filling
// column counts from the index. A table missing from the index gets zero.
func NormalizeTables(rows []RawTableInput, columnCounts map[string]int) []Table {
	out := make([]Table, 0, len(rows))
	for _, r := range rows {
		rowCount := r.RowCount
		if rowCount < 0 {
			rowCount = 0
		}
		out = append(out, Table{
			Schema:          r.Schema,
			Name:            r.Name,
			RowCount:        rowCount,
			ColumnCount:     columnCounts[TableKey(r.Schema, r.Name)],
			ByteSizeMB:      r.SizeMB,
			SourceComment:   r.Comment,
			UserDescription: "",
		})
	}
	return out
}

// GroupColumnsByTable buckets canonical columns by their owning table.
// Keys are TableKey values; column order within a bucket follows input order.
func GroupColumnsByTable(columns []Column) map[string][]Column {
	grouped := make(map[string][]Column)
	for _, c := range columns {
		key := TableKey(c.Schema, c.Table)
		grouped[key] = append(grouped[key], c)
	}
	return grouped
}

// SortedTableKeys returns the keys of a grouped column map in lexical order.
func SortedTableKeys(grouped map[string][]Column) []string {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ColumnNames projects the names out of a column slice, preserving order.
func ColumnNames(columns []Column) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
	}
	return names
}
