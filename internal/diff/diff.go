// Package diff compares a freshly extracted schema against the stored
// snapshot and reports structural drift. The comparison is pure; both sides
// arrive as canonical columns.
package diff

import (
	"sort"

	"github.com/catalogd/catalogd/internal/catalog"
)

// TableColumns lists the affected column names of one table. Table is the
// "schema.table" key.
type TableColumns struct {
	Table   string   `json:"table"`
	Columns []string `json:"columns"`
}

// TableChanges reports tables that appeared or disappeared.
type TableChanges struct {
	Changed bool     `json:"changed"`
	Added   []string `json:"added,omitempty"`
	Deleted []string `json:"deleted,omitempty"`
}

// ColumnChanges reports column drift for tables present on both sides.
// Tables that were added or deleted as a whole never appear here; their
// column churn is implied by the table-level entry.
type ColumnChanges struct {
	Changed bool           `json:"changed"`
	Added   []TableColumns `json:"added,omitempty"`
	Deleted []TableColumns `json:"deleted,omitempty"`
	Updated []TableColumns `json:"updated,omitempty"`
}

// Report is the full drift report for one tenant schema. Table names in
// Tables and in TableColumns entries are qualified "schema.table" keys, the
// same form the reconciler consumes; clients wanting bare table names strip
// the prefix themselves.
type Report struct {
	Changed bool          `json:"changed"`
	Tables  TableChanges  `json:"tables"`
	Columns ColumnChanges `json:"columns"`
}

// Empty reports whether no drift was found.
func (r *Report) Empty() bool { return !r.Changed }

// Compare diffs the current extraction against the previous snapshot.
// All slices come back sorted so equal inputs produce identical reports.
func Compare(current, previous []catalog.Column) *Report {
	curTables := catalog.GroupColumnsByTable(current)
	prevTables := catalog.GroupColumnsByTable(previous)

	report := &Report{}

	for _, key := range catalog.SortedTableKeys(curTables) {
		if _, ok := prevTables[key]; !ok {
			report.Tables.Added = append(report.Tables.Added, key)
		}
	}
	for _, key := range catalog.SortedTableKeys(prevTables) {
		if _, ok := curTables[key]; !ok {
			report.Tables.Deleted = append(report.Tables.Deleted, key)
		}
	}
	report.Tables.Changed = len(report.Tables.Added) > 0 || len(report.Tables.Deleted) > 0

	for _, key := range catalog.SortedTableKeys(curTables) {
		prevCols, ok := prevTables[key]
		if !ok {
			continue
		}
		added, deleted, updated := compareColumns(curTables[key], prevCols)
		if len(added) > 0 {
			report.Columns.Added = append(report.Columns.Added, TableColumns{Table: key, Columns: added})
		}
		if len(deleted) > 0 {
			report.Columns.Deleted = append(report.Columns.Deleted, TableColumns{Table: key, Columns: deleted})
		}
		if len(updated) > 0 {
			report.Columns.Updated = append(report.Columns.Updated, TableColumns{Table: key, Columns: updated})
		}
	}
	report.Columns.Changed = len(report.Columns.Added) > 0 ||
		len(report.Columns.Deleted) > 0 ||
		len(report.Columns.Updated) > 0

	report.Changed = report.Tables.Changed || report.Columns.Changed
	return report
}

// compareColumns diffs one table present on both sides. A column counts as
// updated when its type or nullability moved; comments, defaults and key
// roles refresh silently and do not flag drift.
func compareColumns(current, previous []catalog.Column) (added, deleted, updated []string) {
	prevByName := make(map[string]catalog.Column, len(previous))
	for _, c := range previous {
		prevByName[c.Name] = c
	}
	curByName := make(map[string]catalog.Column, len(current))
	for _, c := range current {
		curByName[c.Name] = c
	}

	for name, cur := range curByName {
		prev, ok := prevByName[name]
		if !ok {
			added = append(added, name)
			continue
		}
		if cur.SQLType != prev.SQLType || cur.Nullable != prev.Nullable {
			updated = append(updated, name)
		}
	}
	for name := range prevByName {
		if _, ok := curByName[name]; !ok {
			deleted = append(deleted, name)
		}
	}

	sort.Strings(added)
	sort.Strings(deleted)
	sort.Strings(updated)
	return added, deleted, updated
}
