// Package reconcile applies extraction results and drift reports to the
// catalog store. Creation writes full documents; refresh touches structural
// fields only so annotations survive every sync.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/diff"
	"github.com/catalogd/catalogd/internal/store"
)

// Snapshot is one tenant's extracted schema, normalized and ready to persist.
type Snapshot struct {
	Tenant      string
	Schema      string
	TotalMB     float64
	Tables      []catalog.Table
	Columns     []catalog.Column
	ExtractedAt time.Time
}

// Reconciler writes snapshots and drift into the store.
type Reconciler struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Reconciler {
	return &Reconciler{store: s, logger: logger}
}

// CreateAll persists a first-time snapshot with full document writes.
func (r *Reconciler) CreateAll(ctx context.Context, snap *Snapshot) error {
	if err := r.store.PutTables(ctx, snap.Tenant, snap.Tables); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	if err := r.store.PutColumns(ctx, snap.Tenant, snap.Columns); err != nil {
		return fmt.Errorf("creating columns: %w", err)
	}
	if err := r.store.PutDatabase(ctx, summarize(snap)); err != nil {
		return fmt.Errorf("creating database summary: %w", err)
	}
	r.logger.Info("catalog created",
		"tenant", snap.Tenant, "tables", len(snap.Tables), "columns", len(snap.Columns))
	return nil
}

// UpsertAll persists a repeat snapshot. Structural fields refresh in place;
// user descriptions and notes are never written.
func (r *Reconciler) UpsertAll(ctx context.Context, snap *Snapshot) error {
	if err := r.store.RefreshTables(ctx, snap.Tenant, snap.Tables); err != nil {
		return fmt.Errorf("refreshing tables: %w", err)
	}
	if err := r.store.RefreshColumns(ctx, snap.Tenant, snap.Columns); err != nil {
		return fmt.Errorf("refreshing columns: %w", err)
	}
	if err := r.store.PutDatabase(ctx, summarize(snap)); err != nil {
		return fmt.Errorf("refreshing database summary: %w", err)
	}
	r.logger.Info("catalog refreshed",
		"tenant", snap.Tenant, "tables", len(snap.Tables), "columns", len(snap.Columns))
	return nil
}

// ApplyDeletions removes tables and columns the drift report marks as gone.
// Deleted tables take their column documents with them; the report carries
// no column entries for those tables.
func (r *Reconciler) ApplyDeletions(ctx context.Context, tenant string, report *diff.Report) error {
	dropped := make(map[string]bool, len(report.Tables.Deleted))
	for _, key := range report.Tables.Deleted {
		dropped[key] = true
		schema, table := splitTableKey(key)
		if err := r.store.DeleteTable(ctx, tenant, schema, table); err != nil && !catalog.IsNotFound(err) {
			return fmt.Errorf("deleting table %s: %w", key, err)
		}
		if err := r.store.DeleteTableColumns(ctx, tenant, schema, table); err != nil {
			return fmt.Errorf("deleting columns of %s: %w", key, err)
		}
		r.logger.Info("table removed from catalog", "tenant", tenant, "table", key)
	}

	for _, tc := range report.Columns.Deleted {
		// Deleted tables already took their columns; skip entries a
		// malformed report carries for them.
		if dropped[tc.Table] {
			continue
		}
		schema, table := splitTableKey(tc.Table)
		for _, name := range tc.Columns {
			err := r.store.DeleteColumn(ctx, tenant, schema, table, name)
			if err != nil && !catalog.IsNotFound(err) {
				return fmt.Errorf("deleting column %s.%s: %w", tc.Table, name, err)
			}
		}
		r.logger.Info("columns removed from catalog",
			"tenant", tenant, "table", tc.Table, "count", len(tc.Columns))
	}
	return nil
}

// AnnotateTable sets a table's user description.
func (r *Reconciler) AnnotateTable(ctx context.Context, tenant, schema, table, description string) error {
	return r.store.SetTableDescription(ctx, tenant, schema, table, description)
}

// AnnotateColumn sets a column's user note.
func (r *Reconciler) AnnotateColumn(ctx context.Context, tenant, schema, table, column, note string) error {
	return r.store.SetColumnNote(ctx, tenant, schema, table, column, note)
}

// summarize rolls a snapshot up into the tenant-level document.
func summarize(snap *Snapshot) *store.DatabaseRecord {
	names := make([]string, 0, len(snap.Tables))
	var totalRows int64
	for _, t := range snap.Tables {
		names = append(names, t.Name)
		totalRows += t.RowCount
	}
	syncedAt := snap.ExtractedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now()
	}
	return &store.DatabaseRecord{
		Tenant:          snap.Tenant,
		Schema:          snap.Schema,
		TotalByteSizeMB: snap.TotalMB,
		TotalRowCount:   totalRows,
		Tables:          names,
		LastSyncedAt:    syncedAt,
	}
}

// splitTableKey undoes catalog.TableKey. Schemas never contain a dot in the
// supported engines, so the first dot is the separator.
func splitTableKey(key string) (schema, table string) {
	schema, table, ok := strings.Cut(key, ".")
	if !ok {
		return "", key
	}
	return schema, table
}
