// Package engine orchestrates the catalog pipelines: onboarding, drift
// detection, sync, reads and annotations. It owns no I/O of its own; tenant
// databases are reached through the pool and the catalog through the store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
	"github.com/catalogd/catalogd/internal/diff"
	"github.com/catalogd/catalogd/internal/extract"
	"github.com/catalogd/catalogd/internal/pool"
	"github.com/catalogd/catalogd/internal/reconcile"
	"github.com/catalogd/catalogd/internal/store"
)

// columnFanout bounds parallel per-table column reads when assembling a
// full catalog snapshot.
const columnFanout = 8

// SessionPool hands out introspection sessions per tenant.
type SessionPool interface {
	Acquire(ctx context.Context, tenantID string) (extract.Session, error)
	Ping(ctx context.Context, tenantID string) error
}

var _ SessionPool = (*pool.Registry)(nil)

// Notifier receives pipeline events, typically fanned out to websocket
// clients. All methods must be non-blocking.
type Notifier interface {
	SyncStarted(tenant string)
	SyncCompleted(tenant string, tables, columns int)
	DriftDetected(tenant string, report *diff.Report)
}

type noopNotifier struct{}

func (noopNotifier) SyncStarted(string)                 {}
func (noopNotifier) SyncCompleted(string, int, int)     {}
func (noopNotifier) DriftDetected(string, *diff.Report) {}

// Engine wires the pipelines together.
type Engine struct {
	pools      SessionPool
	store      store.Store
	reconciler *reconcile.Reconciler
	resolver   pool.CredentialResolver
	notifier   Notifier
	logger     *slog.Logger
}

// Options carries optional collaborators for New.
type Options struct {
	Notifier Notifier
}

func New(pools SessionPool, st store.Store, resolver pool.CredentialResolver, logger *slog.Logger, opts Options) *Engine {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		pools:      pools,
		store:      st,
		reconciler: reconcile.New(st, logger),
		resolver:   resolver,
		notifier:   notifier,
		logger:     logger,
	}
}

// SetNotifier replaces the event sink. Use when the sink needs the same
// logger the engine was built with.
func (e *Engine) SetNotifier(n Notifier) {
	if n != nil {
		e.notifier = n
	}
}

// Onboard registers a tenant and builds its catalog from scratch. The
// conflict check runs before any extraction so a duplicate onboard never
// touches the tenant database.
func (e *Engine) Onboard(ctx context.Context, tenant string, tc *config.TenantConfig) error {
	exists, err := e.store.DatabaseExists(ctx, tenant)
	if err != nil {
		return fmt.Errorf("checking existing catalog: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: catalog for tenant %s", catalog.ErrConflict, tenant)
	}

	if err := e.store.PutConnection(ctx, store.ConnectionRecordFrom(tenant, tc)); err != nil {
		return fmt.Errorf("persisting connection: %w", err)
	}

	e.notifier.SyncStarted(tenant)
	snap, err := e.extractSnapshot(ctx, tenant, tc.Schema)
	if err != nil {
		return err
	}
	if err := e.reconciler.CreateAll(ctx, snap); err != nil {
		return err
	}
	e.notifier.SyncCompleted(tenant, len(snap.Tables), len(snap.Columns))
	e.logger.Info("tenant onboarded", "tenant", tenant, "schema", tc.Schema,
		"tables", len(snap.Tables), "columns", len(snap.Columns))
	return nil
}

// DetectDrift extracts the live schema and compares it against the stored
// snapshot. A store read failure is an error, never an empty report.
func (e *Engine) DetectDrift(ctx context.Context, tenant string) (*diff.Report, error) {
	tc, err := e.resolver.Resolve(ctx, tenant)
	if err != nil {
		return nil, err
	}

	current, err := e.extractColumns(ctx, tenant, tc.Schema)
	if err != nil {
		return nil, err
	}

	stored, err := e.store.ListAllColumns(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("loading stored columns: %w", err)
	}
	previous := make([]catalog.Column, 0, len(stored))
	for _, rec := range stored {
		previous = append(previous, rec.Column())
	}

	report := diff.Compare(current, previous)
	if report.Changed {
		e.notifier.DriftDetected(tenant, report)
		e.logger.Info("drift detected", "tenant", tenant,
			"tables_added", len(report.Tables.Added), "tables_deleted", len(report.Tables.Deleted))
	}
	return report, nil
}

// ApplyUpdate re-syncs the catalog. A caller-supplied drift report drives
// deletions first; the fresh extraction then refreshes everything that
// remains. The report is trusted as given.
func (e *Engine) ApplyUpdate(ctx context.Context, tenant string, report *diff.Report) error {
	tc, err := e.resolver.Resolve(ctx, tenant)
	if err != nil {
		return err
	}

	e.notifier.SyncStarted(tenant)
	if report != nil && report.Changed {
		if err := e.reconciler.ApplyDeletions(ctx, tenant, report); err != nil {
			return err
		}
	}

	snap, err := e.extractSnapshot(ctx, tenant, tc.Schema)
	if err != nil {
		return err
	}
	if err := e.reconciler.UpsertAll(ctx, snap); err != nil {
		return err
	}
	e.notifier.SyncCompleted(tenant, len(snap.Tables), len(snap.Columns))
	return nil
}

// Snapshot assembles the stored catalog: every table with its columns.
// Column reads fan out per table with a fixed parallelism bound.
func (e *Engine) Snapshot(ctx context.Context, tenant string) ([]catalog.Table, error) {
	recs, err := e.store.ListTables(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	tables := make([]catalog.Table, len(recs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(columnFanout)
	for i, rec := range recs {
		g.Go(func() error {
			cols, err := e.store.ListColumns(gctx, tenant, rec.Schema, rec.Name)
			if err != nil {
				return fmt.Errorf("listing columns of %s.%s: %w", rec.Schema, rec.Name, err)
			}
			t := rec.Table()
			t.Columns = make([]catalog.Column, 0, len(cols))
			for _, c := range cols {
				t.Columns = append(t.Columns, c.Column())
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// TableCatalog returns one stored table with its columns.
func (e *Engine) TableCatalog(ctx context.Context, tenant, schema, table string) (*catalog.Table, error) {
	rec, err := e.store.GetTable(ctx, tenant, schema, table)
	if err != nil {
		return nil, err
	}
	cols, err := e.store.ListColumns(ctx, tenant, schema, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s.%s: %w", schema, table, err)
	}
	t := rec.Table()
	t.Columns = make([]catalog.Column, 0, len(cols))
	for _, c := range cols {
		t.Columns = append(t.Columns, c.Column())
	}
	return &t, nil
}

// DatabaseStats returns the tenant-level summary document.
func (e *Engine) DatabaseStats(ctx context.Context, tenant string) (*store.DatabaseRecord, error) {
	return e.store.GetDatabase(ctx, tenant)
}

// TableStats returns one table's stored statistics without columns.
func (e *Engine) TableStats(ctx context.Context, tenant, schema, table string) (*store.TableRecord, error) {
	return e.store.GetTable(ctx, tenant, schema, table)
}

// ListDatabases returns the summaries of every onboarded tenant.
func (e *Engine) ListDatabases(ctx context.Context) ([]store.DatabaseRecord, error) {
	return e.store.ListDatabases(ctx)
}

// ERDData is the relationship export for diagramming clients: live tables
// plus primary and foreign key edges. Layout is the client's problem.
type ERDData struct {
	Schema        string                 `json:"schema"`
	Tables        []catalog.Table        `json:"tables"`
	PrimaryKeys   map[string][]string    `json:"primaryKeys"`
	Relationships []catalog.Relationship `json:"relationships"`
}

// ERD reads key structure straight from the tenant database.
func (e *Engine) ERD(ctx context.Context, tenant string) (*ERDData, error) {
	tc, err := e.resolver.Resolve(ctx, tenant)
	if err != nil {
		return nil, err
	}

	session, err := e.pools.Acquire(ctx, tenant)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	rawTables, err := session.Tables(ctx, tc.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading tables: %w", err)
	}
	rawCols, err := session.Columns(ctx, tc.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}
	pks, err := session.PrimaryKeys(ctx, tc.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading primary keys: %w", err)
	}
	fks, err := session.ForeignKeys(ctx, tc.Schema)
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys: %w", err)
	}

	columns := catalog.NormalizeColumns(rawCols)
	grouped := catalog.GroupColumnsByTable(columns)
	tables := catalog.NormalizeTables(rawTables, catalog.BuildColumnCountIndex(rawCols))
	for i := range tables {
		tables[i].Columns = grouped[catalog.TableKey(tables[i].Schema, tables[i].Name)]
	}

	primary := make(map[string][]string, len(pks))
	for _, pk := range pks {
		primary[pk.Table] = append(primary[pk.Table], pk.Column)
	}
	rels := make([]catalog.Relationship, 0, len(fks))
	for _, fk := range fks {
		rels = append(rels, catalog.Relationship{
			Constraint: fk.Constraint,
			Table:      fk.Table,
			Column:     fk.Column,
			RefTable:   fk.RefTable,
			RefColumn:  fk.RefColumn,
		})
	}

	return &ERDData{
		Schema:        tc.Schema,
		Tables:        tables,
		PrimaryKeys:   primary,
		Relationships: rels,
	}, nil
}

// AnnotateTable sets a table's user description.
func (e *Engine) AnnotateTable(ctx context.Context, tenant, schema, table, description string) error {
	return e.reconciler.AnnotateTable(ctx, tenant, schema, table, description)
}

// AnnotateColumn sets a column's user note.
func (e *Engine) AnnotateColumn(ctx context.Context, tenant, schema, table, column, note string) error {
	return e.reconciler.AnnotateColumn(ctx, tenant, schema, table, column, note)
}

// TestConnection opens a throwaway source for the given settings and pings
// it. Used by the onboarding wizard before anything is persisted.
func (e *Engine) TestConnection(ctx context.Context, tc *config.TenantConfig) error {
	src, err := extract.Open(tc)
	if err != nil {
		return err
	}
	defer src.Close()
	return src.Ping(ctx)
}

// extractSnapshot runs the full extraction pipeline on one session.
func (e *Engine) extractSnapshot(ctx context.Context, tenant, schema string) (*reconcile.Snapshot, error) {
	session, err := e.pools.Acquire(ctx, tenant)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	rawCols, err := session.Columns(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("extracting columns: %w", err)
	}
	rawTables, err := session.Tables(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("extracting tables: %w", err)
	}
	totalMB, err := session.TotalByteSize(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("extracting total size: %w", err)
	}

	return &reconcile.Snapshot{
		Tenant:      tenant,
		Schema:      schema,
		TotalMB:     totalMB,
		Tables:      catalog.NormalizeTables(rawTables, catalog.BuildColumnCountIndex(rawCols)),
		Columns:     catalog.NormalizeColumns(rawCols),
		ExtractedAt: time.Now(),
	}, nil
}

// extractColumns extracts and normalizes columns only, for drift detection.
func (e *Engine) extractColumns(ctx context.Context, tenant, schema string) ([]catalog.Column, error) {
	session, err := e.pools.Acquire(ctx, tenant)
	if err != nil {
		return nil, err
	}
	defer session.Release()

	rawCols, err := session.Columns(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("extracting columns: %w", err)
	}
	return catalog.NormalizeColumns(rawCols), nil
}
