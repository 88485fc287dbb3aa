// Package extract issues read-only introspection queries against a tenant's
// relational information-schema. Each engine implements Source; all queries
// for one sync run against a single acquired Session.
package extract

import (
	"context"
	"fmt"
	"math"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
)

// Key-role flags as emitted by the extractors. MySQL's COLUMN_KEY vocabulary
// is the raw wire format; the postgres and oracle extractors synthesize the
// same flags from their own catalogs so normalization stays engine-agnostic.
const (
	KeyFlagPrimary = "PRI"
	KeyFlagUnique  = "UNI"
	KeyFlagIndexed = "MUL"
)

// RawColumn is one introspection row per column, ordered by table name then
// column definition order. It feeds catalog normalization unchanged.
type RawColumn = catalog.RawColumnInput

// RawTable is one introspection row per table. SizeMB is megabytes rounded
// to 2 decimal places; RowCount is the source's estimate, clamped at >= 0.
type RawTable = catalog.RawTableInput

// PrimaryKeyRow names one column of a table's primary key.
type PrimaryKeyRow struct {
	Table  string
	Column string
}

// ForeignKeyRow names one column-level foreign key reference.
type ForeignKeyRow struct {
	Constraint string
	Table      string
	Column     string
	RefTable   string
	RefColumn  string
}

// Session is a single connection checked out of a tenant's pool. It must be
// released on every exit path; all methods are read-only.
type Session interface {
	Columns(ctx context.Context, schema string) ([]RawColumn, error)
	Tables(ctx context.Context, schema string) ([]RawTable, error)
	TotalByteSize(ctx context.Context, schema string) (float64, error)
	PrimaryKeys(ctx context.Context, schema string) ([]PrimaryKeyRow, error)
	ForeignKeys(ctx context.Context, schema string) ([]ForeignKeyRow, error)
	Release()
}

// Source is a pooled connection factory for one tenant database.
type Source interface {
	Acquire(ctx context.Context) (Session, error)
	Ping(ctx context.Context) error
	Close()
}

// Pool size bounds applied when the tenant settings carry none. Config-file
// tenants get the same bounds from config.Load; tenants onboarded through
// the API or wizard arrive here unclamped.
const (
	defaultMaxConns = 10
	maxConnsCap     = 50
)

func boundMaxConns(n int) int {
	switch {
	case n <= 0:
		return defaultMaxConns
	case n > maxConnsCap:
		return maxConnsCap
	default:
		return n
	}
}

// Open creates a Source for the given tenant connection. The underlying pool
// connects lazily; use Ping to verify reachability.
func Open(cfg *config.TenantConfig) (Source, error) {
	if bounded := boundMaxConns(cfg.MaxConnections); bounded != cfg.MaxConnections {
		c := *cfg
		c.MaxConnections = bounded
		cfg = &c
	}
	switch cfg.Type {
	case "mysql", "mariadb":
		return openMySQL(cfg)
	case "postgresql", "postgres":
		return openPostgres(cfg)
	case "oracle":
		return openOracle(cfg)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
}

// roundMB rounds a megabyte value to 2 decimal places, matching the
// ROUND(x, 2) the MySQL extractor gets from the server.
func roundMB(v float64) float64 {
	return math.Round(v*100) / 100
}
