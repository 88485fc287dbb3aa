package extract

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
)

// postgresSource implements Source for PostgreSQL using pgxpool.
type postgresSource struct {
	pool *pgxpool.Pool
}

func openPostgres(cfg *config.TenantConfig) (Source, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s default_query_exec_mode=simple_protocol",
		cfg.Host, cfg.Port, cfg.Schema, cfg.Username, cfg.Password,
	)
	if cfg.SSL {
		connStr += " sslmode=require"
	} else {
		connStr += " sslmode=disable"
	}

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConnections)

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating PostgreSQL pool: %w", err)
	}

	return &postgresSource{pool: pool}, nil
}

func (s *postgresSource) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring PostgreSQL connection: %v", catalog.ErrConnectivity, err)
	}
	return &postgresSession{conn: conn}, nil
}

func (s *postgresSource) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: pinging PostgreSQL: %v", catalog.ErrConnectivity, err)
	}
	return nil
}

func (s *postgresSource) Close() {
	s.pool.Close()
}

// postgresSession runs introspection queries on one acquired pool connection.
// The pg schema name is the tenant's "schema" in catalog terms.
type postgresSession struct {
	conn *pgxpool.Conn
}

func (s *postgresSession) Release() {
	s.conn.Release()
}

func (s *postgresSession) Columns(ctx context.Context, schema string) ([]RawColumn, error) {
	keyRoles, err := s.keyRoles(ctx, schema)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT c.table_schema, c.table_name, c.column_name, c.column_default,
			c.is_nullable, c.data_type,
			COALESCE(d.description, '')
		FROM information_schema.columns c
		JOIN pg_class pc ON pc.relname = c.table_name
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace AND pn.nspname = c.table_schema
		LEFT JOIN pg_description d ON d.objoid = pc.oid AND d.objsubid = c.ordinal_position
		WHERE c.table_schema = $1 AND pc.relkind = 'r'
		ORDER BY c.table_name, c.ordinal_position`

	rows, err := s.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []RawColumn
	for rows.Next() {
		var (
			c          RawColumn
			defaultVal *string
			nullable   string
		)
		if err := rows.Scan(&c.Schema, &c.Table, &c.Name, &defaultVal, &nullable, &c.SQLType, &c.Comment); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		c.Default = defaultVal
		c.Nullable = nullable == "YES"
		c.Key = keyRoles[c.Table+"."+c.Name]
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// keyRoles synthesizes COLUMN_KEY-style flags from pg_index: PRI for primary
// key members, UNI for unique-index members, MUL for other indexed columns.
func (s *postgresSession) keyRoles(ctx context.Context, schema string) (map[string]string, error) {
	query := `
		SELECT t.relname, a.attname,
			bool_or(ix.indisprimary), bool_or(ix.indisunique)
		FROM pg_index ix
		JOIN pg_class t ON t.oid = ix.indrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = $1
		GROUP BY t.relname, a.attname`

	rows, err := s.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying index membership: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]string)
	for rows.Next() {
		var (
			table, column       string
			isPrimary, isUnique bool
		)
		if err := rows.Scan(&table, &column, &isPrimary, &isUnique); err != nil {
			return nil, fmt.Errorf("scanning index membership row: %w", err)
		}
		switch {
		case isPrimary:
			roles[table+"."+column] = KeyFlagPrimary
		case isUnique:
			roles[table+"."+column] = KeyFlagUnique
		default:
			roles[table+"."+column] = KeyFlagIndexed
		}
	}
	return roles, rows.Err()
}

func (s *postgresSession) Tables(ctx context.Context, schema string) ([]RawTable, error) {
	query := `
		SELECT n.nspname, c.relname,
			GREATEST(c.reltuples::bigint, 0),
			COALESCE(obj_description(c.oid), ''),
			ROUND((pg_total_relation_size(c.oid) / 1024.0 / 1024.0)::numeric, 2)::float8
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind = 'r'
		ORDER BY c.relname`

	rows, err := s.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []RawTable
	for rows.Next() {
		var t RawTable
		if err := rows.Scan(&t.Schema, &t.Name, &t.RowCount, &t.Comment, &t.SizeMB); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *postgresSession) TotalByteSize(ctx context.Context, schema string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(pg_total_relation_size(c.oid)), 0)::float8
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE n.nspname = $1 AND c.relkind = 'r'`

	var sizeBytes float64
	if err := s.conn.QueryRow(ctx, query, schema).Scan(&sizeBytes); err != nil {
		return 0, fmt.Errorf("querying database size: %w", err)
	}
	return roundMB(sizeBytes / 1024 / 1024), nil
}

func (s *postgresSession) PrimaryKeys(ctx context.Context, schema string) ([]PrimaryKeyRow, error) {
	query := `
		SELECT tc.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.table_name, kcu.ordinal_position`

	rows, err := s.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying primary keys: %w", err)
	}
	defer rows.Close()

	var pks []PrimaryKeyRow
	for rows.Next() {
		var pk PrimaryKeyRow
		if err := rows.Scan(&pk.Table, &pk.Column); err != nil {
			return nil, fmt.Errorf("scanning primary key row: %w", err)
		}
		pks = append(pks, pk)
	}
	return pks, rows.Err()
}

func (s *postgresSession) ForeignKeys(ctx context.Context, schema string) ([]ForeignKeyRow, error) {
	query := `
		SELECT tc.constraint_name, tc.table_name, kcu.column_name,
			ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON tc.constraint_name = ccu.constraint_name
		  AND tc.table_schema = ccu.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1
		ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`

	rows, err := s.conn.Query(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKeyRow
	for rows.Next() {
		var fk ForeignKeyRow
		if err := rows.Scan(&fk.Constraint, &fk.Table, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("scanning foreign key row: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

var (
	_ Source  = (*postgresSource)(nil)
	_ Session = (*postgresSession)(nil)
)
