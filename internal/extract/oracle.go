package extract

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/sijms/go-ora/v2"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
)

// oracleSource implements Source for Oracle using go-ora (pure Go, no
// Instant Client). The schema name is matched against the owner, uppercased.
type oracleSource struct {
	db *sql.DB
}

func openOracle(cfg *config.TenantConfig) (Source, error) {
	connStr := fmt.Sprintf("oracle://%s:%s@%s:%d/%s",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Schema)

	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening Oracle pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	return &oracleSource{db: db}, nil
}

func (s *oracleSource) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring Oracle connection: %v", catalog.ErrConnectivity, err)
	}
	return &oracleSession{conn: conn}, nil
}

func (s *oracleSource) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: pinging Oracle: %v", catalog.ErrConnectivity, err)
	}
	return nil
}

func (s *oracleSource) Close() {
	s.db.Close()
}

type oracleSession struct {
	conn *sql.Conn
}

func (s *oracleSession) Release() {
	s.conn.Close()
}

func owner(schema string) string {
	return strings.ToUpper(schema)
}

func (s *oracleSession) Columns(ctx context.Context, schema string) ([]RawColumn, error) {
	keyRoles, err := s.keyRoles(ctx, schema)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT c.TABLE_NAME, c.COLUMN_NAME,
			CASE WHEN c.NULLABLE = 'Y' THEN 'YES' ELSE 'NO' END,
			c.DATA_TYPE, NVL(cm.COMMENTS, '')
		FROM ALL_TAB_COLUMNS c
		LEFT JOIN ALL_COL_COMMENTS cm
		  ON cm.OWNER = c.OWNER AND cm.TABLE_NAME = c.TABLE_NAME AND cm.COLUMN_NAME = c.COLUMN_NAME
		WHERE c.OWNER = :1
		ORDER BY c.TABLE_NAME, c.COLUMN_ID`

	rows, err := s.conn.QueryContext(ctx, query, owner(schema))
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []RawColumn
	for rows.Next() {
		var (
			c        RawColumn
			nullable string
		)
		if err := rows.Scan(&c.Table, &c.Name, &nullable, &c.SQLType, &c.Comment); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		// DATA_DEFAULT is a LONG column; reading it needs a separate
		// per-table query and is skipped for Oracle sources.
		// The catalog keeps the caller's schema name; OWNER is Oracle's
		// uppercased form and only matches in the WHERE clause.
		c.Schema = schema
		c.Nullable = nullable == "YES"
		c.Key = keyRoles[c.Table+"."+c.Name]
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *oracleSession) keyRoles(ctx context.Context, schema string) (map[string]string, error) {
	query := `
		SELECT cc.TABLE_NAME, cc.COLUMN_NAME, c.CONSTRAINT_TYPE
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
		WHERE c.OWNER = :1 AND c.CONSTRAINT_TYPE IN ('P', 'U')`

	rows, err := s.conn.QueryContext(ctx, query, owner(schema))
	if err != nil {
		return nil, fmt.Errorf("querying key constraints: %w", err)
	}
	defer rows.Close()

	roles := make(map[string]string)
	for rows.Next() {
		var table, column, ctype string
		if err := rows.Scan(&table, &column, &ctype); err != nil {
			return nil, fmt.Errorf("scanning key constraint row: %w", err)
		}
		key := table + "." + column
		// Primary membership wins over unique.
		if ctype == "P" {
			roles[key] = KeyFlagPrimary
		} else if roles[key] == "" {
			roles[key] = KeyFlagUnique
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idxQuery := `
		SELECT ic.TABLE_NAME, ic.COLUMN_NAME
		FROM ALL_IND_COLUMNS ic
		WHERE ic.TABLE_OWNER = :1`

	idxRows, err := s.conn.QueryContext(ctx, idxQuery, owner(schema))
	if err != nil {
		return nil, fmt.Errorf("querying index columns: %w", err)
	}
	defer idxRows.Close()

	for idxRows.Next() {
		var table, column string
		if err := idxRows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scanning index column row: %w", err)
		}
		key := table + "." + column
		if roles[key] == "" {
			roles[key] = KeyFlagIndexed
		}
	}
	return roles, idxRows.Err()
}

func (s *oracleSession) Tables(ctx context.Context, schema string) ([]RawTable, error) {
	query := `
		SELECT t.TABLE_NAME, NVL(t.NUM_ROWS, 0), NVL(tm.COMMENTS, ''),
			ROUND(NVL((SELECT SUM(s.BYTES) FROM USER_SEGMENTS s WHERE s.SEGMENT_NAME = t.TABLE_NAME), 0) / 1024 / 1024, 2)
		FROM ALL_TABLES t
		LEFT JOIN ALL_TAB_COMMENTS tm ON tm.OWNER = t.OWNER AND tm.TABLE_NAME = t.TABLE_NAME
		WHERE t.OWNER = :1
		ORDER BY t.TABLE_NAME`

	rows, err := s.conn.QueryContext(ctx, query, owner(schema))
	if err != nil {
		return nil, fmt.Errorf("querying tables: %w", err)
	}
	defer rows.Close()

	var tables []RawTable
	for rows.Next() {
		var t RawTable
		if err := rows.Scan(&t.Name, &t.RowCount, &t.Comment, &t.SizeMB); err != nil {
			return nil, fmt.Errorf("scanning table row: %w", err)
		}
		t.Schema = schema
		if t.RowCount < 0 {
			t.RowCount = 0
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *oracleSession) TotalByteSize(ctx context.Context, schema string) (float64, error) {
	query := `
		SELECT NVL(SUM(BYTES), 0)
		FROM USER_SEGMENTS
		WHERE SEGMENT_TYPE = 'TABLE'`

	var sizeBytes float64
	if err := s.conn.QueryRowContext(ctx, query).Scan(&sizeBytes); err != nil {
		return 0, fmt.Errorf("querying database size: %w", err)
	}
	return roundMB(sizeBytes / 1024 / 1024), nil
}

func (s *oracleSession) PrimaryKeys(ctx context.Context, schema string) ([]PrimaryKeyRow, error) {
	query := `
		SELECT c.TABLE_NAME, cc.COLUMN_NAME
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
		WHERE c.OWNER = :1 AND c.CONSTRAINT_TYPE = 'P'
		ORDER BY c.TABLE_NAME, cc.POSITION`

	rows, err := s.conn.QueryContext(ctx, query, owner(schema))
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

func (s *oracleSession) ForeignKeys(ctx context.Context, schema string) ([]ForeignKeyRow, error) {
	query := `
		SELECT c.CONSTRAINT_NAME, c.TABLE_NAME, cc.COLUMN_NAME,
			rc.TABLE_NAME, rcc.COLUMN_NAME
		FROM ALL_CONSTRAINTS c
		JOIN ALL_CONS_COLUMNS cc ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME AND c.OWNER = cc.OWNER
		JOIN ALL_CONSTRAINTS rc ON c.R_CONSTRAINT_NAME = rc.CONSTRAINT_NAME AND c.R_OWNER = rc.OWNER
		JOIN ALL_CONS_COLUMNS rcc ON rc.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME AND rc.OWNER = rcc.OWNER
			AND cc.POSITION = rcc.POSITION
		WHERE c.OWNER = :1 AND c.CONSTRAINT_TYPE = 'R'
		ORDER BY c.TABLE_NAME, c.CONSTRAINT_NAME, cc.POSITION`

	rows, err := s.conn.QueryContext(ctx, query, owner(schema))
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
	_ Source  = (*oracleSource)(nil)
	_ Session = (*oracleSession)(nil)
)
