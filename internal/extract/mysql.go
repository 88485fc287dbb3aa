package extract

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/catalogd/catalogd/internal/catalog"
	"github.com/catalogd/catalogd/internal/config"
)

// mysqlSource implements Source for MySQL/MariaDB using database/sql.
type mysqlSource struct {
	db *sql.DB
}

func openMySQL(cfg *config.TenantConfig) (Source, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Schema
	mc.ParseTime = true
	if cfg.SSL {
		mc.TLSConfig = "true"
	}

	db, err := sql.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("opening MySQL pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConnections)

	return &mysqlSource{db: db}, nil
}

func (s *mysqlSource) Acquire(ctx context.Context) (Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquiring MySQL connection: %v", catalog.ErrConnectivity, err)
	}
	return &mysqlSession{conn: conn}, nil
}

func (s *mysqlSource) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: pinging MySQL: %v", catalog.ErrConnectivity, err)
	}
	return nil
}

func (s *mysqlSource) Close() {
	s.db.Close()
}

// mysqlSession runs introspection queries on one checked-out connection.
type mysqlSession struct {
	conn *sql.Conn
}

func (s *mysqlSession) Release() {
	s.conn.Close()
}

func (s *mysqlSession) Columns(ctx context.Context, schema string) ([]RawColumn, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME, COLUMN_DEFAULT,
			IS_NULLABLE, COLUMN_TYPE, COLUMN_KEY, COLUMN_COMMENT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ?
		ORDER BY TABLE_NAME, ORDINAL_POSITION`

	rows, err := s.conn.QueryContext(ctx, query, schema)
	if err != nil {
		return nil, fmt.Errorf("querying columns: %w", err)
	}
	defer rows.Close()

	var cols []RawColumn
	for rows.Next() {
		var (
			c          RawColumn
			defaultVal sql.NullString
			nullable   string
		)
		if err := rows.Scan(&c.Schema, &c.Table, &c.Name, &defaultVal, &nullable, &c.SQLType, &c.Key, &c.Comment); err != nil {
			return nil, fmt.Errorf("scanning column row: %w", err)
		}
		if defaultVal.Valid {
			c.Default = &defaultVal.String
		}
		c.Nullable = nullable == "YES"
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

func (s *mysqlSession) Tables(ctx context.Context, schema string) ([]RawTable, error) {
	query := `
		SELECT TABLE_SCHEMA, TABLE_NAME, IFNULL(TABLE_ROWS, 0),
			IFNULL(TABLE_COMMENT, ''),
			IFNULL(ROUND(DATA_LENGTH / 1024 / 1024, 2), 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := s.conn.QueryContext(ctx, query, schema)
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
		if t.RowCount < 0 {
			t.RowCount = 0
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *mysqlSession) TotalByteSize(ctx context.Context, schema string) (float64, error) {
	query := `
		SELECT IFNULL(ROUND(SUM(DATA_LENGTH) / 1024 / 1024, 2), 0)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ?`

	var sizeMB float64
	if err := s.conn.QueryRowContext(ctx, query, schema).Scan(&sizeMB); err != nil {
		return 0, fmt.Errorf("querying database size: %w", err)
	}
	return sizeMB, nil
}

func (s *mysqlSession) PrimaryKeys(ctx context.Context, schema string) ([]PrimaryKeyRow, error) {
	query := `
		SELECT k.TABLE_NAME, k.COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE k
		JOIN information_schema.TABLE_CONSTRAINTS tc
		  ON k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		  AND k.TABLE_SCHEMA = tc.TABLE_SCHEMA
		  AND k.TABLE_NAME = tc.TABLE_NAME
		WHERE tc.CONSTRAINT_TYPE = 'PRIMARY KEY'
		  AND k.TABLE_SCHEMA = ?
		ORDER BY k.TABLE_NAME, k.ORDINAL_POSITION`

	rows, err := s.conn.QueryContext(ctx, query, schema)
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

func (s *mysqlSession) ForeignKeys(ctx context.Context, schema string) ([]ForeignKeyRow, error) {
	query := `
		SELECT CONSTRAINT_NAME, TABLE_NAME, COLUMN_NAME,
			REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ?
		  AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY TABLE_NAME, CONSTRAINT_NAME, ORDINAL_POSITION`

	rows, err := s.conn.QueryContext(ctx, query, schema)
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

// compile-time interface checks
var (
	_ Source  = (*mysqlSource)(nil)
	_ Session = (*mysqlSession)(nil)
)
