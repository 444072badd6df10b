// Package postgres provides the Postgres record sink.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// SinkName identifies this sink in logs and metrics.
const SinkName = "postgres"

const defaultTable = "hasaki_items"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config holds the connection parameters for the record table.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Table    string
}

// DSN renders the connection string for pgx.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// RecordStore inserts records into a Postgres table, one auto-committed
// statement per record.
type RecordStore struct {
	pool  execCloser
	table string
}

// Connect opens a single-connection pool, pings it and ensures the table exists.
func Connect(ctx context.Context, cfg Config) (*RecordStore, error) {
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	store := &RecordStore{pool: pool, table: table}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRecordStoreWithPool(pool execCloser, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the record table if it does not exist.
func (s *RecordStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id SERIAL PRIMARY KEY,
	item_name TEXT NOT NULL,
	description TEXT,
	new_price TEXT,
	discount_percent TEXT,
	old_price TEXT,
	link_page TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Name implements crawler.Sink.
func (s *RecordStore) Name() string { return SinkName }

// Write inserts one record row.
func (s *RecordStore) Write(ctx context.Context, record crawler.Record) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("record store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	item_name,
	description,
	new_price,
	discount_percent,
	old_price,
	link_page
) VALUES (
	$1,$2,$3,$4,$5,$6
)`, s.table)

	if _, err := s.pool.Exec(ctx, query,
		record.ItemName,
		record.Description,
		record.NewPrice,
		record.DiscountPercent,
		record.OldPrice,
		record.LinkPage,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
