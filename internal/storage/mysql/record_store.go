// Package mysqlstore provides the MySQL record sink.
package mysqlstore

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/JakeFAU/hasaki-crawler/internal/crawler"
)

// SinkName identifies this sink in logs and metrics.
const SinkName = "mysql"

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

// DSN renders the go-sql-driver connection string.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// RecordStore inserts records into a MySQL table, one auto-committed
// statement per record.
type RecordStore struct {
	db    *sqlx.DB
	table string
}

// Connect opens and pings a single connection, then ensures the table exists.
func Connect(ctx context.Context, cfg Config) (*RecordStore, error) {
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	db.SetMaxOpenConns(1)
	store := &RecordStore{db: db, table: table}
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewRecordStoreWithDB constructs a store from an existing handle (primarily for testing).
func NewRecordStoreWithDB(db *sqlx.DB, table string) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RecordStore{db: db, table: name}, nil
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
	id INT AUTO_INCREMENT PRIMARY KEY,
	item_name TEXT NOT NULL,
	description TEXT,
	new_price TEXT,
	discount_percent TEXT,
	old_price TEXT,
	link_page TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Name implements crawler.Sink.
func (s *RecordStore) Name() string { return SinkName }

// Write inserts one record row.
func (s *RecordStore) Write(ctx context.Context, record crawler.Record) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("record store is not configured")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (item_name, description, new_price, discount_percent, old_price, link_page)
VALUES (:item_name, :description, :new_price, :discount_percent, :old_price, :link_page)`, s.table)
	if _, err := s.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Close releases the connection.
func (s *RecordStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close mysql: %w", err)
	}
	return nil
}
