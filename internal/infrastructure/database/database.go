package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	// connectTimeout bounds the post-open connectivity check.
	connectTimeout = 5 * time.Second

	// busyTimeout is how long SQLite waits on a locked database before
	// giving up. The relay's writer and the CLI's readers can overlap.
	busyTimeout = 5 * time.Second
)

// DB wraps the sql.DB handle backing the local state history store. It
// adds migration support and a health check on top of database/sql.
type DB struct {
	*sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
//
// The file is opened in WAL mode so the relay can append while the CLI
// reads, with foreign keys on and a busy timeout against lock errors.
// SQLite has a single writer, so the pool is pinned to one connection.
//
// Parameters:
//   - path: filesystem path to the SQLite file
//
// Returns:
//   - *DB: connected handle
//   - error: if the directory, open or connectivity check fails
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	connStr := fmt.Sprintf(
		"file:%s?_busy_timeout=%d&_foreign_keys=on&_journal_mode=WAL&_synchronous=NORMAL",
		path, busyTimeout.Milliseconds(),
	)
	sqlDB, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	db := &DB{DB: sqlDB, path: path}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best effort on the error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	// Token-bearing history stays owner-only. The file may not exist
	// until the first write, so a failure here is not fatal.
	_ = os.Chmod(path, filePermissions)

	return db, nil
}

// Close closes the underlying connection pool.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path of the database file.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck verifies the connection answers a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// BeginTx starts a transaction, wrapping the error for context.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
