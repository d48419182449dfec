package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/tgienger/tasktrack/internal/models"
)

//go:embed schema.sql
var schema string

// driverName is go-sqlite3 with utf8lower registered on every connection.
// SQLite's own LOWER and NOCASE only fold ASCII.
const driverName = "sqlite3_tasktrack"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("utf8lower", strings.ToLower, true)
		},
	})
}

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Options describes how to reach the store
type Options struct {
	// URL is a SQLite path or file: URI, optionally prefixed with sqlite://
	URL string
	// Credential is "user:password" for builds with sqlite_userauth; may be empty
	Credential string
}

// New opens the database, verifies the connection and initializes the schema
func New(ctx context.Context, opts Options) (*DB, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, &models.ValidationError{Field: "database.url", Reason: "must be set"}
	}

	db, err := sql.Open(driverName, dsn(opts))
	if err != nil {
		return nil, &models.StoreError{Op: "open", Err: err}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &models.StoreError{Op: "ping", Err: err}
	}

	// Initialize schema
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, &models.StoreError{Op: "migrate", Err: err}
	}

	return &DB{db}, nil
}

// dsn builds the go-sqlite3 connection string with foreign keys enforced
func dsn(opts Options) string {
	url := strings.TrimSpace(opts.URL)
	for _, prefix := range []string{"sqlite3://", "sqlite://"} {
		url = strings.TrimPrefix(url, prefix)
	}

	params := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	if user, pass, ok := strings.Cut(opts.Credential, ":"); ok {
		params = append(params, "_auth", "_auth_user="+user, "_auth_pass="+pass)
	}

	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + strings.Join(params, "&")
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", &models.StoreError{Op: "get setting", Err: err}
	}
	return value, nil
}

// SetSetting sets a setting value
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return &models.StoreError{Op: "set setting", Err: err}
	}
	return nil
}

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// exists reports whether a row with the given id is present in table
func exists(ctx context.Context, q queryer, table string, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// placeholders returns "?, ?, ?" for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
