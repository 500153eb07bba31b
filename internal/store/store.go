package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mxsrc/oppsql/internal/schema"
)

// Store is a handle on one result database.
// It is safe for concurrent use; each query should run on its own
// connection obtained from Conn.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing result database read-only.
//
// The file must exist; Open never creates one. The connection is verified
// with a ping so a missing or unreadable file fails here rather than on the
// first query.
func Open(path string) (*Store, error) {
	return open(path, "ro")
}

// Create creates (or opens) a result database read-write and applies the
// catalog DDL. It is intended for building fixtures; analysis code should
// use Open.
//
// This function is idempotent - safe to call multiple times.
func Create(path string) (*Store, error) {
	s, err := open(path, "rwc")
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(schema.DDL()); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

func open(path, mode string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path, mode))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}

	return &Store{db: db, path: path}, nil
}

// dsn builds a go-sqlite3 URI. Pragmas are passed as DSN parameters so every
// pooled connection gets them, not only the first one. The path is
// percent-encoded: SQLite reads ?, # and % in a file: URI as syntax.
func dsn(path, mode string) string {
	params := url.Values{}
	params.Set("mode", mode)
	params.Set("_busy_timeout", "5000")
	params.Set("_foreign_keys", "on")
	u := url.URL{Scheme: "file", Path: path, RawQuery: params.Encode()}
	return u.String()
}

// Close closes the database.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Conn acquires a dedicated connection from the pool.
// The caller must Close it to return it to the pool.
func (s *Store) Conn(ctx context.Context) (*sql.Conn, error) {
	return s.db.Conn(ctx)
}

// MissingTables returns the catalog tables absent from the database, in
// catalog order. An empty result means the file carries the full schema.
func (s *Store) MissingTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master WHERE type = 'table'
	`)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	missing := []string{}
	for _, t := range schema.Tables() {
		if !present[t.Name] {
			missing = append(missing, t.Name)
		}
	}
	return missing, nil
}
