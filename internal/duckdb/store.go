// Package duckdb records per-file pipeline results in a DuckDB run ledger.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create stats directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reconcile_results (
			run_id VARCHAR,
			file VARCHAR,
			file_size BIGINT,
			file_modtime TIMESTAMP,
			kept BIGINT,
			flipped BIGINT,
			dropped_mendel BIGINT,
			dropped_no_match BIGINT,
			total BIGINT,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sanitize_results (
			run_id VARCHAR,
			file VARCHAR,
			file_size BIGINT,
			file_modtime TIMESTAMP,
			kept BIGINT,
			dropped_chrom BIGINT,
			dropped_multiallelic BIGINT,
			dropped_no_calls BIGINT,
			dropped_contigs BIGINT,
			total BIGINT,
			recorded_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dedup_results (
			run_id VARCHAR,
			file VARCHAR,
			file_size BIGINT,
			file_modtime TIMESTAMP,
			clean BIGINT,
			duplicate BIGINT,
			duplicate_positions BIGINT,
			recorded_at TIMESTAMP
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
