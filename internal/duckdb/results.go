package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/trioprep/internal/dedup"
	"github.com/inodb/trioprep/internal/reconcile"
	"github.com/inodb/trioprep/internal/sanitize"
)

// ReconcileResult is one reconciled sample file.
type ReconcileResult struct {
	RunID  string
	File   FileFingerprint
	Counts reconcile.Counts
}

// SanitizeResult is one sanitized liftover file.
type SanitizeResult struct {
	RunID  string
	File   FileFingerprint
	Counts sanitize.Counts
}

// DedupResult is one deduplicated file.
type DedupResult struct {
	RunID  string
	File   FileFingerprint
	Counts dedup.Counts
}

// RunSummary aggregates the reconcile results of one run.
type RunSummary struct {
	RunID          string
	Files          int
	Kept           int
	Flipped        int
	DroppedMendel  int
	DroppedNoMatch int
	Total          int
}

// modTime returns a NULL-able modification time for the appender.
func modTime(fp FileFingerprint) driver.Value {
	if fp.ModTime.IsZero() {
		return nil
	}
	return fp.ModTime.UTC()
}

// WriteReconcileResults batch-inserts reconcile results using the Appender API.
func (s *Store) WriteReconcileResults(results []ReconcileResult) error {
	now := time.Now().UTC()
	rows := make([][]driver.Value, 0, len(results))
	for _, r := range results {
		c := r.Counts
		rows = append(rows, []driver.Value{
			r.RunID, r.File.Path, r.File.Size, modTime(r.File),
			int64(c.Kept), int64(c.Flipped), int64(c.DroppedMendel), int64(c.DroppedNoMatch),
			int64(c.Total()), now,
		})
	}
	return s.appendRows("reconcile_results", rows)
}

// WriteSanitizeResults batch-inserts sanitize results using the Appender API.
func (s *Store) WriteSanitizeResults(results []SanitizeResult) error {
	now := time.Now().UTC()
	rows := make([][]driver.Value, 0, len(results))
	for _, r := range results {
		c := r.Counts
		rows = append(rows, []driver.Value{
			r.RunID, r.File.Path, r.File.Size, modTime(r.File),
			int64(c.Kept), int64(c.DroppedChrom), int64(c.DroppedMulti), int64(c.DroppedNoCalls),
			int64(c.DroppedContigs), int64(c.Total()), now,
		})
	}
	return s.appendRows("sanitize_results", rows)
}

// WriteDedupResults batch-inserts dedup results using the Appender API.
func (s *Store) WriteDedupResults(results []DedupResult) error {
	now := time.Now().UTC()
	rows := make([][]driver.Value, 0, len(results))
	for _, r := range results {
		c := r.Counts
		rows = append(rows, []driver.Value{
			r.RunID, r.File.Path, r.File.Size, modTime(r.File),
			int64(c.Clean), int64(c.Duplicate), int64(c.Positions), now,
		})
	}
	return s.appendRows("dedup_results", rows)
}

// appendRows writes rows to table through a DuckDB appender.
func (s *Store) appendRows(table string, rows [][]driver.Value) error {
	if len(rows) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, row := range rows {
		if err := appender.AppendRow(row...); err != nil {
			return fmt.Errorf("append %s row: %w", table, err)
		}
	}

	return appender.Flush()
}

// runFilter returns the WHERE clause restricting a query to one run.
func runFilter(runID string) (string, []any) {
	if runID == "" {
		return "", nil
	}
	return " WHERE run_id = ?", []any{runID}
}

// ReconcileResults returns the reconcile results of a run, or of all runs
// when runID is empty, ordered by file.
func (s *Store) ReconcileResults(runID string) ([]ReconcileResult, error) {
	where, args := runFilter(runID)
	rows, err := s.db.Query(`SELECT
		run_id, file, file_size, file_modtime,
		kept, flipped, dropped_mendel, dropped_no_match
		FROM reconcile_results`+where+`
		ORDER BY run_id, file`, args...)
	if err != nil {
		return nil, fmt.Errorf("query reconcile results: %w", err)
	}
	defer rows.Close()

	var results []ReconcileResult
	for rows.Next() {
		var r ReconcileResult
		var mt sql.NullTime
		if err := rows.Scan(
			&r.RunID, &r.File.Path, &r.File.Size, &mt,
			&r.Counts.Kept, &r.Counts.Flipped, &r.Counts.DroppedMendel, &r.Counts.DroppedNoMatch,
		); err != nil {
			return nil, fmt.Errorf("scan reconcile result: %w", err)
		}
		if mt.Valid {
			r.File.ModTime = mt.Time
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reconcile results: %w", err)
	}
	return results, nil
}

// DedupResults returns the dedup results of a run, or of all runs when
// runID is empty, ordered by file.
func (s *Store) DedupResults(runID string) ([]DedupResult, error) {
	where, args := runFilter(runID)
	rows, err := s.db.Query(`SELECT
		run_id, file, file_size, file_modtime,
		clean, duplicate, duplicate_positions
		FROM dedup_results`+where+`
		ORDER BY run_id, file`, args...)
	if err != nil {
		return nil, fmt.Errorf("query dedup results: %w", err)
	}
	defer rows.Close()

	var results []DedupResult
	for rows.Next() {
		var r DedupResult
		var mt sql.NullTime
		if err := rows.Scan(
			&r.RunID, &r.File.Path, &r.File.Size, &mt,
			&r.Counts.Clean, &r.Counts.Duplicate, &r.Counts.Positions,
		); err != nil {
			return nil, fmt.Errorf("scan dedup result: %w", err)
		}
		if mt.Valid {
			r.File.ModTime = mt.Time
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dedup results: %w", err)
	}
	return results, nil
}

// SanitizeResults returns the sanitize results of a run, or of all runs
// when runID is empty, ordered by file.
func (s *Store) SanitizeResults(runID string) ([]SanitizeResult, error) {
	where, args := runFilter(runID)
	rows, err := s.db.Query(`SELECT
		run_id, file, file_size, file_modtime,
		kept, dropped_chrom, dropped_multiallelic, dropped_no_calls, dropped_contigs
		FROM sanitize_results`+where+`
		ORDER BY run_id, file`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sanitize results: %w", err)
	}
	defer rows.Close()

	var results []SanitizeResult
	for rows.Next() {
		var r SanitizeResult
		var mt sql.NullTime
		if err := rows.Scan(
			&r.RunID, &r.File.Path, &r.File.Size, &mt,
			&r.Counts.Kept, &r.Counts.DroppedChrom, &r.Counts.DroppedMulti, &r.Counts.DroppedNoCalls,
			&r.Counts.DroppedContigs,
		); err != nil {
			return nil, fmt.Errorf("scan sanitize result: %w", err)
		}
		if mt.Valid {
			r.File.ModTime = mt.Time
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sanitize results: %w", err)
	}
	return results, nil
}

// RunSummaries aggregates reconcile results per run, oldest run first.
func (s *Store) RunSummaries() ([]RunSummary, error) {
	rows, err := s.db.Query(`SELECT
		run_id, COUNT(*)::BIGINT,
		SUM(kept)::BIGINT, SUM(flipped)::BIGINT, SUM(dropped_mendel)::BIGINT, SUM(dropped_no_match)::BIGINT, SUM(total)::BIGINT
		FROM reconcile_results
		GROUP BY run_id
		ORDER BY MIN(recorded_at), run_id`)
	if err != nil {
		return nil, fmt.Errorf("query run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var rs RunSummary
		if err := rows.Scan(
			&rs.RunID, &rs.Files,
			&rs.Kept, &rs.Flipped, &rs.DroppedMendel, &rs.DroppedNoMatch, &rs.Total,
		); err != nil {
			return nil, fmt.Errorf("scan run summary: %w", err)
		}
		summaries = append(summaries, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run summaries: %w", err)
	}
	return summaries, nil
}
