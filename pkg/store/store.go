// Package store keeps a history of connectivity check runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/OpenTraceLab/OpenTraceDRC/pkg/connectivity"
	"github.com/OpenTraceLab/OpenTraceDRC/pkg/report"

	_ "modernc.org/sqlite"
)

// Run is one recorded check of one input.
type Run struct {
	ID           int64     `json:"id" yaml:"id"`
	Source       string    `json:"source" yaml:"source"`
	CheckedAt    time.Time `json:"checked_at" yaml:"checked_at"`
	OK           bool      `json:"ok" yaml:"ok"`
	ErrorCount   int       `json:"error_count" yaml:"error_count"`
	Ports        int       `json:"ports" yaml:"ports"`
	Traces       int       `json:"traces" yaml:"traces"`
	Requirements int       `json:"requirements" yaml:"requirements"`
	Failure      string    `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// Store implements run history using SQLite
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	PRAGMA foreign_keys = ON;
	PRAGMA busy_timeout = 5000;

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		checked_at INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		error_count INTEGER NOT NULL DEFAULT 0,
		ports INTEGER NOT NULL DEFAULT 0,
		traces INTEGER NOT NULL DEFAULT 0,
		requirements INTEGER NOT NULL DEFAULT 0,
		failure TEXT
	);

	CREATE TABLE IF NOT EXISTS run_errors (
		run_id INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		message TEXT NOT NULL,
		pcb_port_id TEXT NOT NULL,
		pcb_trace_id TEXT,
		source_trace_ids JSON,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordRun stores a check result and its errors, returning the run ID.
func (s *Store) RecordRun(ctx context.Context, result report.Result, at time.Time) (int64, error) {
	assert.NotEmpty(ctx, result.Source, "run source must be set")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (source, checked_at, ok, error_count, ports, traces, requirements, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, result.Source, at.UnixNano(), boolToInt(result.OK), len(result.Errors),
		result.Summary.Ports, result.Summary.Traces, result.Summary.Requirements,
		stringToNull(result.Failure))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_errors (run_id, seq, kind, message, pcb_port_id, pcb_trace_id, source_trace_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare error insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range result.Errors {
		groups, err := json.Marshal(e.SourceTraceIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal source trace ids: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, i, string(e.Kind), e.Message, e.PortID,
			stringToNull(e.TraceID), string(groups)); err != nil {
			return 0, fmt.Errorf("failed to insert error %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs first. An empty source lists runs of
// every input; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]Run, error) {
	query := `
		SELECT id, source, checked_at, ok, error_count, ports, traces, requirements, failure
		FROM runs
		WHERE (? = '' OR source = ?)
		ORDER BY checked_at DESC, id DESC
	`
	args := []any{source, source}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var (
			run       Run
			checkedAt int64
			ok        int
			failure   sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Source, &checkedAt, &ok, &run.ErrorCount,
			&run.Ports, &run.Traces, &run.Requirements, &failure); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.CheckedAt = time.Unix(0, checkedAt).UTC()
		run.OK = ok != 0
		run.Failure = nullToString(failure)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// RunErrors returns the errors recorded for a run, in their original order.
func (s *Store) RunErrors(ctx context.Context, runID int64) ([]connectivity.ConnectivityError, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("run %d not found", runID))
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, message, pcb_port_id, pcb_trace_id, source_trace_ids
		FROM run_errors
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run errors: %w", err)
	}
	defer rows.Close()

	errs := []connectivity.ConnectivityError{}
	for rows.Next() {
		var (
			e       connectivity.ConnectivityError
			kind    string
			traceID sql.NullString
			groups  sql.NullString
		)
		if err := rows.Scan(&kind, &e.Message, &e.PortID, &traceID, &groups); err != nil {
			return nil, fmt.Errorf("failed to scan run error: %w", err)
		}
		e.Kind = connectivity.Kind(kind)
		e.TraceID = nullToString(traceID)
		if groups.Valid && groups.String != "" && groups.String != "null" {
			if err := json.Unmarshal([]byte(groups.String), &e.SourceTraceIDs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal source trace ids: %w", err)
			}
		}
		errs = append(errs, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run errors: %w", err)
	}

	return errs, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func nullToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func stringToNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
