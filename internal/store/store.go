// Package store persists evaluation runs and their records in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/crimson-sun/steady/internal/engine/metrics"
	"github.com/crimson-sun/steady/internal/model"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("store: run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TEXT NOT NULL,
	config_json  TEXT,
	summary_json TEXT
);

CREATE TABLE IF NOT EXISTS records (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	base_id       TEXT NOT NULL,
	variant_id    TEXT NOT NULL,
	text          TEXT NOT NULL,
	true_label    TEXT NOT NULL,
	strategy      TEXT NOT NULL,
	pred_label    TEXT,
	confidence    REAL,
	probabilities TEXT,
	PRIMARY KEY (run_id, seq),
	UNIQUE (run_id, base_id, variant_id),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Run describes one stored evaluation.
type Run struct {
	ID         string
	CreatedAt  time.Time
	Config     json.RawMessage
	HasSummary bool
}

// Store manages runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	for _, stmt := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON", schema} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: migrate: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run and returns its id. cfg is stored as JSON
// for provenance and may be nil.
func (s *Store) CreateRun(ctx context.Context, cfg any) (string, error) {
	var cfgJSON sql.NullString
	if cfg != nil {
		b, err := json.Marshal(cfg)
		if err != nil {
			return "", fmt.Errorf("store: marshal config: %w", err)
		}
		cfgJSON = sql.NullString{String: string(b), Valid: true}
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, created_at, config_json) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), cfgJSON)
	if err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}
	return id, nil
}

// SaveRecords replaces the run's records in one transaction. Record order
// is preserved through seq.
func (s *Store) SaveRecords(ctx context.Context, runID string, records []model.Record) error {
	if err := s.exists(ctx, runID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("store: clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (run_id, seq, base_id, variant_id, text, true_label, strategy,
		                      pred_label, confidence, probabilities)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var (
			label sql.NullString
			conf  sql.NullFloat64
			probs sql.NullString
		)
		if p := r.Prediction; p != nil {
			label = sql.NullString{String: p.Label, Valid: true}
			conf = sql.NullFloat64{Float64: p.Confidence, Valid: true}
			if p.Probabilities != nil {
				b, err := json.Marshal(p.Probabilities)
				if err != nil {
					return fmt.Errorf("store: marshal probabilities for %s: %w", r.Key(), err)
				}
				probs = sql.NullString{String: string(b), Valid: true}
			}
		}
		_, err := stmt.ExecContext(ctx, runID, i, r.BaseID, r.VariantID, r.Text, r.TrueLabel, r.Strategy,
			label, conf, probs)
		if err != nil {
			return fmt.Errorf("store: insert record %s: %w", r.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// LoadRecords returns the run's records in saved order.
func (s *Store) LoadRecords(ctx context.Context, runID string) ([]model.Record, error) {
	if err := s.exists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT base_id, variant_id, text, true_label, strategy, pred_label, confidence, probabilities
		 FROM records WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			r     model.Record
			label sql.NullString
			conf  sql.NullFloat64
			probs sql.NullString
		)
		if err := rows.Scan(&r.BaseID, &r.VariantID, &r.Text, &r.TrueLabel, &r.Strategy, &label, &conf, &probs); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		if label.Valid {
			r.Prediction = &model.Prediction{Label: label.String, Confidence: conf.Float64}
			if probs.Valid {
				if err := json.Unmarshal([]byte(probs.String), &r.Prediction.Probabilities); err != nil {
					return nil, fmt.Errorf("store: decode probabilities for %s: %w", r.Key(), err)
				}
			}
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate records: %w", err)
	}
	return out, nil
}

// SaveSummary stores the run's metric summary.
func (s *Store) SaveSummary(ctx context.Context, runID string, summary metrics.Summary) error {
	b, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("store: marshal summary: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE runs SET summary_json = ? WHERE run_id = ?`, string(b), runID)
	if err != nil {
		return fmt.Errorf("store: update summary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// LoadSummary returns the stored summary. ok is false when the run has no
// summary yet.
func (s *Store) LoadSummary(ctx context.Context, runID string) (summary metrics.Summary, ok bool, err error) {
	var raw sql.NullString
	err = s.db.QueryRowContext(ctx, `SELECT summary_json FROM runs WHERE run_id = ?`, runID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return summary, false, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return summary, false, fmt.Errorf("store: query summary: %w", err)
	}
	if !raw.Valid {
		return summary, false, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &summary); err != nil {
		return summary, false, fmt.Errorf("store: decode summary: %w", err)
	}
	return summary, true, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, created_at, config_json, summary_json IS NOT NULL
		 FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run     Run
			created string
			cfg     sql.NullString
		)
		if err := rows.Scan(&run.ID, &created, &cfg, &run.HasSummary); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		run.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("store: parse created_at: %w", err)
		}
		if cfg.Valid {
			run.Config = json.RawMessage(cfg.String)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (s *Store) exists(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE run_id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("store: lookup run: %w", err)
	}
	return nil
}
