// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/habitbattle/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const (
	snapshotKey = "snapshot"
	// Fixed-width UTC timestamps keep lexical and chronological order equal.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps SQLite access for the snapshot and the outcome journal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The engine is the only writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS state (
			key TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY,
			task_id TEXT NOT NULL,
			title TEXT NOT NULL,
			category_id TEXT NOT NULL,
			difficulty INTEGER NOT NULL,
			kind TEXT NOT NULL,
			currency_delta INTEGER NOT NULL,
			exp_delta INTEGER NOT NULL,
			multiplier REAL NOT NULL,
			bonus_active INTEGER NOT NULL,
			window_id TEXT NOT NULL,
			occurred_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_occurred_at ON outcomes(occurred_at);`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_category ON outcomes(category_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the saved snapshot, or nil when none has been saved.
func (s *Store) Load(ctx context.Context) (*model.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM state WHERE key = ?`, snapshotKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Save replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO state (key, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		snapshotKey,
		string(payload),
		snap.SavedAt.UTC().Format(timeLayout),
	)
	return err
}

// RecordOutcome appends a finished task to the journal.
func (s *Store) RecordOutcome(ctx context.Context, o model.Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outcomes (task_id, title, category_id, difficulty, kind, currency_delta, exp_delta, multiplier, bonus_active, window_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.TaskID,
		o.Title,
		o.CategoryID,
		o.Difficulty,
		string(o.Kind),
		o.Reward.CurrencyDelta,
		o.Reward.ExperienceDelta,
		o.Reward.Multiplier,
		boolToInt(o.BonusActive),
		o.WindowID,
		o.OccurredAt.UTC().Format(timeLayout),
	)
	return err
}

// ListOutcomes returns journal rows in chronological order. Last keeps only
// the most recent rows.
func (s *Store) ListOutcomes(ctx context.Context, filter model.StatsFilter) ([]model.Outcome, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if filter.Since != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, filter.Since.UTC().Format(timeLayout))
	}
	limit := -1
	if filter.Last > 0 {
		limit = filter.Last
	}
	args = append(args, limit)
	query := fmt.Sprintf(`WITH recent AS (
		SELECT id, task_id, title, category_id, difficulty, kind, currency_delta, exp_delta, multiplier, bonus_active, window_id, occurred_at
		FROM outcomes
		WHERE %s
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	)
	SELECT task_id, title, category_id, difficulty, kind, currency_delta, exp_delta, multiplier, bonus_active, window_id, occurred_at
	FROM recent
	ORDER BY occurred_at ASC, id ASC`, strings.Join(clauses, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Outcome
	for rows.Next() {
		var o model.Outcome
		var kind, occurredAt string
		var bonus int
		if err := rows.Scan(&o.TaskID, &o.Title, &o.CategoryID, &o.Difficulty, &kind,
			&o.Reward.CurrencyDelta, &o.Reward.ExperienceDelta, &o.Reward.Multiplier,
			&bonus, &o.WindowID, &occurredAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, occurredAt)
		if err != nil {
			return nil, err
		}
		o.Kind = model.OutcomeKind(kind)
		o.BonusActive = bonus != 0
		o.OccurredAt = parsed
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CategoryAggregates sums journal rows per category. An empty ids slice
// aggregates every category.
func (s *Store) CategoryAggregates(ctx context.Context, ids []string) ([]model.CategoryAggregate, error) {
	where := "1=1"
	args := make([]any, 0, len(ids))
	if len(ids) > 0 {
		placeholders := make([]string, len(ids))
		for i, id := range ids {
			placeholders[i] = "?"
			args = append(args, id)
		}
		where = fmt.Sprintf("category_id IN (%s)", strings.Join(placeholders, ","))
	}
	query := fmt.Sprintf(`SELECT category_id,
		SUM(CASE WHEN kind = 'completed' THEN 1 ELSE 0 END) AS completed,
		SUM(CASE WHEN kind = 'failed' THEN 1 ELSE 0 END) AS failed,
		SUM(currency_delta) AS currency,
		SUM(exp_delta) AS experience
		FROM outcomes
		WHERE %s
		GROUP BY category_id
		ORDER BY category_id`, where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CategoryAggregate
	for rows.Next() {
		var agg model.CategoryAggregate
		if err := rows.Scan(&agg.CategoryID, &agg.Completed, &agg.Failed, &agg.Currency, &agg.Experience); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Reset deletes the snapshot and the journal.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM outcomes`); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
