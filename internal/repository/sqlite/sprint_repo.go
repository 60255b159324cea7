package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/repository"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// SprintRepo handles sprint_policy and sprint_meta operations.
type SprintRepo struct {
	db *sql.DB
}

// NewSprintRepo creates a SprintRepo.
func NewSprintRepo(db *sql.DB) *SprintRepo {
	return &SprintRepo{db: db}
}

// Replace rebuilds the policy and meta tables in one transaction.
// set1_score is NULL on first-set rows; the reroll moment columns are
// NULL when the budget is exhausted.
func (r *SprintRepo) Replace(ctx context.Context, rows []model.SprintRow, summary model.Summary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace: %w", repository.ErrWrite, err)
	}
	defer tx.Rollback()

	ddl := []string{
		`DROP TABLE IF EXISTS sprint_policy`,
		`DROP TABLE IF EXISTS sprint_meta`,
		`CREATE TABLE sprint_policy (
			stage INTEGER NOT NULL,
			rerolls INTEGER NOT NULL,
			set1_score INTEGER,
			n1 INTEGER NOT NULL,
			n2 INTEGER NOT NULL,
			n3 INTEGER NOT NULL,
			n4 INTEGER NOT NULL,
			n5 INTEGER NOT NULL,
			n6 INTEGER NOT NULL,
			ev_freeze REAL NOT NULL,
			sd_freeze REAL NOT NULL,
			ev_reroll REAL,
			sd_reroll REAL,
			best TEXT NOT NULL,
			PRIMARY KEY (stage, rerolls, set1_score, n1, n2, n3, n4, n5, n6)
		)`,
		`CREATE TABLE sprint_meta (
			key TEXT PRIMARY KEY,
			value REAL NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create sprint tables: %w", repository.ErrSchema, err)
		}
	}

	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO sprint_policy
		 (stage, rerolls, set1_score, n1, n2, n3, n4, n5, n6,
		  ev_freeze, sd_freeze, ev_reroll, sd_reroll, best)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare policy insert: %w", repository.ErrWrite, err)
	}
	defer ins.Close()

	for _, row := range rows {
		first := sql.NullInt64{Int64: int64(row.First), Valid: row.Stage == 2}
		evr := sql.NullFloat64{Float64: row.EVReroll, Valid: row.Rerolls > 0}
		sdr := sql.NullFloat64{Float64: row.SDReroll, Valid: row.Rerolls > 0}
		c := row.Counts
		if _, err := ins.ExecContext(ctx,
			row.Stage, row.Rerolls, first, c[0], c[1], c[2], c[3], c[4], c[5],
			row.EVFreeze, row.SDFreeze, evr, sdr, row.Best,
		); err != nil {
			return fmt.Errorf("%w: insert policy row: %w", repository.ErrWrite, err)
		}
	}

	meta := []struct {
		key   string
		value float64
	}{
		{"total_ev", summary.EV},
		{"total_sd", summary.SD},
		{"states", float64(summary.States)},
		{"schema_version", float64(summary.SchemaVersion)},
	}
	for _, m := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sprint_meta (key, value) VALUES (?, ?)`, m.key, m.value); err != nil {
			return fmt.Errorf("%w: insert meta %s: %w", repository.ErrWrite, m.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit replace: %w", repository.ErrWrite, err)
	}
	return nil
}

// FirstSetPolicy returns the stored first-set decision for a roll, or
// nil when no row matches.
func (r *SprintRepo) FirstSetPolicy(ctx context.Context, rerolls int, roll dice.Counts) (*model.SprintRow, error) {
	return r.lookup(ctx, 1, rerolls, sql.NullInt64{}, roll)
}

// SecondSetPolicy returns the stored second-set decision for a roll at
// the given frozen first-set score, or nil when no row matches.
func (r *SprintRepo) SecondSetPolicy(ctx context.Context, rerolls, first int, roll dice.Counts) (*model.SprintRow, error) {
	return r.lookup(ctx, 2, rerolls, sql.NullInt64{Int64: int64(first), Valid: true}, roll)
}

func (r *SprintRepo) lookup(ctx context.Context, stage, rerolls int, first sql.NullInt64, roll dice.Counts) (*model.SprintRow, error) {
	row := model.SprintRow{Stage: stage, Rerolls: rerolls, First: int(first.Int64), Counts: roll}
	var evr, sdr sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT ev_freeze, sd_freeze, ev_reroll, sd_reroll, best FROM sprint_policy
		 WHERE stage = ? AND rerolls = ? AND set1_score IS ?
		   AND n1 = ? AND n2 = ? AND n3 = ? AND n4 = ? AND n5 = ? AND n6 = ?`,
		stage, rerolls, first, roll[0], roll[1], roll[2], roll[3], roll[4], roll[5],
	).Scan(&row.EVFreeze, &row.SDFreeze, &evr, &sdr, &row.Best)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup sprint policy: %w", err)
	}
	row.EVReroll = evr.Float64
	row.SDReroll = sdr.Float64
	return &row, nil
}

// Summary returns the meta scalars written by the last Replace.
func (r *SprintRepo) Summary(ctx context.Context) (*model.Summary, error) {
	return readSummary(ctx, r.db, "sprint_meta", "total_ev", "total_sd")
}
