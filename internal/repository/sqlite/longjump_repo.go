package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/repository"
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// LongJumpRepo handles longjump_policy and longjump_meta operations.
type LongJumpRepo struct {
	db *sql.DB
}

// NewLongJumpRepo creates a LongJumpRepo.
func NewLongJumpRepo(db *sql.DB) *LongJumpRepo {
	return &LongJumpRepo{db: db}
}

// Replace rebuilds the policy and meta tables in one transaction:
// either the new policy lands whole or the previous contents remain.
// sum_frozen is NULL on jump rows, and SQLite permits the NULL inside
// the primary key.
func (r *LongJumpRepo) Replace(ctx context.Context, rows []model.LongJumpRow, summary model.Summary) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin replace: %w", repository.ErrWrite, err)
	}
	defer tx.Rollback()

	ddl := []string{
		`DROP TABLE IF EXISTS longjump_policy`,
		`DROP TABLE IF EXISTS longjump_meta`,
		`CREATE TABLE longjump_policy (
			phase INTEGER NOT NULL,
			sum_frozen INTEGER,
			n1 INTEGER NOT NULL,
			n2 INTEGER NOT NULL,
			n3 INTEGER NOT NULL,
			n4 INTEGER NOT NULL,
			n5 INTEGER NOT NULL,
			n6 INTEGER NOT NULL,
			freeze_count INTEGER NOT NULL,
			ev REAL NOT NULL,
			sd REAL NOT NULL,
			PRIMARY KEY (phase, sum_frozen, n1, n2, n3, n4, n5, n6)
		)`,
		`CREATE TABLE longjump_meta (
			key TEXT PRIMARY KEY,
			value REAL NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create long jump tables: %w", repository.ErrSchema, err)
		}
	}

	ins, err := tx.PrepareContext(ctx,
		`INSERT INTO longjump_policy
		 (phase, sum_frozen, n1, n2, n3, n4, n5, n6, freeze_count, ev, sd)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: prepare policy insert: %w", repository.ErrWrite, err)
	}
	defer ins.Close()

	for _, row := range rows {
		sum := sql.NullInt64{Int64: int64(row.SumFrozen), Valid: row.Phase == decathlon.RunUp}
		c := row.Counts
		if _, err := ins.ExecContext(ctx,
			int(row.Phase), sum, c[0], c[1], c[2], c[3], c[4], c[5],
			row.FreezeCount, row.EV, row.SD,
		); err != nil {
			return fmt.Errorf("%w: insert policy row: %w", repository.ErrWrite, err)
		}
	}

	meta := []struct {
		key   string
		value float64
	}{
		{"attempt_ev", summary.EV},
		{"attempt_sd", summary.SD},
		{"states", float64(summary.States)},
		{"schema_version", float64(summary.SchemaVersion)},
	}
	for _, m := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO longjump_meta (key, value) VALUES (?, ?)`, m.key, m.value); err != nil {
			return fmt.Errorf("%w: insert meta %s: %w", repository.ErrWrite, m.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit replace: %w", repository.ErrWrite, err)
	}
	return nil
}

// RunUpPolicy returns the stored run-up decision for a roll at the given
// committed sum, or nil when no row matches.
func (r *LongJumpRepo) RunUpPolicy(ctx context.Context, sum int, roll dice.Counts) (*model.LongJumpRow, error) {
	return r.lookup(ctx, decathlon.RunUp, sql.NullInt64{Int64: int64(sum), Valid: true}, roll)
}

// JumpPolicy returns the stored jump decision for a roll, or nil when no
// row matches.
func (r *LongJumpRepo) JumpPolicy(ctx context.Context, roll dice.Counts) (*model.LongJumpRow, error) {
	return r.lookup(ctx, decathlon.Jump, sql.NullInt64{}, roll)
}

func (r *LongJumpRepo) lookup(ctx context.Context, phase decathlon.Phase, sum sql.NullInt64, roll dice.Counts) (*model.LongJumpRow, error) {
	row := model.LongJumpRow{Phase: phase, SumFrozen: int(sum.Int64), Counts: roll}
	err := r.db.QueryRowContext(ctx,
		`SELECT freeze_count, ev, sd FROM longjump_policy
		 WHERE phase = ? AND sum_frozen IS ?
		   AND n1 = ? AND n2 = ? AND n3 = ? AND n4 = ? AND n5 = ? AND n6 = ?`,
		int(phase), sum, roll[0], roll[1], roll[2], roll[3], roll[4], roll[5],
	).Scan(&row.FreezeCount, &row.EV, &row.SD)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup long jump policy: %w", err)
	}
	return &row, nil
}

// Summary returns the meta scalars written by the last Replace.
func (r *LongJumpRepo) Summary(ctx context.Context) (*model.Summary, error) {
	return readSummary(ctx, r.db, "longjump_meta", "attempt_ev", "attempt_sd")
}
