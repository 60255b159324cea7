// Package repository defines the storage interfaces for precomputed
// policies and the sentinel errors that distinguish fatal failure
// classes for the solver CLIs.
package repository

import (
	"context"
	"errors"

	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// ErrSchema marks failures creating or replacing the policy tables.
var ErrSchema = errors.New("schema failure")

// ErrWrite marks failures writing policy rows or metadata.
var ErrWrite = errors.New("write failure")

// LongJumpRepository defines Long Jump policy data operations.
type LongJumpRepository interface {
	// Replace atomically swaps in a full policy: either every row and
	// the summary land, or the previous contents stay untouched.
	Replace(ctx context.Context, rows []model.LongJumpRow, summary model.Summary) error
	// RunUpPolicy looks up the stored decision for a run-up roll at the
	// given committed sum. Returns nil when no row matches.
	RunUpPolicy(ctx context.Context, sum int, roll dice.Counts) (*model.LongJumpRow, error)
	// JumpPolicy looks up the stored decision for a jump roll.
	JumpPolicy(ctx context.Context, roll dice.Counts) (*model.LongJumpRow, error)
	// Summary returns the scalar metadata written by the last Replace.
	Summary(ctx context.Context) (*model.Summary, error)
}

// SprintRepository defines 100 Metres policy data operations.
type SprintRepository interface {
	Replace(ctx context.Context, rows []model.SprintRow, summary model.Summary) error
	// FirstSetPolicy looks up the stored decision for a first-set roll.
	FirstSetPolicy(ctx context.Context, rerolls int, roll dice.Counts) (*model.SprintRow, error)
	// SecondSetPolicy looks up the stored decision for a second-set roll
	// at the given frozen first-set score.
	SecondSetPolicy(ctx context.Context, rerolls, first int, roll dice.Counts) (*model.SprintRow, error)
	Summary(ctx context.Context) (*model.Summary, error)
}
