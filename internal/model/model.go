// Package model holds the row and summary shapes shared between the
// policy repositories and their consumers.
package model

import (
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// SchemaVersion is bumped whenever a key shape or column set changes.
const SchemaVersion = 1

// LongJumpRow is one Long Jump policy row: a post-roll state keyed by
// phase, committed run-up sum and per-face counts, with the chosen
// action and its moments.
type LongJumpRow struct {
	Phase       decathlon.Phase
	SumFrozen   int // run-up sum before the roll; ignored on jump rows
	Counts      dice.Counts
	FreezeCount int // 0 = stop (run-up only), else dice to freeze
	EV          float64
	SD          float64
}

// SprintRow is one 100 Metres policy row: a post-roll state keyed by
// stage, rerolls remaining, first-set score and per-face counts, with
// the moments of both candidate actions and the chosen one. The reroll
// moments are meaningful only when Rerolls > 0.
type SprintRow struct {
	Stage    int
	Rerolls  int
	First    int // set-1 score; ignored on first-set rows
	Counts   dice.Counts
	EVFreeze float64
	SDFreeze float64
	EVReroll float64
	SDReroll float64
	Best     string // "freeze" or "reroll"
}

// Summary holds the scalar metadata of one policy database: the entry
// state's moments, the persisted row count, and the schema version.
type Summary struct {
	EV            float64
	SD            float64
	States        int
	SchemaVersion int
}
