// Package decathlon implements the dice events of Knizia's Dice Decathlon
// as action models for the backward-induction solver. Each event is a
// stateless rules type whose states, legal actions and rewards describe
// one attempt of the event.
package decathlon

import (
	"fmt"

	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// Phase identifies the rolling phase of a Long Jump attempt. The values
// are stable: they key persisted policy rows.
type Phase int

const (
	RunUp Phase = 1
	Jump  Phase = 3
)

func (p Phase) String() string {
	if p == RunUp {
		return "run-up"
	}
	return "jump"
}

const (
	// LongJumpDice is the number of dice in a Long Jump attempt.
	LongJumpDice = 5
	// RunUpCap is the highest legal run-up sum; pushing past it fouls
	// the attempt.
	RunUpCap = 8
)

// LongJumpState is a pre-roll decision point of the Long Jump. During the
// run-up, Dice counts the unfrozen dice and Sum the frozen total; during
// the jump, Dice counts the dice still to roll and Sum is zero.
type LongJumpState struct {
	Phase Phase
	Dice  int
	Sum   int
}

func (s LongJumpState) String() string {
	if s.Phase == Jump {
		return fmt.Sprintf("jump(%d)", s.Dice)
	}
	return fmt.Sprintf("run-up(%d, sum %d)", s.Dice, s.Sum)
}

// LongJump is the Long Jump action model. Five dice; the run-up freezes
// smallest faces first under the cap of 8, the jump freezes largest faces
// first for score. The attempt score is the jump sum alone: stopping the
// run-up with f dice frozen rolls those f dice for the jump, and stopping
// before freezing anything jumps with zero dice for a score of 0.
type LongJump struct{}

// Entry returns the start of an attempt: all five dice in the run-up.
func (LongJump) Entry() LongJumpState {
	return LongJumpState{Phase: RunUp, Dice: LongJumpDice}
}

// Terminal reports the end of an attempt. A jump with no dice left scores
// nothing further; a run-up sum past the cap is a foul worth zero, kept
// unreachable by the feasibility rules.
func (LongJump) Terminal(s LongJumpState) (float64, bool) {
	if s.Phase == Jump && s.Dice == 0 {
		return 0, true
	}
	if s.Phase == RunUp && s.Sum > RunUpCap {
		return 0, true
	}
	return 0, false
}

func (LongJump) Draw(s LongJumpState) int { return s.Dice }

// Level orders jump states below run-up states so every freeze and stop
// strictly descends: jump(m) = m, run-up(n) = 6 + n.
func (LongJump) Level(s LongJumpState) int {
	if s.Phase == Jump {
		return s.Dice
	}
	return dice.Faces + s.Dice
}

// Actions enumerates the legal moves for one roll. Run-up: stop first
// (the canonical default), then freeze c = 1..n smallest faces, omitting
// any freeze that would push the sum past the cap; freezing the last
// run-up die jumps with all five dice. Jump: freeze c = 1..m largest
// faces, banking their sum.
func (LongJump) Actions(s LongJumpState, roll dice.Counts) []solver.Action[LongJumpState] {
	if s.Phase == Jump {
		acts := make([]solver.Action[LongJumpState], 0, s.Dice)
		for c := 1; c <= s.Dice; c++ {
			acts = append(acts, solver.Action[LongJumpState]{
				Code: c,
				Gain: float64(roll.SumHighest(c)),
				Next: LongJumpState{Phase: Jump, Dice: s.Dice - c},
			})
		}
		return acts
	}

	acts := make([]solver.Action[LongJumpState], 0, s.Dice+1)
	acts = append(acts, solver.Action[LongJumpState]{
		Code: 0,
		Next: LongJumpState{Phase: Jump, Dice: LongJumpDice - s.Dice},
	})
	for c := 1; c <= s.Dice; c++ {
		sum := s.Sum + roll.SumLowest(c)
		if sum > RunUpCap {
			// Freezing more dice only grows the sum.
			break
		}
		next := LongJumpState{Phase: RunUp, Dice: s.Dice - c, Sum: sum}
		if c == s.Dice {
			next = LongJumpState{Phase: Jump, Dice: LongJumpDice}
		}
		acts = append(acts, solver.Action[LongJumpState]{Code: c, Next: next})
	}
	return acts
}
