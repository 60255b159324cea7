package decathlon

import (
	"fmt"

	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// SprintAction is the binary choice at every 100 Metres roll.
type SprintAction int

const (
	Freeze SprintAction = iota
	Reroll
)

func (a SprintAction) String() string {
	if a == Reroll {
		return "reroll"
	}
	return "freeze"
}

const (
	// SprintDice is the size of each of the two 100 Metres sets.
	SprintDice = 4
	// SprintRerolls is the reroll budget shared across both sets.
	SprintRerolls = 5
)

// SprintState is a pre-roll decision point of the 100 Metres: the set
// being rolled (1 or 2), the shared rerolls remaining, and — on the
// second set — the frozen first-set score.
type SprintState struct {
	Stage   int
	Rerolls int
	First   int
}

func (s SprintState) String() string {
	if s.Stage == 2 {
		return fmt.Sprintf("set2(rerolls %d, set1 %d)", s.Rerolls, s.First)
	}
	return fmt.Sprintf("set1(rerolls %d)", s.Rerolls)
}

// Sprint is the 100 Metres action model. Two sets of four dice share one
// reroll budget; each roll is either frozen as it lies or rerolled whole.
// Freezing the second set ends the event with total = set1 + set2.
type Sprint struct{}

// Entry returns the start of a run: the first set with the full budget.
func (Sprint) Entry() SprintState {
	return SprintState{Stage: 1, Rerolls: SprintRerolls}
}

// Terminal never fires: the event ends through the second-set freeze.
func (Sprint) Terminal(SprintState) (float64, bool) { return 0, false }

func (Sprint) Draw(SprintState) int { return SprintDice }

// Level orders second-set states below first-set states and fewer rerolls
// below more: set2(r) = r, set1(r) = 6 + r.
func (Sprint) Level(s SprintState) int {
	if s.Stage == 2 {
		return s.Rerolls
	}
	return dice.Faces + s.Rerolls
}

// SetScore values a rolled set: faces 1-5 count face value, each six
// counts -6.
func SetScore(roll dice.Counts) int {
	score := 0
	for face := 1; face < dice.Faces; face++ {
		score += face * roll[face-1]
	}
	return score - dice.Faces*roll[dice.Faces-1]
}

// Actions enumerates the two candidate moves: freeze first (the canonical
// default), then reroll while the budget lasts. Freezing the first set
// carries its score into the second; freezing the second set ends the
// event with the final total as its gain.
func (Sprint) Actions(s SprintState, roll dice.Counts) []solver.Action[SprintState] {
	score := SetScore(roll)
	freeze := solver.Action[SprintState]{
		Code: int(Freeze),
		Next: SprintState{Stage: 2, Rerolls: s.Rerolls, First: score},
	}
	if s.Stage == 2 {
		freeze = solver.Action[SprintState]{
			Code: int(Freeze),
			Gain: float64(s.First + score),
			End:  true,
		}
	}
	acts := []solver.Action[SprintState]{freeze}
	if s.Rerolls > 0 {
		acts = append(acts, solver.Action[SprintState]{
			Code: int(Reroll),
			Next: SprintState{Stage: s.Stage, Rerolls: s.Rerolls - 1, First: s.First},
		})
	}
	return acts
}
