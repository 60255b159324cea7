package decathlon

import (
	"context"
	"math"
	"testing"

	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

func solveSprint(t *testing.T) *solver.Result[SprintState] {
	t.Helper()
	res, err := solver.New[SprintState](Sprint{}, 4).Run(context.Background())
	if err != nil {
		t.Fatalf("solve sprint: %v", err)
	}
	return res
}

func TestSprint_SetScore(t *testing.T) {
	tests := []struct {
		roll dice.Counts
		want int
	}{
		{dice.FromDice(1, 2, 3, 4), 10},
		{dice.FromDice(5, 5, 5, 5), 20},
		{dice.FromDice(6, 6, 6, 6), -24},
		{dice.FromDice(1, 1, 1, 6), -3},
		{dice.FromDice(6, 6, 6, 1), -17},
		{dice.FromDice(2, 3, 6, 6), -7},
	}
	for _, tt := range tests {
		if got := SetScore(tt.roll); got != tt.want {
			t.Errorf("SetScore(%v) = %d, want %d", tt.roll, got, tt.want)
		}
	}
}

func TestSprint_EntryAndLevels(t *testing.T) {
	if got, want := (Sprint{}).Entry(), (SprintState{Stage: 1, Rerolls: SprintRerolls}); got != want {
		t.Errorf("entry = %v, want %v", got, want)
	}
	tests := []struct {
		state SprintState
		want  int
	}{
		{SprintState{Stage: 2, Rerolls: 0}, 0},
		{SprintState{Stage: 2, Rerolls: 5, First: -7}, 5},
		{SprintState{Stage: 1, Rerolls: 0}, 6},
		{SprintState{Stage: 1, Rerolls: 5}, 11},
	}
	for _, tt := range tests {
		if got := (Sprint{}).Level(tt.state); got != tt.want {
			t.Errorf("Level(%v) = %d, want %d", tt.state, got, tt.want)
		}
	}
	if _, ok := (Sprint{}).Terminal(SprintState{Stage: 2}); ok {
		t.Error("no sprint state is terminal; the second-set freeze ends the event")
	}
}

func TestSprint_Actions_FirstSet(t *testing.T) {
	g := Sprint{}
	roll := dice.FromDice(1, 2, 3, 4)

	acts := g.Actions(SprintState{Stage: 1, Rerolls: 3}, roll)
	if len(acts) != 2 {
		t.Fatalf("expected freeze and reroll, got %d actions", len(acts))
	}
	if acts[0].Code != int(Freeze) || acts[0].End {
		t.Errorf("first action = %+v, want non-ending freeze", acts[0])
	}
	if want := (SprintState{Stage: 2, Rerolls: 3, First: 10}); acts[0].Next != want {
		t.Errorf("freeze leads to %v, want %v", acts[0].Next, want)
	}
	if acts[1].Code != int(Reroll) {
		t.Errorf("second action code = %d, want %d", acts[1].Code, int(Reroll))
	}
	if want := (SprintState{Stage: 1, Rerolls: 2}); acts[1].Next != want {
		t.Errorf("reroll leads to %v, want %v", acts[1].Next, want)
	}

	// Exhausted budget forces the freeze.
	acts = g.Actions(SprintState{Stage: 1, Rerolls: 0}, roll)
	if len(acts) != 1 || acts[0].Code != int(Freeze) {
		t.Fatalf("expected forced freeze, got %d actions", len(acts))
	}
}

func TestSprint_Actions_SecondSet(t *testing.T) {
	g := Sprint{}
	roll := dice.FromDice(2, 3, 6, 6)

	acts := g.Actions(SprintState{Stage: 2, Rerolls: 2, First: 15}, roll)
	if len(acts) != 2 {
		t.Fatalf("expected freeze and reroll, got %d actions", len(acts))
	}
	if !acts[0].End {
		t.Error("second-set freeze must end the event")
	}
	if want := 15.0 - 7.0; acts[0].Gain != want {
		t.Errorf("freeze gain = %v, want %v", acts[0].Gain, want)
	}
	if want := (SprintState{Stage: 2, Rerolls: 1, First: 15}); acts[1].Next != want {
		t.Errorf("reroll leads to %v, want %v", acts[1].Next, want)
	}

	acts = g.Actions(SprintState{Stage: 2, Rerolls: 0, First: -24}, roll)
	if len(acts) != 1 || !acts[0].End {
		t.Fatalf("expected forced ending freeze, got %+v", acts)
	}
}

func TestSprint_SolveNoRerollSecondSet(t *testing.T) {
	// With no rerolls left the second set is kept as it lies: EV is
	// set1 + 6 and the variance is that of four raw dice, 155/3.
	res := solveSprint(t)
	for _, s1 := range []int{-24, -10, 0, 20} {
		v, ok := res.Values[SprintState{Stage: 2, Rerolls: 0, First: s1}]
		if !ok {
			t.Fatalf("no value for second set at set1 %d", s1)
		}
		if math.Abs(v.EV-float64(s1+6)) > 1e-12 {
			t.Errorf("set1 %d: EV = %v, want %d", s1, v.EV, s1+6)
		}
		if math.Abs(v.Variance()-155.0/3.0) > 1e-9 {
			t.Errorf("set1 %d: variance = %v, want %v", s1, v.Variance(), 155.0/3.0)
		}
	}
}

func TestSprint_SolveForcedPlayValue(t *testing.T) {
	// No budget at all: both sets are kept as rolled. EV is exactly 12
	// and the two independent sets contribute 155/3 variance each.
	res := solveSprint(t)
	v := res.Values[SprintState{Stage: 1, Rerolls: 0}]
	if math.Abs(v.EV-12) > 1e-9 {
		t.Errorf("forced-play EV = %v, want 12", v.EV)
	}
	if math.Abs(v.Variance()-310.0/3.0) > 1e-9 {
		t.Errorf("forced-play variance = %v, want %v", v.Variance(), 310.0/3.0)
	}
}

func TestSprint_SolveOneRerollMatchesDirectEnumeration(t *testing.T) {
	// A second set with one reroll, checked against all 1296 ordered
	// rolls: keep any score of 6 or more, reroll the rest.
	res := solveSprint(t)
	for _, s1 := range []int{-10, 0, 13} {
		tail := res.Values[SprintState{Stage: 2, Rerolls: 0, First: s1}]

		var want solver.Moments
		for d1 := 1; d1 <= 6; d1++ {
			for d2 := 1; d2 <= 6; d2++ {
				for d3 := 1; d3 <= 6; d3++ {
					for d4 := 1; d4 <= 6; d4++ {
						score := SetScore(dice.FromDice(d1, d2, d3, d4))
						best := solver.Terminal(float64(s1 + score))
						if solver.Preferred(tail, best) {
							best = tail
						}
						want.EV += best.EV / 1296
						want.E2 += best.E2 / 1296
					}
				}
			}
		}

		got := res.Values[SprintState{Stage: 2, Rerolls: 1, First: s1}]
		if math.Abs(got.EV-want.EV) > 1e-9 || math.Abs(got.E2-want.E2) > 1e-9 {
			t.Errorf("set1 %d: one-reroll value = %+v, want %+v", s1, got, want)
		}
	}
}

func TestSprint_SolveFreezeOnSixOrBetter(t *testing.T) {
	// At one reroll in the second set the reroll is worth set1 + 6, so
	// the policy keeps any roll scoring at least 6 (the tie at exactly
	// 6 goes to the freeze on variance).
	res := solveSprint(t)
	st := SprintState{Stage: 2, Rerolls: 1}
	n := 0
	for _, e := range res.Entries {
		if e.State != st {
			continue
		}
		n++
		score := SetScore(e.Roll)
		want := int(Reroll)
		if score >= 6 {
			want = int(Freeze)
		}
		if e.Choice != want {
			t.Errorf("roll [%v] (score %d): choice = %d, want %d", e.Roll, score, e.Choice, want)
		}
	}
	if n != 126 {
		t.Errorf("expected 126 policy entries at %v, got %d", st, n)
	}
}

func TestSprint_SolveReachableFirstSetScores(t *testing.T) {
	res := solveSprint(t)
	seen := make(map[int]bool)
	stage1, stage2 := 0, 0
	for s := range res.Values {
		if s.Stage == 1 {
			stage1++
			continue
		}
		stage2++
		seen[s.First] = true
		if s.First < -24 || s.First > 20 {
			t.Errorf("set-1 score %d outside -24..20", s.First)
		}
	}

	// Four dice cannot produce these totals.
	for s1 := -23; s1 <= -18; s1++ {
		if seen[s1] {
			t.Errorf("impossible set-1 score %d reached", s1)
		}
	}
	if seen[-12] || seen[-11] {
		t.Error("impossible set-1 scores -12/-11 reached")
	}
	if len(seen) != 37 {
		t.Errorf("distinct set-1 scores = %d, want 37", len(seen))
	}
	if stage1 != 6 || stage2 != 222 {
		t.Errorf("states = %d first-set + %d second-set, want 6 + 222", stage1, stage2)
	}
}

func TestSprint_SolveCounts(t *testing.T) {
	res := solveSprint(t)
	if res.States != 228 {
		t.Errorf("states = %d, want 228", res.States)
	}
	if res.Levels != 12 {
		t.Errorf("levels = %d, want 12", res.Levels)
	}
	if len(res.Entries) != 28728 {
		t.Errorf("entries = %d, want 28728", len(res.Entries))
	}
}

func TestSprint_SolveRerollBudgetNeverHurts(t *testing.T) {
	res := solveSprint(t)
	prev := res.Values[SprintState{Stage: 1, Rerolls: 0}]
	for r := 1; r <= SprintRerolls; r++ {
		cur := res.Values[SprintState{Stage: 1, Rerolls: r}]
		if cur.EV < prev.EV-1e-12 {
			t.Errorf("EV fell from %v at %d rerolls to %v at %d", prev.EV, r-1, cur.EV, r)
		}
		prev = cur
	}
}

func TestSprint_SolveRootSanity(t *testing.T) {
	res := solveSprint(t)
	if res.Root != res.Values[Sprint{}.Entry()] {
		t.Error("root moments differ from entry state moments")
	}
	if res.Root.EV <= 12 || res.Root.EV >= 40 {
		t.Errorf("total EV = %v, want within (12, 40)", res.Root.EV)
	}
}
