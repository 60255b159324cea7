// Package solver implements exact backward induction for press-your-luck
// dice games. A game exposes its states, rolls and actions through the
// Game interface; the solver explores every reachable state, buckets the
// states into levels, and solves each level in parallel once all lower
// levels are final. All probabilities are exact; nothing is sampled.
package solver

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// Action is one legal choice at a post-roll state. Gain is the action's
// deterministic immediate contribution to the final score; Next is the
// pre-roll successor state unless End marks the game as over.
type Action[S comparable] struct {
	Code int
	Gain float64
	Next S
	End  bool
}

// Game describes one dice event to the solver. States are pre-roll
// decision points; the solver pairs each with every possible roll and
// asks for the feasible actions.
type Game[S comparable] interface {
	// Entry returns the initial pre-roll state.
	Entry() S
	// Terminal reports whether s ends the game before any roll, and the
	// fixed score it then yields.
	Terminal(s S) (score float64, ok bool)
	// Draw returns the number of dice rolled at a non-terminal s.
	Draw(s S) int
	// Level assigns s a solve order; every action edge must lead to a
	// strictly lower level.
	Level(s S) int
	// Actions enumerates the feasible actions at s for a given roll,
	// canonical default first. Infeasible actions must be omitted
	// entirely, and a non-terminal state must always keep at least one
	// feasible action.
	Actions(s S, roll dice.Counts) []Action[S]
}

// Decision records one candidate action's value at a post-roll state.
type Decision struct {
	Code  int
	Value Moments
}

// Entry is the policy record for a single post-roll state: the pre-roll
// state, the roll, the chosen action with its moments, and the values of
// every candidate in enumeration order.
type Entry[S comparable] struct {
	State   S
	Roll    dice.Counts
	Choice  int
	Value   Moments
	Options []Decision
}

// Result bundles a completed solve.
type Result[S comparable] struct {
	// Root holds the entry state's moments: the value of optimal play.
	Root Moments
	// Values maps every reachable pre-roll state to its moments.
	Values map[S]Moments
	// Entries lists one policy record per reachable post-roll state,
	// ordered by level ascending, then state discovery order, then
	// outcome enumeration order. The order is identical for any worker
	// count.
	Entries []Entry[S]
	// Levels and States describe the explored graph.
	Levels int
	States int
}

// Solver runs level-synchronous backward induction over one Game.
// Each instance owns its memo table; nothing survives a Run.
type Solver[S comparable] struct {
	game    Game[S]
	workers int
}

// New returns a Solver that splits each level across the given number of
// workers; values below 1 fall back to runtime.NumCPU().
func New[S comparable](g Game[S], workers int) *Solver[S] {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Solver[S]{game: g, workers: workers}
}

// Run explores every state reachable from the entry state, then solves
// the levels lowest-first so each state's successors are final before it
// is evaluated. The per-state arithmetic has a fixed order, and per-level
// results merge in discovery order, so repeated runs produce bit-identical
// moments and choices.
func (s *Solver[S]) Run(ctx context.Context) (*Result[S], error) {
	order, err := s.explore()
	if err != nil {
		return nil, err
	}

	// Bucket by level, keeping discovery order within each bucket.
	buckets := make(map[int][]S)
	for _, st := range order {
		lv := s.game.Level(st)
		buckets[lv] = append(buckets[lv], st)
	}
	levels := make([]int, 0, len(buckets))
	for lv := range buckets {
		levels = append(levels, lv)
	}
	sort.Ints(levels)

	res := &Result[S]{
		Values: make(map[S]Moments, len(order)),
		Levels: len(levels),
		States: len(order),
	}
	for _, lv := range levels {
		if err := s.solveLevel(ctx, lv, buckets[lv], res); err != nil {
			return nil, err
		}
	}
	res.Root = res.Values[s.game.Entry()]
	return res, nil
}

// explore walks forward from the entry state across feasible actions,
// recording states in discovery order and rejecting edges that do not
// strictly decrease the level.
func (s *Solver[S]) explore() ([]S, error) {
	entry := s.game.Entry()
	order := []S{entry}
	seen := map[S]bool{entry: true}

	for i := 0; i < len(order); i++ {
		st := order[i]
		if _, done := s.game.Terminal(st); done {
			continue
		}
		lv := s.game.Level(st)
		for _, o := range dice.Outcomes(s.game.Draw(st)) {
			acts := s.game.Actions(st, o.Counts)
			if len(acts) == 0 {
				return nil, fmt.Errorf("no feasible action at state %v roll [%v]", st, o.Counts)
			}
			for _, a := range acts {
				if a.End {
					continue
				}
				if nl := s.game.Level(a.Next); nl >= lv {
					return nil, fmt.Errorf("level order violated: %v (level %d) -> %v (level %d)", st, lv, a.Next, nl)
				}
				if !seen[a.Next] {
					seen[a.Next] = true
					order = append(order, a.Next)
				}
			}
		}
	}
	return order, nil
}

// solved carries one state's results from a worker back to the merge step.
type solved[S comparable] struct {
	state   S
	moments Moments
	entries []Entry[S]
}

// solveLevel evaluates one level's states on parallel workers. Workers
// only read Values (lower levels, already final) and write into disjoint
// chunk slices; the sequential merge afterwards is the sole writer of
// Values and Entries, which keeps the output order fixed.
func (s *Solver[S]) solveLevel(ctx context.Context, level int, states []S, res *Result[S]) error {
	chunks := s.workers
	if chunks > len(states) {
		chunks = len(states)
	}
	size := (len(states) + chunks - 1) / chunks
	out := make([][]solved[S], chunks)

	g, ctx := errgroup.WithContext(ctx)
	for c := 0; c < chunks; c++ {
		c := c
		lo := c * size
		if lo >= len(states) {
			break
		}
		hi := min(lo+size, len(states))
		g.Go(func() error {
			part := make([]solved[S], 0, hi-lo)
			for _, st := range states[lo:hi] {
				if err := ctx.Err(); err != nil {
					return err
				}
				sv, err := s.solveState(st, res.Values)
				if err != nil {
					return err
				}
				part = append(part, sv)
			}
			out[c] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, part := range out {
		for _, sv := range part {
			res.Values[sv.state] = sv.moments
			res.Entries = append(res.Entries, sv.entries...)
		}
	}
	log.Debug().Int("level", level).Int("states", len(states)).Msg("level solved")
	return nil
}

// solveState evaluates one pre-roll state against the already-final
// moments of lower levels: for each roll it values every candidate
// action, picks the winner under the tie-break law, and accumulates the
// probability-weighted moments of the winners.
func (s *Solver[S]) solveState(st S, values map[S]Moments) (solved[S], error) {
	if score, done := s.game.Terminal(st); done {
		return solved[S]{state: st, moments: Terminal(score)}, nil
	}

	var agg Moments
	outs := dice.Outcomes(s.game.Draw(st))
	entries := make([]Entry[S], 0, len(outs))
	for _, o := range outs {
		acts := s.game.Actions(st, o.Counts)
		if len(acts) == 0 {
			return solved[S]{}, fmt.Errorf("no feasible action at state %v roll [%v]", st, o.Counts)
		}

		options := make([]Decision, len(acts))
		best := 0
		for i, a := range acts {
			var tail Moments
			if !a.End {
				m, ok := values[a.Next]
				if !ok {
					return solved[S]{}, fmt.Errorf("successor %v of %v not solved", a.Next, st)
				}
				tail = m
			}
			options[i] = Decision{Code: a.Code, Value: tail.Shift(a.Gain)}
			if i > 0 && Preferred(options[i].Value, options[best].Value) {
				best = i
			}
		}

		chosen := options[best]
		agg.EV += o.P * chosen.Value.EV
		agg.E2 += o.P * chosen.Value.E2
		entries = append(entries, Entry[S]{
			State:   st,
			Roll:    o.Counts,
			Choice:  chosen.Code,
			Value:   chosen.Value,
			Options: options,
		})
	}
	return solved[S]{state: st, moments: agg, entries: entries}, nil
}
