// Package replay reconstructs exact final-score distributions by
// following a stored policy through every reachable state of a game.
// The analysis CLI and the end-to-end tests share it.
package replay

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/freeeve/dice-decathlon/internal/model"
	"github.com/freeeve/dice-decathlon/internal/repository"
	"github.com/freeeve/dice-decathlon/internal/solver"
	"github.com/freeeve/dice-decathlon/pkg/decathlon"
	"github.com/freeeve/dice-decathlon/pkg/dice"
)

// PMF maps a final score to its exact probability.
type PMF map[int]float64

// Total returns the probability mass; 1 for a complete distribution.
func (p PMF) Total() float64 {
	total := 0.0
	for _, s := range p.Support() {
		total += p[s]
	}
	return total
}

// Support returns the scores with nonzero probability, ascending.
func (p PMF) Support() []int {
	scores := make([]int, 0, len(p))
	for s := range p {
		scores = append(scores, s)
	}
	sort.Ints(scores)
	return scores
}

// Moments returns the exact mean and second raw moment.
func (p PMF) Moments() solver.Moments {
	var m solver.Moments
	for _, s := range p.Support() {
		pr := p[s]
		m.EV += pr * float64(s)
		m.E2 += pr * float64(s) * float64(s)
	}
	return m
}

// BestOf returns the distribution of the best of k independent draws,
// derived from the cumulative distribution: P(max <= s) = CDF(s)^k.
func (p PMF) BestOf(k int) PMF {
	out := make(PMF, len(p))
	cdf := 0.0
	prev := 0.0
	for _, s := range p.Support() {
		cdf += p[s]
		cur := math.Pow(cdf, float64(k))
		if mass := cur - prev; mass > 0 {
			out[s] = mass
		}
		prev = cur
	}
	return out
}

// ChooseFunc resolves one post-roll state to the stored action code.
type ChooseFunc[S comparable] func(ctx context.Context, state S, roll dice.Counts) (int, error)

// Replay walks every state reachable under the stored policy, resolving
// each roll through choose, and returns the final-score distribution.
// The chosen code must name a legal action of the game.
func Replay[S comparable](ctx context.Context, game solver.Game[S], choose ChooseFunc[S]) (PMF, error) {
	r := &replayer[S]{game: game, choose: choose, memo: make(map[S]PMF)}
	return r.state(ctx, game.Entry())
}

type replayer[S comparable] struct {
	game   solver.Game[S]
	choose ChooseFunc[S]
	memo   map[S]PMF
}

func (r *replayer[S]) state(ctx context.Context, s S) (PMF, error) {
	if p, ok := r.memo[s]; ok {
		return p, nil
	}
	if score, done := r.game.Terminal(s); done {
		p := PMF{int(score): 1}
		r.memo[s] = p
		return p, nil
	}

	out := make(PMF)
	for _, o := range dice.Outcomes(r.game.Draw(s)) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code, err := r.choose(ctx, s, o.Counts)
		if err != nil {
			return nil, err
		}
		act, ok := findAction(r.game.Actions(s, o.Counts), code)
		if !ok {
			return nil, fmt.Errorf("stored action %d is not legal at %v roll [%v]", code, s, o.Counts)
		}
		if act.End {
			out[int(act.Gain)] += o.P
			continue
		}
		child, err := r.state(ctx, act.Next)
		if err != nil {
			return nil, err
		}
		gain := int(act.Gain)
		for score, pr := range child {
			out[score+gain] += o.P * pr
		}
	}
	r.memo[s] = out
	return out, nil
}

func findAction[S comparable](acts []solver.Action[S], code int) (solver.Action[S], bool) {
	for _, a := range acts {
		if a.Code == code {
			return a, true
		}
	}
	return solver.Action[S]{}, false
}

// checkSchema rejects a policy whose stored schema version differs from
// the row contract this build reads.
func checkSchema(ctx context.Context, fetch func(context.Context) (*model.Summary, error)) error {
	summary, err := fetch(ctx)
	if err != nil {
		return err
	}
	if summary == nil || summary.SchemaVersion != model.SchemaVersion {
		return fmt.Errorf("policy schema version mismatch (want %d)", model.SchemaVersion)
	}
	return nil
}

// LongJump follows a stored Long Jump policy to the single-attempt
// score distribution. Policies written under a different schema version
// are refused.
func LongJump(ctx context.Context, repo repository.LongJumpRepository) (PMF, error) {
	if err := checkSchema(ctx, repo.Summary); err != nil {
		return nil, err
	}
	return Replay[decathlon.LongJumpState](ctx, decathlon.LongJump{},
		func(ctx context.Context, s decathlon.LongJumpState, roll dice.Counts) (int, error) {
			var row *model.LongJumpRow
			var err error
			if s.Phase == decathlon.RunUp {
				row, err = repo.RunUpPolicy(ctx, s.Sum, roll)
			} else {
				row, err = repo.JumpPolicy(ctx, roll)
			}
			if err != nil {
				return 0, err
			}
			if row == nil {
				return 0, fmt.Errorf("no policy row for %v roll [%v]", s, roll)
			}
			return row.FreezeCount, nil
		})
}

// Sprint follows a stored 100 Metres policy to the total-score
// distribution. Policies written under a different schema version are
// refused.
func Sprint(ctx context.Context, repo repository.SprintRepository) (PMF, error) {
	if err := checkSchema(ctx, repo.Summary); err != nil {
		return nil, err
	}
	return Replay[decathlon.SprintState](ctx, decathlon.Sprint{},
		func(ctx context.Context, s decathlon.SprintState, roll dice.Counts) (int, error) {
			var row *model.SprintRow
			var err error
			if s.Stage == 1 {
				row, err = repo.FirstSetPolicy(ctx, s.Rerolls, roll)
			} else {
				row, err = repo.SecondSetPolicy(ctx, s.Rerolls, s.First, roll)
			}
			if err != nil {
				return 0, err
			}
			if row == nil {
				return 0, fmt.Errorf("no policy row for %v roll [%v]", s, roll)
			}
			if row.Best == decathlon.Reroll.String() {
				return int(decathlon.Reroll), nil
			}
			return int(decathlon.Freeze), nil
		})
}
