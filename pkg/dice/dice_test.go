package dice

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/combin"
)

func TestOutcomes_SingleDie(t *testing.T) {
	outs := Outcomes(1)
	if len(outs) != 6 {
		t.Fatalf("expected 6 outcomes for one die, got %d", len(outs))
	}
	for i, o := range outs {
		if math.Abs(o.P-1.0/6.0) > 1e-15 {
			t.Errorf("outcome %d: expected probability 1/6, got %v", i, o.P)
		}
		if o.Counts.Total() != 1 {
			t.Errorf("outcome %d: expected one die, got %d", i, o.Counts.Total())
		}
	}
	var ev float64
	for _, o := range outs {
		ev += o.P * float64(o.Counts.Sum())
	}
	if math.Abs(ev-3.5) > 1e-12 {
		t.Errorf("expected single-die EV 3.5, got %v", ev)
	}
}

func TestOutcomes_ZeroDice(t *testing.T) {
	outs := Outcomes(0)
	if len(outs) != 1 {
		t.Fatalf("expected a single empty outcome, got %d", len(outs))
	}
	if outs[0].P != 1 {
		t.Errorf("expected probability 1, got %v", outs[0].P)
	}
	if outs[0].Counts.Total() != 0 {
		t.Errorf("expected zero dice, got %d", outs[0].Counts.Total())
	}
}

func TestOutcomes_ProbabilitiesSumToOne(t *testing.T) {
	for k := 0; k <= 5; k++ {
		var sum float64
		for _, o := range Outcomes(k) {
			sum += o.P
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("k=%d: expected probabilities to sum to 1, got %v", k, sum)
		}
	}
}

func TestOutcomes_CountMatchesMultisets(t *testing.T) {
	for k := 1; k <= 5; k++ {
		want := combin.Binomial(k+5, 5)
		if got := len(Outcomes(k)); got != want {
			t.Errorf("k=%d: expected %d outcomes, got %d", k, want, got)
		}
	}
}

func TestOutcomes_TotalsMatchDraw(t *testing.T) {
	for k := 1; k <= 5; k++ {
		for _, o := range Outcomes(k) {
			if o.Counts.Total() != k {
				t.Errorf("k=%d: outcome %v totals %d dice", k, o.Counts, o.Counts.Total())
			}
		}
	}
}

func TestOutcomes_MultinomialWeights(t *testing.T) {
	outs := Outcomes(2)
	cases := []struct {
		counts Counts
		p      float64
	}{
		{FromDice(1, 1), 1.0 / 36.0},
		{FromDice(1, 2), 2.0 / 36.0},
		{FromDice(3, 6), 2.0 / 36.0},
	}
	for _, c := range cases {
		found := false
		for _, o := range outs {
			if o.Counts == c.counts {
				found = true
				if math.Abs(o.P-c.p) > 1e-15 {
					t.Errorf("outcome %v: expected probability %v, got %v", c.counts, c.p, o.P)
				}
			}
		}
		if !found {
			t.Errorf("outcome %v not enumerated", c.counts)
		}
	}
}

func TestOutcomes_SharedAcrossCalls(t *testing.T) {
	a := Outcomes(3)
	b := Outcomes(3)
	if &a[0] != &b[0] {
		t.Error("expected memoized outcomes to share backing storage")
	}
}

func TestCounts_Sums(t *testing.T) {
	c := FromDice(1, 2, 2, 6)
	if got := c.Total(); got != 4 {
		t.Errorf("expected total 4, got %d", got)
	}
	if got := c.Sum(); got != 11 {
		t.Errorf("expected sum 11, got %d", got)
	}
	if got := c.SumLowest(2); got != 3 {
		t.Errorf("expected two lowest to sum 3, got %d", got)
	}
	if got := c.SumHighest(2); got != 8 {
		t.Errorf("expected two highest to sum 8, got %d", got)
	}
	if got := c.SumLowest(4); got != 11 {
		t.Errorf("expected all four lowest to sum 11, got %d", got)
	}
	if got := c.String(); got != "1 2 2 6" {
		t.Errorf("expected %q, got %q", "1 2 2 6", got)
	}
}
