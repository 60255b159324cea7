package solver

import "math"

// TieEpsilon is the expected-value tolerance inside which two actions are
// considered tied and compared by variance instead. The value is part of
// the policy contract: changing it changes which action wins in near-tie
// states.
const TieEpsilon = 1e-12

// Moments holds the first and second raw moments of a score distribution.
type Moments struct {
	EV float64 // expected value
	E2 float64 // second raw moment E[X²]
}

// Terminal returns the moments of a fixed, deterministic score.
func Terminal(score float64) Moments {
	return Moments{EV: score, E2: score * score}
}

// Shift returns the moments of c+X for a deterministic contribution c and
// a score X distributed with moments m. The second moment expands exactly:
// E[(c+X)²] = c² + 2cE[X] + E[X²]. Variances of the two parts cannot
// simply be added because the contribution and the tail are realized on
// the same play-through.
func (m Moments) Shift(c float64) Moments {
	return Moments{
		EV: c + m.EV,
		E2: c*c + 2*c*m.EV + m.E2,
	}
}

// Variance returns E[X²]−E[X]², clamped at zero to absorb floating-point
// cancellation when the true variance is at or near zero.
func (m Moments) Variance() float64 {
	v := m.E2 - m.EV*m.EV
	if v < 0 {
		return 0
	}
	return v
}

// SD returns the standard deviation.
func (m Moments) SD() float64 {
	return math.Sqrt(m.Variance())
}

// Preferred reports whether a challenger action should replace the
// incumbent. Expected values within TieEpsilon count as tied and the
// lower variance wins; outside the tie the higher expected value wins.
// On a full tie the incumbent, the earlier-enumerated canonical action,
// stands. The comparison order is part of the policy contract.
func Preferred(challenger, incumbent Moments) bool {
	if math.Abs(challenger.EV-incumbent.EV) < TieEpsilon {
		return challenger.Variance() < incumbent.Variance()
	}
	return challenger.EV > incumbent.EV
}
