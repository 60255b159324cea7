// Package dice enumerates outcomes of rolling pools of fair six-sided
// dice with exact probabilities. Rolls are unordered: an outcome is the
// count of dice showing each face, and its probability is the multinomial
// coefficient over 6^k.
package dice

import (
	"fmt"
	"strings"
	"sync"

	"gonum.org/v1/gonum/stat/combin"
)

// Faces is the number of sides on a die.
const Faces = 6

// Counts records how many rolled dice show each face, indexed by face-1.
type Counts [Faces]int

// FromDice builds a Counts from individual die faces (each 1..6).
func FromDice(faces ...int) Counts {
	var c Counts
	for _, f := range faces {
		if f < 1 || f > Faces {
			panic(fmt.Sprintf("dice: face %d out of range", f))
		}
		c[f-1]++
	}
	return c
}

// Total returns the number of dice described by c.
func (c Counts) Total() int {
	t := 0
	for _, n := range c {
		t += n
	}
	return t
}

// Sum returns the pip total across all dice described by c.
func (c Counts) Sum() int {
	s := 0
	for face, n := range c {
		s += (face + 1) * n
	}
	return s
}

// SumLowest returns the pip total of the n lowest-valued dice.
func (c Counts) SumLowest(n int) int {
	s := 0
	for face := 0; face < Faces && n > 0; face++ {
		take := c[face]
		if take > n {
			take = n
		}
		s += (face + 1) * take
		n -= take
	}
	return s
}

// SumHighest returns the pip total of the n highest-valued dice.
func (c Counts) SumHighest(n int) int {
	s := 0
	for face := Faces - 1; face >= 0 && n > 0; face-- {
		take := c[face]
		if take > n {
			take = n
		}
		s += (face + 1) * take
		n -= take
	}
	return s
}

// String renders the dice in ascending face order, e.g. "1 2 2 6".
func (c Counts) String() string {
	var b strings.Builder
	for face := 0; face < Faces; face++ {
		for i := 0; i < c[face]; i++ {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteByte(byte('1' + face))
		}
	}
	return b.String()
}

// Outcome pairs an outcome vector with its exact probability.
type Outcome struct {
	Counts Counts
	P      float64
}

var (
	outcomesMu    sync.Mutex
	outcomesCache = map[int][]Outcome{}
)

// Outcomes returns every distinct unordered outcome of rolling k dice,
// each with probability multinomial(k; counts)/6^k. The enumeration order
// is fixed: the count of face 1 descends first, then face 2, and so on.
// Results are computed once per k and shared; callers must not modify
// the returned slice. Outcomes(0) is a single empty outcome with
// probability 1.
func Outcomes(k int) []Outcome {
	if k < 0 {
		panic(fmt.Sprintf("dice: negative draw size %d", k))
	}
	outcomesMu.Lock()
	defer outcomesMu.Unlock()
	if out, ok := outcomesCache[k]; ok {
		return out
	}
	out := enumerate(k)
	outcomesCache[k] = out
	return out
}

func enumerate(k int) []Outcome {
	total := 1
	for i := 0; i < k; i++ {
		total *= Faces
	}

	out := make([]Outcome, 0, combin.Binomial(k+Faces-1, Faces-1))
	var counts Counts
	var rec func(face, left int)
	rec = func(face, left int) {
		if face == Faces-1 {
			counts[face] = left
			out = append(out, Outcome{Counts: counts, P: probability(k, counts, total)})
			counts[face] = 0
			return
		}
		for n := left; n >= 0; n-- {
			counts[face] = n
			rec(face+1, left-n)
			counts[face] = 0
		}
	}
	rec(0, k)
	return out
}

// probability computes multinomial(k; c)/total with the coefficient built
// as a product of binomials, which stays in integer range for small pools.
func probability(k int, c Counts, total int) float64 {
	ways := 1
	rem := k
	for _, n := range c {
		ways *= combin.Binomial(rem, n)
		rem -= n
	}
	return float64(ways) / float64(total)
}
