// Package random provides the sampling primitives used to initialize and
// evolve networks. Every sampler draws from a single seeded source so a run
// can be reproduced exactly.
package random

import (
	"math"
	"math/rand"
	"time"
)

// Source is a seeded pseudo-random generator with the distributions the
// genetic trainer needs. It is not safe for concurrent use.
type Source struct {
	rng *rand.Rand
}

// New creates a Source seeded with the given value.
func New(seed int64) *Source {
	return &Source{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeeded creates a Source seeded from the wall clock.
func NewTimeSeeded() *Source {
	return New(time.Now().UTC().UnixNano())
}

// NewFromRand wraps an existing generator.
func NewFromRand(rng *rand.Rand) *Source {
	return &Source{rng: rng}
}

// Float returns a float in [min, max).
func (s *Source) Float(min, max float64) float64 {
	return s.rng.Float64()*(max-min) + min
}

// Int returns an integer in [min, max], both ends inclusive.
func (s *Source) Int(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return s.rng.Intn(max-min+1) + min
}

// Intn returns an integer in [0, n).
func (s *Source) Intn(n int) int {
	return s.rng.Intn(n)
}

// Bool reports true with probability p.
func (s *Source) Bool(p float64) bool {
	return s.rng.Float64() < p
}

// Sign returns -1 or +1 with equal probability.
func (s *Source) Sign() float64 {
	return Choice(s, []float64{-1, 1})
}

// Choice returns a uniformly chosen element of items. It panics on an empty slice.
func Choice[T any](s *Source, items []T) T {
	return items[s.rng.Intn(len(items))]
}

// Normal returns a standard normal sample using the Box-Muller transform.
func (s *Source) Normal() float64 {
	u := 1 - s.rng.Float64() // (0, 1], keeps the log finite
	v := s.rng.Float64()
	return math.Sqrt(-2*math.Log(u)) * math.Cos(2*math.Pi*v)
}

// SkewedNormal returns a skew-normal sample with shape alpha (Azzalini).
// Positive alpha skews right, negative left; zero is a standard normal.
func (s *Source) SkewedNormal(alpha float64) float64 {
	u0 := s.Normal()
	if alpha == 0 {
		return u0
	}
	delta := alpha / math.Sqrt(1+alpha*alpha)
	u1 := delta*u0 + math.Sqrt(1-delta*delta)*s.Normal()
	if u0 >= 0 {
		return u1
	}
	return -u1
}

// XavierLimit is the Normalized-Xavier bound sqrt(6/(n+m)) for a connection
// between layers of n and m neurons.
func XavierLimit(n, m int) float64 {
	return math.Sqrt(6 / float64(n+m))
}

// XavierUniform draws a weight uniformly from [-limit, limit) where limit is
// XavierLimit(n, m).
func (s *Source) XavierUniform(n, m int) float64 {
	limit := XavierLimit(n, m)
	return s.Float(-limit, limit)
}
