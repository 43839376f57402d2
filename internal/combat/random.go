package combat

import "math/rand/v2"

// Random is the source of every draw the resolver and report make.
type Random interface {
	// Uniform returns a value in [lo, hi].
	Uniform(lo, hi float64) float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

type mathRandom struct{}

// NewRandom returns the process-wide pseudo random source.
func NewRandom() Random {
	return mathRandom{}
}

func (mathRandom) Uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

func (mathRandom) Intn(n int) int {
	return rand.IntN(n)
}
