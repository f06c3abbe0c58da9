package sim

import "math"

// Rand is a tiny deterministic RNG (xorshift64*). The world threads one
// instance through every entity so that a seed fully determines a battle.
type Rand struct {
	s uint64
}

// NewRand returns a generator for the given seed. Seed 0 is remapped since
// xorshift cannot leave the zero state.
func NewRand(seed uint64) *Rand {
	if seed == 0 {
		seed = 1
	}
	return &Rand{s: seed}
}

func (r *Rand) NextU64() uint64 {
	x := r.s
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	r.s = x
	return x * 2685821657736338717
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.NextU64()>>11) * (1.0 / (1 << 53))
}

// Intn returns a value in [0, n). Non-positive n yields 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.NextU64() % uint64(n))
}

// Range returns a value in [min, max].
func (r *Rand) Range(min, max int) int {
	if max <= min {
		return min
	}
	return min + r.Intn(max-min+1)
}

// RangeF returns a value in [min, max).
func (r *Rand) RangeF(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + r.Float64()*(max-min)
}

// Angle returns a value in [0, 2*pi).
func (r *Rand) Angle() float64 {
	return r.Float64() * 2 * math.Pi
}
