package vmath

import "math"

// FastRand is a xorshift64 generator; not safe for concurrent use
type FastRand struct {
	state uint64
}

func NewFastRand(seed uint64) *FastRand {
	if seed == 0 {
		seed = 1
	}
	return &FastRand{state: seed}
}

func (r *FastRand) Next() uint64 {
	x := r.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	r.state = x
	return x
}

func (r *FastRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Next() % uint64(n))
}

// Float64 returns a value in [0, 1) from the top 53 bits
func (r *FastRand) Float64() float64 {
	return float64(r.Next()>>11) / (1 << 53)
}

// Range returns a value in [lo, lo+span)
func (r *FastRand) Range(lo, span float64) float64 {
	return lo + span*r.Float64()
}

// Direction returns a random unit vector
func (r *FastRand) Direction() Vec2 {
	theta := 2 * math.Pi * r.Float64()
	return Vec2{math.Cos(theta), math.Sin(theta)}
}

// Weighted picks from values with probability proportional to weights
// Mismatched or non-positive weights fall back to a uniform pick
func (r *FastRand) Weighted(values, weights []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(weights) != len(values) {
		return values[r.Intn(len(values))]
	}
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return values[r.Intn(len(values))]
	}
	pick := r.Float64() * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if pick < w {
			return values[i]
		}
		pick -= w
	}
	return values[len(values)-1]
}
