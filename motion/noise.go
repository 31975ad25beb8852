package motion

import (
	"math"

	"github.com/aquilax/go-perlin"

	"github.com/lixenwraith/sketchwall/vmath"
)

// Field is a deterministic 2D noise source with values in [-1, 1]
type Field interface {
	At(x, y float64) float64
}

// PerlinField wraps gradient noise
type PerlinField struct {
	p *perlin.Perlin
}

// NewPerlinField creates Perlin noise with the usual alpha 2, beta 2 and 3 octaves
func NewPerlinField(seed int64) *PerlinField {
	return &PerlinField{p: perlin.NewPerlin(2, 2, 3, seed)}
}

// Perlin output is roughly in [-0.7, 0.7]; scaled so the full range is reachable
func (f *PerlinField) At(x, y float64) float64 {
	return vmath.Clamp(f.p.Noise2D(x*0.05, y*0.05)*1.5, -1, 1)
}

// SineField is a weighted sum of three sines with a random phase offset
// Output stays within [-0.5, 0.5]
type SineField struct {
	offset float64
}

func NewSineField(rng *vmath.FastRand) *SineField {
	return &SineField{offset: rng.Float64() * 1000}
}

func (f *SineField) At(x, y float64) float64 {
	return (math.Sin(x*0.01+y*0.005+f.offset)*0.3 +
		math.Sin(x*0.02-y*0.01)*0.2 +
		math.Sin(y*0.01)*0.5) * 0.5
}
