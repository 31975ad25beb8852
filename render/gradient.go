package render

import (
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// Stop is one gradient anchor at Pos in [0, 1]
type Stop struct {
	Pos   float64
	Color colorful.Color
}

// Gradient interpolates between stops in Lab space
type Gradient struct {
	stops []Stop
}

// NewGradient sorts stops by position; an empty list yields white
func NewGradient(stops ...Stop) *Gradient {
	s := append([]Stop(nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Pos < s[j].Pos })
	if len(s) == 0 {
		s = []Stop{{Pos: 0, Color: colorful.Color{R: 1, G: 1, B: 1}}}
	}
	return &Gradient{stops: s}
}

// DefaultTintGradient is the cyan to amber to violet ramp used for boid tints
func DefaultTintGradient() *Gradient {
	return NewGradient(
		Stop{0.2, colorful.Color{R: 0.8, G: 1, B: 1}},
		Stop{0.4, colorful.Color{R: 0.8, G: 1, B: 0.7}},
		Stop{0.6, colorful.Color{R: 1, G: 0.7, B: 0.1}},
		Stop{1.0, colorful.Color{R: 0.6, G: 0, B: 0.6}},
	)
}

// At returns the colour at t; t outside the stops clamps to the end colours
func (g *Gradient) At(t float64) RGB {
	s := g.stops
	if t <= s[0].Pos {
		return FromColorful(s[0].Color)
	}
	for i := 1; i < len(s); i++ {
		if t <= s[i].Pos {
			span := s[i].Pos - s[i-1].Pos
			if span <= 0 {
				return FromColorful(s[i].Color)
			}
			return FromColorful(s[i-1].Color.BlendLab(s[i].Color, (t-s[i-1].Pos)/span))
		}
	}
	return FromColorful(s[len(s)-1].Color)
}
