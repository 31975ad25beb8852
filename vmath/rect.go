package vmath

import "math"

// Rect is an axis-aligned region, Min inclusive and Max exclusive
type Rect struct {
	Min, Max Vec2
}

// R builds a rect from corner coordinates
func R(x0, y0, x1, y1 float64) Rect {
	return Rect{Min: Vec2{x0, y0}, Max: Vec2{x1, y1}}
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint
func (r Rect) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Contains reports whether p lies in [Min, Max)
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X < r.Max.X && p.Y >= r.Min.Y && p.Y < r.Max.Y
}

// Inset grows the rect by m on every side, negative m shrinks it
func (r Rect) Inset(m float64) Rect {
	return Rect{
		Min: Vec2{r.Min.X - m, r.Min.Y - m},
		Max: Vec2{r.Max.X + m, r.Max.Y + m},
	}
}

// Wrap maps v into [lo, hi) modulo the range; crossing one edge reappears at the other
func Wrap(v, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return lo
	}
	if v >= lo && v < hi {
		return v
	}
	w := math.Mod(v-lo, span)
	if w < 0 {
		w += span
	}
	// Mod can round up to span for tiny negative inputs
	if w >= span {
		w = 0
	}
	return lo + w
}

// Wrap2 wraps both coordinates of p into r
func (r Rect) Wrap2(p Vec2) Vec2 {
	return Vec2{Wrap(p.X, r.Min.X, r.Max.X), Wrap(p.Y, r.Min.Y, r.Max.Y)}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates a toward b by t
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
