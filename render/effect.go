package render

import (
	"time"

	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/vmath"
)

// Look is the per-frame appearance computed from an entity's age and modulation
type Look struct {
	Size       float64 // Drawn height before scale
	Opacity    float64
	Scale      float64
	Gray       float64 // 0 colour, 1 full luma
	Tint       RGB
	TintAmount float64
}

// Neighborhood answers nearest-neighbor queries against current positions
type Neighborhood interface {
	Nearest(center vmath.Vec2, self entity.Handle, maxR float64) (entity.Handle, float64, bool)
}

// Frame is the context effects see for one entity
type Frame struct {
	Now       time.Time
	Age       time.Duration
	Neighbors Neighborhood
}

// Effect adjusts a Look; effects run in configuration order
type Effect interface {
	Apply(l *Look, e *entity.Entity, f *Frame)
}

// Fade multiplies opacity by the decay factor
type Fade struct{ Decay Decay }

func (x Fade) Apply(l *Look, _ *entity.Entity, f *Frame) {
	l.Opacity *= x.Decay.Factor(f.Age)
}

// Shrink multiplies scale by the decay factor
type Shrink struct{ Decay Decay }

func (x Shrink) Apply(l *Look, _ *entity.Entity, f *Frame) {
	l.Scale *= x.Decay.Factor(f.Age)
}

// Grayscale desaturates by one minus the decay factor
type Grayscale struct{ Decay Decay }

func (x Grayscale) Apply(l *Look, _ *entity.Entity, f *Frame) {
	l.Gray = max(l.Gray, 1-x.Decay.Factor(f.Age))
}

// Tint walks the gradient as the decay factor falls
type Tint struct {
	Decay    Decay
	Gradient *Gradient
}

func (x Tint) Apply(l *Look, _ *entity.Entity, f *Frame) {
	t := 1 - x.Decay.Factor(f.Age)
	if t <= 0 {
		return
	}
	l.Tint = x.Gradient.At(t)
	l.TintAmount = t
}

// NeighborSize sizes an entity by its nearest neighbor distance clamped to [Min, Max]
// Isolated entities get Max
type NeighborSize struct {
	Min float64
	Max float64
}

func (x NeighborSize) Apply(l *Look, e *entity.Entity, f *Frame) {
	l.Size = x.Max
	if f.Neighbors == nil {
		return
	}
	if _, d, ok := f.Neighbors.Nearest(e.Pos, e.Handle, x.Max); ok {
		l.Size = vmath.Clamp(d, x.Min, x.Max)
	}
}
