package motion

import (
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/parameter"
	"github.com/lixenwraith/sketchwall/vmath"
)

// FlockConfig holds steering radii and weights
type FlockConfig struct {
	SeparationRadius float64
	SeparationWeight float64
	AlignmentRadius  float64
	AlignmentWeight  float64
	CohesionRadius   float64
	CohesionWeight   float64

	// Margin extends the wrap bounds beyond the surface on every side
	Margin float64

	SpawnSpeed   float64
	SpeedChoices []float64
	SpeedWeights []float64
}

func DefaultFlockConfig() FlockConfig {
	return FlockConfig{
		SeparationRadius: parameter.SeparationRadius,
		SeparationWeight: parameter.SeparationWeight,
		AlignmentRadius:  parameter.AlignmentRadius,
		AlignmentWeight:  parameter.AlignmentWeight,
		CohesionRadius:   parameter.CohesionRadius,
		CohesionWeight:   parameter.CohesionWeight,
		Margin:           parameter.FlockMargin,
		SpawnSpeed:       parameter.FlockSpawnSpeed,
		SpeedChoices:     parameter.FlockSpeedChoices,
		SpeedWeights:     parameter.FlockSpeedWeights,
	}
}

// Flock is separation, alignment and cohesion steering with a speed clamp and modulo wrap
type Flock struct {
	cfg     FlockConfig
	scratch []entity.Handle
}

func NewFlock(cfg FlockConfig) *Flock {
	return &Flock{cfg: cfg}
}

func (f *Flock) Kind() entity.Kind { return entity.Flocking }

// Spawn places the boid at the centre heading in a random direction
func (f *Flock) Spawn(e *entity.Entity, bounds vmath.Rect, rng *vmath.FastRand) entity.Params {
	e.Pos = bounds.Center()
	e.Vel = rng.Direction().Scale(f.cfg.SpawnSpeed)
	e.Snapshot()
	return entity.Params{
		MaxSpeed: rng.Weighted(f.cfg.SpeedChoices, f.cfg.SpeedWeights),
	}
}

// WrapBounds is the surface grown by the margin
func (f *Flock) WrapBounds(surface vmath.Rect) vmath.Rect {
	return surface.Inset(f.cfg.Margin)
}

// Force returns the summed steering force from neighbors' previous-frame state
func (f *Flock) Force(e *entity.Entity, w World) vmath.Vec2 {
	maxR := max(f.cfg.SeparationRadius, f.cfg.AlignmentRadius, f.cfg.CohesionRadius)
	f.scratch = w.Neighbors(e.Prev, maxR, f.scratch[:0])

	sepR2 := f.cfg.SeparationRadius * f.cfg.SeparationRadius
	aliR2 := f.cfg.AlignmentRadius * f.cfg.AlignmentRadius
	cohR2 := f.cfg.CohesionRadius * f.cfg.CohesionRadius

	var away, heading, centroid vmath.Vec2
	var nSep, nAli, nCoh int
	for _, h := range f.scratch {
		if h == e.Handle {
			continue
		}
		n := w.Lookup(h)
		if n == nil {
			continue
		}
		delta := e.Prev.Sub(n.Prev)
		d2 := delta.LenSq()
		if d2 <= sepR2 && d2 > 0 {
			// Closer neighbors push harder
			away = away.Madd(delta, 1/d2)
			nSep++
		}
		if d2 <= aliR2 {
			heading = heading.Add(n.PrevVel)
			nAli++
		}
		if d2 <= cohR2 {
			centroid = centroid.Add(n.Prev)
			nCoh++
		}
	}

	maxSpeed := e.Params.MaxSpeed
	var force vmath.Vec2
	if nSep > 0 && !away.IsZero() {
		force = force.Madd(steer(away, e.PrevVel, maxSpeed), f.cfg.SeparationWeight)
	}
	if nAli > 0 && !heading.IsZero() {
		force = force.Madd(steer(heading, e.PrevVel, maxSpeed), f.cfg.AlignmentWeight)
	}
	if nCoh > 0 {
		toward := centroid.Scale(1 / float64(nCoh)).Sub(e.Prev)
		if !toward.IsZero() {
			force = force.Madd(steer(toward, e.PrevVel, maxSpeed), f.cfg.CohesionWeight)
		}
	}
	return force
}

// steer is the Reynolds rule: desired velocity at full speed minus current velocity
func steer(desired, vel vmath.Vec2, maxSpeed float64) vmath.Vec2 {
	return desired.WithMagnitude(maxSpeed).Sub(vel)
}

func (f *Flock) Update(e *entity.Entity, w World, dt float64) {
	force := f.Force(e, w)
	e.Vel = e.PrevVel.Madd(force, dt).ClampMagnitude(e.Params.MaxSpeed)
	e.Pos = f.WrapBounds(w.Bounds()).Wrap2(e.Prev.Madd(e.Vel, dt))
}
