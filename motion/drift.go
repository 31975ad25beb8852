package motion

import (
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/parameter"
	"github.com/lixenwraith/sketchwall/vmath"
)

// DriftConfig shapes the noise-driven horizontal drift
type DriftConfig struct {
	// Pad is the off-screen run-out on each side
	Pad        float64
	SpeedScale float64

	VelMin, VelSpan     float64
	BaseYMin, BaseYSpan float64 // fraction of surface height
	SizeMin, SizeSpan   float64 // fraction of surface height

	YNoise       float64
	OpacityBase  float64
	OpacityNoise float64
	ScaleNoise   float64
}

func DefaultDriftConfig() DriftConfig {
	return DriftConfig{
		Pad:          parameter.DriftPad,
		SpeedScale:   parameter.DriftSpeedScale,
		VelMin:       parameter.DriftVelMin,
		VelSpan:      parameter.DriftVelSpan,
		BaseYMin:     parameter.DriftBaseYMin,
		BaseYSpan:    parameter.DriftBaseYSpan,
		SizeMin:      parameter.DriftSizeMin,
		SizeSpan:     parameter.DriftSizeSpan,
		YNoise:       parameter.DriftYNoise,
		OpacityBase:  parameter.DriftOpacityBase,
		OpacityNoise: parameter.DriftOpacityNoise,
		ScaleNoise:   parameter.DriftScaleNoise,
	}
}

// Drift moves right at a fixed speed with noise on lane, opacity and scale
// No neighbor interaction
type Drift struct {
	cfg   DriftConfig
	field Field
}

func NewDrift(cfg DriftConfig, field Field) *Drift {
	return &Drift{cfg: cfg, field: field}
}

func (d *Drift) Kind() entity.Kind { return entity.Drift }

// Spawn enters from the left run-out on a sampled lane
func (d *Drift) Spawn(e *entity.Entity, bounds vmath.Rect, rng *vmath.FastRand) entity.Params {
	h := bounds.Height()
	p := entity.Params{
		DriftVel: rng.Range(d.cfg.VelMin, d.cfg.VelSpan),
		BaseY:    bounds.Min.Y + rng.Range(d.cfg.BaseYMin, d.cfg.BaseYSpan)*h,
		Size:     rng.Range(d.cfg.SizeMin, d.cfg.SizeSpan) * h,
	}
	e.Pos = vmath.V(bounds.Min.X-d.cfg.Pad, p.BaseY)
	e.Vel = vmath.V(p.DriftVel*d.cfg.SpeedScale, 0)
	e.Snapshot()
	return p
}

// Range is the interval every drifting x is observed in
func (d *Drift) Range(surface vmath.Rect) (lo, hi float64) {
	return surface.Min.X - d.cfg.Pad, surface.Max.X + d.cfg.Pad
}

// Update advances x and resets to the left run-out past the right one; age is untouched
func (d *Drift) Update(e *entity.Entity, w World, dt float64) {
	lo, hi := d.Range(w.Bounds())
	base := e.Params.BaseY

	x := e.Prev.X + e.Params.DriftVel*d.cfg.SpeedScale*dt
	if x >= hi {
		x = lo
	}
	if x < lo {
		x = lo
	}

	e.Pos = vmath.V(x, base*(1+d.cfg.YNoise*d.field.At(x*0.1, base)))
	e.Vel = vmath.V(e.Params.DriftVel*d.cfg.SpeedScale, 0)
	e.Mod = entity.Modulation{
		Opacity: vmath.Clamp(d.cfg.OpacityBase+d.cfg.OpacityNoise*d.field.At(x, base+200), 0, 1),
		JitterX: d.field.At(x*0.5, base+100) * d.cfg.ScaleNoise,
		JitterY: d.field.At(x*0.6, base-100) * d.cfg.ScaleNoise,
	}
}
