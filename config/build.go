package config

import (
	"fmt"

	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/motion"
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/vmath"
)

// FlockModel maps flock settings onto the motion model's config
func (c *Config) FlockModel() motion.FlockConfig {
	f := c.Flock
	return motion.FlockConfig{
		SeparationRadius: f.SeparationRadius,
		SeparationWeight: f.SeparationWeight,
		AlignmentRadius:  f.AlignmentRadius,
		AlignmentWeight:  f.AlignmentWeight,
		CohesionRadius:   f.CohesionRadius,
		CohesionWeight:   f.CohesionWeight,
		Margin:           f.Margin,
		SpawnSpeed:       f.SpawnSpeed,
		SpeedChoices:     f.SpeedChoices,
		SpeedWeights:     f.SpeedWeights,
	}
}

// DriftModel maps drift settings onto the motion model's config
func (c *Config) DriftModel() motion.DriftConfig {
	d := c.Drift
	return motion.DriftConfig{
		Pad:          d.Pad,
		SpeedScale:   d.SpeedScale,
		VelMin:       d.VelMin,
		VelSpan:      d.VelSpan,
		BaseYMin:     d.BaseYMin,
		BaseYSpan:    d.BaseYSpan,
		SizeMin:      d.SizeMin,
		SizeSpan:     d.SizeSpan,
		YNoise:       d.YNoise,
		OpacityBase:  d.OpacityBase,
		OpacityNoise: d.OpacityNoise,
		ScaleNoise:   d.ScaleNoise,
	}
}

// Field builds the configured noise source
func (c *Config) Field(seed int64, rng *vmath.FastRand) motion.Field {
	if c.Engine.Noise == "sine" {
		return motion.NewSineField(rng)
	}
	return motion.NewPerlinField(seed)
}

// Strategy builds the motion model of the configured variant
func (c *Config) Strategy(seed int64, rng *vmath.FastRand) motion.Strategy {
	if c.Kind() == entity.Drift {
		return motion.NewDrift(c.DriftModel(), c.Field(seed, rng))
	}
	return motion.NewFlock(c.FlockModel())
}

// Backdrop parses render.backdrop
func (c *Config) Backdrop() (render.RGB, error) {
	return render.ParseHex(c.Render.Backdrop)
}

// BlendMode parses render.blend
func (c *Config) BlendMode() (render.BlendMode, error) {
	m, ok := render.ParseBlendMode(c.Render.Blend)
	if !ok {
		return m, fmt.Errorf("unknown blend mode %q", c.Render.Blend)
	}
	return m, nil
}

// Effects builds the render effect chain in file order
func (c *Config) Effects() ([]render.Effect, error) {
	out := make([]render.Effect, 0, len(c.Render.Effects))
	for i, ec := range c.Render.Effects {
		if ec.Kind == "neighbor_size" {
			out = append(out, render.NeighborSize{Min: c.Flock.MinSize, Max: c.Flock.MaxSize})
			continue
		}
		decay, err := render.NewDecay(ec.Law, ec.Rate, ec.HalfLife, ec.Floor)
		if err != nil {
			return nil, fmt.Errorf("effect %d (%s): %w", i, ec.Kind, err)
		}
		// A live entity never fades or shrinks to nothing
		if (ec.Kind == "fade" || ec.Kind == "shrink") && decay != (render.None{}) && ec.Floor <= 0 {
			return nil, fmt.Errorf("effect %d (%s): floor must be positive", i, ec.Kind)
		}
		switch ec.Kind {
		case "fade":
			out = append(out, render.Fade{Decay: decay})
		case "shrink":
			out = append(out, render.Shrink{Decay: decay})
		case "grayscale":
			out = append(out, render.Grayscale{Decay: decay})
		case "tint":
			out = append(out, render.Tint{Decay: decay, Gradient: render.DefaultTintGradient()})
		default:
			return nil, fmt.Errorf("effect %d: unknown kind %q", i, ec.Kind)
		}
	}
	return out, nil
}

// CompositorOptions assembles everything the compositor needs
func (c *Config) CompositorOptions() (render.Options, error) {
	backdrop, err := c.Backdrop()
	if err != nil {
		return render.Options{}, err
	}
	mode, err := c.BlendMode()
	if err != nil {
		return render.Options{}, err
	}
	effects, err := c.Effects()
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Backdrop:    backdrop,
		Effects:     effects,
		Mode:        mode,
		Square:      c.Render.Square,
		DefaultSize: c.Flock.MaxSize,
	}, nil
}
