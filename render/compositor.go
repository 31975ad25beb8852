package render

import (
	"math"
	"time"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/entity"
)

// Options configures a Compositor
type Options struct {
	Backdrop RGB
	Effects  []Effect
	Mode     BlendMode

	// Square draws visuals as squares instead of preserving aspect
	Square bool

	// DefaultSize is used when an entity carries no sampled size
	DefaultSize float64
}

// Compositor draws the background then each live entity in pool order
type Compositor struct {
	opts  Options
	frame Frame
}

func NewCompositor(opts Options) *Compositor {
	if opts.DefaultSize <= 0 {
		opts.DefaultSize = 16
	}
	return &Compositor{opts: opts}
}

// Backdrop returns the colour used when no background frame is available
func (c *Compositor) Backdrop() RGB { return c.opts.Backdrop }

// Render composites one frame
// A loading background leaves the previous raster in place; an unavailable one clears to the backdrop
func (c *Compositor) Render(r *Raster, bg asset.Background, live []*entity.Entity, now time.Time, nb Neighborhood) {
	c.drawBackground(r, bg, now)

	c.frame.Now = now
	c.frame.Neighbors = nb
	for _, e := range live {
		if e.State != entity.Live || e.Visual == nil {
			continue
		}
		c.frame.Age = e.Age(now)
		c.drawEntity(r, e)
	}
}

func (c *Compositor) drawBackground(r *Raster, bg asset.Background, now time.Time) {
	if bg == nil {
		r.Fill(c.opts.Backdrop)
		return
	}
	switch bg.State() {
	case asset.BackgroundReady:
		if frame := bg.Frame(now); frame != nil {
			r.DrawScaled(frame)
		}
	case asset.BackgroundLoading:
		// Previous frame stays to avoid flicker
	default:
		r.Fill(c.opts.Backdrop)
	}
}

// LookFor runs the effect chain for one entity
func (c *Compositor) LookFor(e *entity.Entity, f *Frame) Look {
	l := Look{
		Size:    e.Params.Size,
		Opacity: e.Mod.Opacity,
		Scale:   1,
	}
	if l.Size <= 0 {
		l.Size = c.opts.DefaultSize
	}
	for _, eff := range c.opts.Effects {
		eff.Apply(&l, e, f)
	}
	return l
}

func (c *Compositor) drawEntity(r *Raster, e *entity.Entity) {
	l := c.LookFor(e, &c.frame)
	if l.Opacity <= 0 {
		return
	}

	sx := l.Scale + e.Mod.JitterX
	sy := l.Scale + e.Mod.JitterY
	h := l.Size * sy
	w := l.Size * sx
	if !c.opts.Square {
		w *= e.Visual.Aspect()
	}
	pw := max(1, int(math.Round(w)))
	ph := max(1, int(math.Round(h)))

	r.Blit(e.Visual.Scaled(pw, ph), e.Pos.X, e.Pos.Y, Sprite{
		Opacity:    min(l.Opacity, 1),
		Gray:       l.Gray,
		Tint:       l.Tint,
		TintAmount: l.TintAmount,
		Mode:       c.opts.Mode,
	})
}
