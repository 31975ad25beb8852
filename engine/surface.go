package engine

import (
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/vmath"
)

// SurfaceManager owns the raster and the world bounds derived from its size
// Only the control loop touches it
type SurfaceManager struct {
	width    int
	height   int
	bounds   vmath.Rect
	raster   *render.Raster
	backdrop render.RGB
	setup    bool
}

func NewSurfaceManager(backdrop render.RGB) *SurfaceManager {
	return &SurfaceManager{backdrop: backdrop}
}

// Resize applies a new surface size
// Degenerate sizes are ignored; first reports the one resize that performed initial setup
func (s *SurfaceManager) Resize(w, h int) (changed, first bool) {
	if w <= 0 || h <= 0 {
		return false, false
	}
	if s.setup && w == s.width && h == s.height {
		return false, false
	}

	s.width, s.height = w, h
	s.bounds = vmath.R(0, 0, float64(w), float64(h))
	if !s.setup {
		s.setup = true
		s.raster = render.NewRaster(w, h, s.backdrop)
		return true, true
	}
	s.raster.Resize(w, h, s.backdrop)
	return true, false
}

// Valid reports whether a usable size has been seen
func (s *SurfaceManager) Valid() bool { return s.setup }

func (s *SurfaceManager) Bounds() vmath.Rect     { return s.bounds }
func (s *SurfaceManager) Size() (w, h int)       { return s.width, s.height }
func (s *SurfaceManager) Raster() *render.Raster { return s.raster }
