package asset

import (
	"image"
	"sync/atomic"

	"golang.org/x/image/draw"
)

// Visual is a decoded raster owned by exactly one entity
// Not safe for concurrent use once handed to the engine
type Visual struct {
	img    *image.RGBA
	aspect float64

	// Last scaled copy, reused while the requested size is stable
	scaled  *image.RGBA
	scaledW int
	scaledH int

	released atomic.Bool // Observable from other goroutines
}

// NewVisual copies img into an RGBA raster
func NewVisual(img image.Image) *Visual {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	aspect := 1.0
	if b.Dy() > 0 {
		aspect = float64(b.Dx()) / float64(b.Dy())
	}
	return &Visual{img: rgba, aspect: aspect}
}

// Image returns the full resolution raster, nil once released
func (v *Visual) Image() *image.RGBA { return v.img }

// Aspect returns width over height
func (v *Visual) Aspect() float64 { return v.aspect }

// Size returns the source dimensions
func (v *Visual) Size() (w, h int) {
	if v.img == nil {
		return 0, 0
	}
	b := v.img.Bounds()
	return b.Dx(), b.Dy()
}

// Scaled returns a w by h copy, cached until a different size is requested
func (v *Visual) Scaled(w, h int) *image.RGBA {
	if v.released.Load() || w <= 0 || h <= 0 {
		return nil
	}
	if v.scaled != nil && v.scaledW == w && v.scaledH == h {
		return v.scaled
	}
	if v.scaled == nil || v.scaled.Rect.Dx() != w || v.scaled.Rect.Dy() != h {
		v.scaled = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.ApproxBiLinear.Scale(v.scaled, v.scaled.Bounds(), v.img, v.img.Bounds(), draw.Src, nil)
	v.scaledW, v.scaledH = w, h
	return v.scaled
}

// Release drops the rasters; safe to call more than once
func (v *Visual) Release() {
	v.img = nil
	v.scaled = nil
	v.released.Store(true)
}

// Released reports whether Release has been called
func (v *Visual) Released() bool { return v.released.Load() }
