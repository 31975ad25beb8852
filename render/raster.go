package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// Raster is the composited pixel surface; one pixel per world unit
type Raster struct {
	pix    []RGB
	width  int
	height int

	// Scratch for scaling background frames to the surface
	scratch *image.RGBA
}

// NewRaster creates a raster filled with fill
func NewRaster(width, height int, fill RGB) *Raster {
	r := &Raster{}
	r.Resize(width, height, fill)
	return r
}

// Resize adjusts dimensions, reallocates only if capacity insufficient
func (r *Raster) Resize(width, height int, fill RGB) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(r.pix) < size {
		r.pix = make([]RGB, size)
	} else {
		r.pix = r.pix[:size]
	}
	r.width = width
	r.height = height
	r.scratch = nil
	r.Fill(fill)
}

func (r *Raster) Width() int  { return r.width }
func (r *Raster) Height() int { return r.height }

// Fill sets every pixel using exponential copy
func (r *Raster) Fill(c RGB) {
	if len(r.pix) == 0 {
		return
	}
	r.pix[0] = c
	for filled := 1; filled < len(r.pix); filled *= 2 {
		copy(r.pix[filled:], r.pix[:filled])
	}
}

// inBounds returns true if in raster bounds
func (r *Raster) inBounds(x, y int) bool {
	return x >= 0 && x < r.width && y >= 0 && y < r.height
}

// At returns the pixel at (x, y), black when out of bounds
func (r *Raster) At(x, y int) RGB {
	if !r.inBounds(x, y) {
		return RGBBlack
	}
	return r.pix[y*r.width+x]
}

// Set writes one pixel
func (r *Raster) Set(x, y int, c RGB) {
	if r.inBounds(x, y) {
		r.pix[y*r.width+x] = c
	}
}

// Row returns the pixels of row y; callers must not retain it across frames
func (r *Raster) Row(y int) []RGB {
	if y < 0 || y >= r.height {
		return nil
	}
	return r.pix[y*r.width : (y+1)*r.width]
}

// DrawScaled stretches img over the whole raster
func (r *Raster) DrawScaled(img image.Image) {
	if img == nil || r.width == 0 || r.height == 0 {
		return
	}
	if r.scratch == nil {
		r.scratch = image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	}
	draw.ApproxBiLinear.Scale(r.scratch, r.scratch.Bounds(), img, img.Bounds(), draw.Src, nil)
	p := r.scratch.Pix
	for i := range r.pix {
		o := i * 4
		r.pix[i] = RGB{p[o], p[o+1], p[o+2]}
	}
}

// Sprite is how one visual lands on the raster
type Sprite struct {
	Opacity    float64
	Gray       float64
	Tint       RGB
	TintAmount float64
	Mode       BlendMode
}

// Blit draws src centred at (cx, cy), clipped to the raster
func (r *Raster) Blit(src *image.RGBA, cx, cy float64, s Sprite) {
	if src == nil || s.Opacity <= 0 {
		return
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	x0 := int(math.Round(cx - float64(w)/2))
	y0 := int(math.Round(cy - float64(h)/2))

	sx0, sy0 := max(0, -x0), max(0, -y0)
	sx1, sy1 := min(w, r.width-x0), min(h, r.height-y0)
	for sy := sy0; sy < sy1; sy++ {
		row := (y0+sy)*r.width + x0
		off := sy*src.Stride + sx0*4
		for sx := sx0; sx < sx1; sx, off = sx+1, off+4 {
			a := src.Pix[off+3]
			if a == 0 {
				continue
			}
			c := RGB{src.Pix[off], src.Pix[off+1], src.Pix[off+2]}
			if a < 255 {
				// Un-premultiply
				c = Scale(c, 255/float64(a))
			}
			if s.Gray > 0 {
				c = Lerp(c, Luma(c), s.Gray)
			}
			if s.TintAmount > 0 {
				c = Lerp(c, Multiply(c, s.Tint), s.TintAmount)
			}
			dst := &r.pix[row+sx]
			*dst = s.Mode.Apply(*dst, c, s.Opacity*float64(a)/255)
		}
	}
}

// Image copies the raster into an RGBA image
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	for i, c := range r.pix {
		img.Pix[i*4] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = 255
	}
	return img
}

// RGBA implements color.Color so RGB can feed image encoders
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 255}.RGBA()
}
