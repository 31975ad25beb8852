package asset

import (
	"context"
	"fmt"
	"image"
	"io"

	// Registered formats
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Decoder turns a source into a Visual; called from worker goroutines
type Decoder interface {
	Decode(ctx context.Context, src Source) (*Visual, error)
}

// ImageDecoder decodes any registered image format and bounds the result size
type ImageDecoder struct {
	MaxDimension int
}

func NewImageDecoder(maxDimension int) *ImageDecoder {
	return &ImageDecoder{MaxDimension: maxDimension}
}

func (d *ImageDecoder) Decode(ctx context.Context, src Source) (*Visual, error) {
	if src == nil {
		return nil, ErrEmptySource
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	img, _, err := image.Decode(&ctxReader{ctx: ctx, r: rc})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", src, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewVisual(Fit(img, d.MaxDimension)), nil
}

// Fit downscales img so neither side exceeds maxDim, preserving aspect
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// ctxReader aborts a decode once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
