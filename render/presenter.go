package render

import (
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
)

// Presenter shows a composited raster; called on the control loop after every frame
type Presenter interface {
	Present(r *Raster) error
}

// Finalizer is implemented by presenters that want the last raster at teardown
type Finalizer interface {
	Final(r *Raster) error
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(r *Raster) error

func (f PresenterFunc) Present(r *Raster) error { return f(r) }

// Multi fans a frame out to several presenters
type Multi []Presenter

func (m Multi) Present(r *Raster) error {
	var errs []error
	for _, p := range m {
		if err := p.Present(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Final(r *Raster) error {
	var errs []error
	for _, p := range m {
		if f, ok := p.(Finalizer); ok {
			if err := f.Final(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// WritePNG encodes the raster
func WritePNG(w io.Writer, r *Raster) error {
	return png.Encode(w, r.Image())
}

// Snapshot writes the last raster to Path at teardown
type Snapshot struct {
	Path string
}

func (Snapshot) Present(*Raster) error { return nil }

func (s Snapshot) Final(r *Raster) error {
	if r == nil || r.Width() == 0 || r.Height() == 0 {
		return nil
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	if err := WritePNG(f, r); err != nil {
		f.Close()
		return fmt.Errorf("snapshot: %w", err)
	}
	return f.Close()
}
