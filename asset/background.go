package asset

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/lixenwraith/sketchwall/core"
)

// BackgroundState tracks background readiness
type BackgroundState int32

const (
	BackgroundLoading BackgroundState = iota
	BackgroundReady
	BackgroundUnavailable
)

func (s BackgroundState) String() string {
	switch s {
	case BackgroundLoading:
		return "loading"
	case BackgroundReady:
		return "ready"
	case BackgroundUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// ErrNoFrames is returned when a background path yields nothing drawable
var ErrNoFrames = errors.New("asset: background has no frames")

// Background is a looping visual source with a readiness signal
// Ready is closed once State leaves BackgroundLoading
type Background interface {
	Ready() <-chan struct{}
	State() BackgroundState
	Frame(now time.Time) image.Image
	Close() error
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NoBackground is permanently unavailable; entities render over the backdrop colour
type NoBackground struct{}

func (NoBackground) Ready() <-chan struct{}      { return closedChan }
func (NoBackground) State() BackgroundState      { return BackgroundUnavailable }
func (NoBackground) Frame(time.Time) image.Image { return nil }
func (NoBackground) Close() error                { return nil }

// FrameLoop plays a directory of frames or an animated GIF in a loop
type FrameLoop struct {
	path   string
	fps    float64
	maxDim int
	log    *zap.Logger

	state     atomic.Int32
	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.RWMutex
	frames []image.Image
	delays []time.Duration
	total  time.Duration
	start  time.Time

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewFrameLoop creates an unloaded loop; call Load to begin async decoding
func NewFrameLoop(path string, fps float64, maxDim int, log *zap.Logger) *FrameLoop {
	if fps <= 0 {
		fps = 12
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FrameLoop{
		path:   path,
		fps:    fps,
		maxDim: maxDim,
		log:    log,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Load starts decoding in the background and returns immediately
func (b *FrameLoop) Load(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	core.Go(func() {
		defer close(b.done)
		frames, delays, err := readFrames(ctx, b.path, b.fps, b.maxDim)
		if err != nil {
			b.log.Warn("background unavailable", zap.String("path", b.path), zap.Error(err))
			b.settle(BackgroundUnavailable)
			return
		}
		var total time.Duration
		for _, d := range delays {
			total += d
		}
		b.mu.Lock()
		b.frames, b.delays, b.total = frames, delays, total
		b.mu.Unlock()
		b.log.Info("background ready", zap.String("path", b.path), zap.Int("frames", len(frames)))
		b.settle(BackgroundReady)
	})
}

func (b *FrameLoop) settle(s BackgroundState) {
	b.readyOnce.Do(func() {
		b.state.Store(int32(s))
		close(b.ready)
	})
}

func (b *FrameLoop) Ready() <-chan struct{} { return b.ready }

func (b *FrameLoop) State() BackgroundState { return BackgroundState(b.state.Load()) }

// Frame returns the frame due at now; the loop clock starts on the first call
func (b *FrameLoop) Frame(now time.Time) image.Image {
	if b.State() != BackgroundReady {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return nil
	}
	if b.start.IsZero() {
		b.start = now
	}
	if b.total <= 0 || len(b.frames) == 1 {
		return b.frames[0]
	}
	elapsed := now.Sub(b.start) % b.total
	if elapsed < 0 {
		elapsed = 0
	}
	for i, d := range b.delays {
		if elapsed < d {
			return b.frames[i]
		}
		elapsed -= d
	}
	return b.frames[len(b.frames)-1]
}

// Close cancels loading, waits for the loader and drops all frames
// Safe before Load and safe to call more than once
func (b *FrameLoop) Close() error {
	b.closeOnce.Do(func() {
		b.mu.RLock()
		cancel := b.cancel
		b.mu.RUnlock()
		if cancel != nil {
			cancel()
			<-b.done
		}
		b.settle(BackgroundUnavailable)
		b.state.Store(int32(BackgroundUnavailable))
		b.mu.Lock()
		b.frames, b.delays, b.total = nil, nil, 0
		b.mu.Unlock()
	})
	return nil
}

var frameExts = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp"}

// IsImageFile reports whether the name has a decodable image extension
func IsImageFile(name string) bool {
	return slices.Contains(frameExts, strings.ToLower(filepath.Ext(name)))
}

func readFrames(ctx context.Context, path string, fps float64, maxDim int) ([]image.Image, []time.Duration, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat background: %w", err)
	}
	step := time.Duration(float64(time.Second) / fps)

	if !info.IsDir() {
		if strings.EqualFold(filepath.Ext(path), ".gif") {
			return readGIF(path, step, maxDim)
		}
		img, err := decodeFile(ctx, path, maxDim)
		if err != nil {
			return nil, nil, err
		}
		return []image.Image{img}, []time.Duration{step}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read background dir: %w", err)
	}
	// ReadDir sorts by name, so numbered frames play in order
	var frames []image.Image
	var delays []time.Duration
	for _, e := range entries {
		if e.IsDir() || !IsImageFile(e.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		img, err := decodeFile(ctx, filepath.Join(path, e.Name()), maxDim)
		if err != nil {
			return nil, nil, err
		}
		frames = append(frames, img)
		delays = append(delays, step)
	}
	if len(frames) == 0 {
		return nil, nil, ErrNoFrames
	}
	return frames, delays, nil
}

func decodeFile(ctx context.Context, path string, maxDim int) (image.Image, error) {
	v, err := NewImageDecoder(maxDim).Decode(ctx, File(path))
	if err != nil {
		return nil, err
	}
	return v.Image(), nil
}

// readGIF composes each frame over the previous one so partial frames render whole
func readGIF(path string, step time.Duration, maxDim int) ([]image.Image, []time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open background: %w", err)
	}
	defer f.Close()

	g, err := gif.DecodeAll(f)
	if err != nil {
		return nil, nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, nil, ErrNoFrames
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	frames := make([]image.Image, 0, len(g.Image))
	delays := make([]time.Duration, 0, len(g.Image))
	for i, pal := range g.Image {
		draw.Draw(canvas, pal.Bounds(), pal, pal.Bounds().Min, draw.Over)
		snap := image.NewRGBA(bounds)
		copy(snap.Pix, canvas.Pix)
		frames = append(frames, Fit(snap, maxDim))

		d := step
		if i < len(g.Delay) && g.Delay[i] > 0 {
			d = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		delays = append(delays, d)

		if i < len(g.Disposal) && g.Disposal[i] == gif.DisposalBackground {
			draw.Draw(canvas, pal.Bounds(), image.Transparent, image.Point{}, draw.Src)
		}
	}
	return frames, delays, nil
}
