package engine

import (
	"context"
	"errors"
	"image"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/event"
	"github.com/lixenwraith/sketchwall/motion"
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/vmath"
)

// stubDecoder returns a small visual per source name, with optional delays, failures and a blocking gate
type stubDecoder struct {
	delays  map[string]time.Duration
	fail    map[string]error
	block   chan struct{} // When set, every decode waits here ignoring ctx
	entered chan struct{}

	mu   sync.Mutex
	made []*asset.Visual
}

func (d *stubDecoder) Decode(ctx context.Context, src asset.Source) (*asset.Visual, error) {
	name := src.String()
	if d.entered != nil {
		d.entered <- struct{}{}
	}
	if d.block != nil {
		<-d.block
	}
	if delay := d.delays[name]; delay > 0 {
		time.Sleep(delay)
	}
	if err := d.fail[name]; err != nil {
		return nil, err
	}
	v := asset.NewVisual(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	d.mu.Lock()
	d.made = append(d.made, v)
	d.mu.Unlock()
	return v, nil
}

func (d *stubDecoder) visuals() []*asset.Visual {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.made)
}

type countingPresenter struct {
	frames atomic.Int64
	finals atomic.Int64
}

func (p *countingPresenter) Present(*render.Raster) error {
	p.frames.Add(1)
	return nil
}

func (p *countingPresenter) Final(*render.Raster) error {
	p.finals.Add(1)
	return nil
}

type stubBackground struct {
	ready  chan struct{}
	state  atomic.Int32
	closes atomic.Int32
}

func newStubBackground() *stubBackground {
	return &stubBackground{ready: make(chan struct{})}
}

func (b *stubBackground) Ready() <-chan struct{}       { return b.ready }
func (b *stubBackground) State() asset.BackgroundState { return asset.BackgroundState(b.state.Load()) }
func (b *stubBackground) Frame(time.Time) image.Image  { return nil }

func (b *stubBackground) Close() error {
	b.closes.Add(1)
	return nil
}

func (b *stubBackground) settle(s asset.BackgroundState) {
	b.state.Store(int32(s))
	close(b.ready)
}

type harness struct {
	e         *Engine
	frames    *ManualFrameSource
	clock     *MockTimeProvider
	presenter *countingPresenter
	decoder   *stubDecoder
}

func newHarness(t *testing.T, capacity int, log *zap.Logger, mod func(*Options)) *harness {
	t.Helper()
	clock := NewMockTimeProvider(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	h := &harness{
		frames:    NewManualFrameSource(clock),
		clock:     clock,
		presenter: &countingPresenter{},
		decoder:   &stubDecoder{},
	}
	opts := Options{
		Capacity:   capacity,
		Seed:       7,
		Strategy:   motion.NewFlock(motion.DefaultFlockConfig()),
		Decoder:    h.decoder,
		Compositor: render.NewCompositor(render.Options{}),
		Presenter:  h.presenter,
		Clock:      clock,
		Frames:     h.frames,
	}
	if mod != nil {
		mod(&opts)
	}
	h.e = New(opts, log)
	t.Cleanup(h.e.Stop)
	return h
}

// waitFor polls cond on the control loop until it holds
func waitFor(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		ok := false
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err := e.Inspect(ctx, func() { ok = cond() })
		cancel()
		if err == nil && ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func liveIDs(e *Engine) []string {
	var ids []string
	e.Pool().Range(func(ent *entity.Entity) bool {
		ids = append(ids, ent.ID)
		return true
	})
	return ids
}

func src(name string) asset.Source {
	return asset.Bytes{Name: name, Data: []byte{1}}
}

func TestFrameSourceGatesUntilValidResize(t *testing.T) {
	h := newHarness(t, 4, nil, nil)

	var ready atomic.Int32
	h.e.Register(event.HandlerFunc{
		Types: []event.EventType{event.EventSurfaceReady},
		Fn:    func(event.Event) { ready.Add(1) },
	})
	h.e.Start()

	h.e.Resize(0, 0)
	if h.frames.Tick(50 * time.Millisecond) {
		t.Fatal("frame delivered before a valid size")
	}
	if h.presenter.frames.Load() != 0 {
		t.Fatal("presented before a valid size")
	}

	h.e.Resize(800, 600)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame after valid resize")
	}
	h.e.Resize(800, 600)
	h.e.Resize(1024, 768)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame after second resize")
	}

	if got := ready.Load(); got != 1 {
		t.Errorf("surface setup ran %d times, want 1", got)
	}
	waitFor(t, h.e, func() bool {
		w, hh := h.e.Surface().Size()
		r := h.e.Surface().Raster()
		return w == 1024 && hh == 768 && r.Width() == 1024 && r.Height() == 768
	})
}

func TestGateWaitsForBackground(t *testing.T) {
	bg := newStubBackground()
	h := newHarness(t, 4, nil, func(o *Options) { o.Background = bg })
	h.e.Start()
	h.e.Resize(320, 200)

	if h.frames.Tick(50 * time.Millisecond) {
		t.Fatal("frame delivered while background loading")
	}
	bg.settle(asset.BackgroundUnavailable)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame once background settled")
	}
}

func TestStopTwice(t *testing.T) {
	h := newHarness(t, 4, nil, nil)
	h.e.Start()
	h.e.Resize(100, 100)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame")
	}

	h.e.Stop()
	h.e.Stop()

	select {
	case <-h.e.Done():
	default:
		t.Fatal("Done not closed")
	}
	if h.frames.Tick(50 * time.Millisecond) {
		t.Error("frame delivered after Stop")
	}
	if got := h.e.Registry().Strings.Get("engine.state").Load(); got != "stopped" {
		t.Errorf("engine.state = %q, want stopped", got)
	}
	if got := h.presenter.finals.Load(); got != 1 {
		t.Errorf("Final called %d times, want 1", got)
	}
}

func TestStopBeforeStart(t *testing.T) {
	bg := newStubBackground()
	h := newHarness(t, 4, nil, func(o *Options) { o.Background = bg })

	h.e.Stop()
	h.e.Start()

	if got := bg.closes.Load(); got != 1 {
		t.Errorf("background closed %d times, want 1", got)
	}
	if got := h.presenter.finals.Load(); got != 0 {
		t.Errorf("Final called %d times without a surface", got)
	}
	if err := h.e.Inspect(context.Background(), func() {}); !errors.Is(err, ErrStopped) {
		t.Errorf("Inspect after Stop = %v, want ErrStopped", err)
	}
	if h.frames.Tick(50 * time.Millisecond) {
		t.Error("frame delivered after Stop")
	}
}

func TestInsertEvictsOldestInArrivalOrder(t *testing.T) {
	h := newHarness(t, 3, nil, nil)
	// Later arrivals decode first; promotion still follows arrival order
	h.decoder.delays = map[string]time.Duration{"A": 40 * time.Millisecond, "B": 20 * time.Millisecond}

	var evicted []string
	h.e.Register(event.HandlerFunc{
		Types: []event.EventType{event.EventEntityEvicted},
		Fn:    func(ev event.Event) { evicted = append(evicted, ev.Payload.(*event.EntityPayload).ID) },
	})
	h.e.Start()
	h.e.Resize(200, 100)

	for _, id := range []string{"A", "B", "C", "D"} {
		h.e.Insert(id, src(id))
	}
	waitFor(t, h.e, func() bool { return h.e.Pool().PendingLen() == 0 && h.e.Pool().Len() == 3 })

	var ids, ev []string
	var indexed int
	waitFor(t, h.e, func() bool {
		ids, ev, indexed = liveIDs(h.e), slices.Clone(evicted), h.e.Grid().Len()
		return true
	})
	if !slices.Equal(ids, []string{"B", "C", "D"}) {
		t.Errorf("live = %v, want [B C D]", ids)
	}
	if !slices.Equal(ev, []string{"A"}) {
		t.Errorf("evicted = %v, want [A]", ev)
	}
	if indexed != 3 {
		t.Errorf("grid holds %d entries, want 3", indexed)
	}

	h.e.InsertBatch([]asset.Arrival{{ID: "E", Source: src("E")}, {ID: "F", Source: src("F")}})
	waitFor(t, h.e, func() bool { return slices.Equal(liveIDs(h.e), []string{"D", "E", "F"}) })

	reg := h.e.Registry()
	if got := reg.Ints.Get("pool.evicted").Load(); got != 3 {
		t.Errorf("pool.evicted = %d, want 3", got)
	}
	released := 0
	for _, v := range h.decoder.visuals() {
		if v.Released() {
			released++
		}
	}
	if released != 3 {
		t.Errorf("released visuals = %d, want 3", released)
	}
}

func TestDecodeFailureDropsEntity(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := newHarness(t, 5, zap.New(core), nil)
	h.decoder.fail = map[string]error{"bad": errors.New("corrupt")}

	var dropped atomic.Int32
	h.e.Register(event.HandlerFunc{
		Types: []event.EventType{event.EventEntityDropped},
		Fn:    func(event.Event) { dropped.Add(1) },
	})
	h.e.Start()
	h.e.Resize(200, 100)

	h.e.Insert("good", src("good"))
	h.e.Insert("bad", src("bad"))
	h.e.Insert("good2", src("good2"))
	waitFor(t, h.e, func() bool { return h.e.Pool().PendingLen() == 0 && h.e.Pool().Len() == 2 })

	var ids []string
	waitFor(t, h.e, func() bool { ids = liveIDs(h.e); return true })
	if !slices.Equal(ids, []string{"good", "good2"}) {
		t.Errorf("live = %v", ids)
	}
	if got := h.e.Registry().Ints.Get("asset.failed").Load(); got != 1 {
		t.Errorf("asset.failed = %d, want 1", got)
	}
	if dropped.Load() != 1 {
		t.Errorf("dropped events = %d, want 1", dropped.Load())
	}

	entries := logs.FilterMessage("asset decode failed, entity dropped").All()
	if len(entries) != 1 {
		t.Fatalf("warn logs = %d, want 1", len(entries))
	}
	if id := entries[0].ContextMap()["id"]; id != "bad" {
		t.Errorf("logged id = %v, want bad", id)
	}

	// Frames keep flowing after a failure
	if !h.frames.Tick(time.Second) {
		t.Error("no frame after decode failure")
	}
}

func TestLateDecodeReleasedAfterStop(t *testing.T) {
	h := newHarness(t, 5, nil, nil)
	h.decoder.block = make(chan struct{})
	h.decoder.entered = make(chan struct{}, 1)
	h.e.Start()
	h.e.Resize(200, 100)
	h.e.Insert("late", src("late"))

	select {
	case <-h.decoder.entered:
	case <-time.After(time.Second):
		t.Fatal("decode never started")
	}
	h.e.Stop()
	close(h.decoder.block)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if vs := h.decoder.visuals(); len(vs) == 1 && vs[0].Released() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("late visual was not released")
}

func TestRemoveTearsDownEveryMatch(t *testing.T) {
	h := newHarness(t, 5, nil, nil)
	h.e.Start()
	h.e.Resize(200, 100)

	for _, id := range []string{"x", "y", "x"} {
		h.e.Insert(id, src(id))
	}
	waitFor(t, h.e, func() bool { return h.e.Pool().Len() == 3 })

	h.e.Remove("x")
	waitFor(t, h.e, func() bool {
		return slices.Equal(liveIDs(h.e), []string{"y"}) && h.e.Grid().Len() == 1
	})
}

func TestFramesAdvanceWithClampedDelta(t *testing.T) {
	h := newHarness(t, 5, nil, nil)
	h.e.Start()
	h.e.Resize(400, 300)
	h.e.Insert("a", src("a"))
	waitFor(t, h.e, func() bool { return h.e.Pool().Len() == 1 })

	var pos vmath.Vec2
	var maxSpeed float64
	read := func() {
		waitFor(t, h.e, func() bool {
			ent := h.e.Pool().Live()[0]
			pos, maxSpeed = ent.Pos, ent.Params.MaxSpeed
			return true
		})
	}

	// First frame uses dt=0
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame")
	}
	read()
	if pos != vmath.V(200, 150) {
		t.Errorf("pos after first frame = %v, want centre", pos)
	}

	h.clock.Advance(50 * time.Millisecond)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame")
	}
	prev := pos
	read()
	if pos == prev {
		t.Error("entity did not move")
	}

	// A stalled host is clamped to MaxFrameDelta
	h.clock.Advance(10 * time.Second)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame")
	}
	prev = pos
	read()
	limit := maxSpeed*0.1 + 1e-9
	if d := pos.Sub(prev).Len(); d > limit {
		t.Errorf("moved %.3f in one frame, limit %.3f", d, limit)
	}

	if got := h.presenter.frames.Load(); got != 3 {
		t.Errorf("presented %d frames, want 3", got)
	}
	if got := h.e.Registry().Ints.Get("engine.ticks").Load(); got != 3 {
		t.Errorf("engine.ticks = %d, want 3", got)
	}
}

func TestDriftStrategyRuns(t *testing.T) {
	rng := vmath.NewFastRand(3)
	h := newHarness(t, 2, nil, func(o *Options) {
		o.Strategy = motion.NewDrift(motion.DefaultDriftConfig(), motion.NewSineField(rng))
	})
	h.e.Start()
	h.e.Resize(300, 200)
	h.e.Insert("s", src("s"))
	waitFor(t, h.e, func() bool { return h.e.Pool().Len() == 1 })

	for range 5 {
		h.clock.Advance(20 * time.Millisecond)
		if !h.frames.Tick(time.Second) {
			t.Fatal("no frame")
		}
	}
	waitFor(t, h.e, func() bool {
		ent := h.e.Pool().Live()[0]
		return ent.Kind == entity.Drift && ent.Pos.X > -150 && ent.Mod.Opacity > 0
	})
}

func TestRunReturnsOnCancel(t *testing.T) {
	h := newHarness(t, 2, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.e.Run(ctx) }()

	h.e.Resize(50, 50)
	if !h.frames.Tick(time.Second) {
		t.Fatal("no frame")
	}
	cancel()
	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
