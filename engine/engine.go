// Package engine runs the single control loop that owns the pool, the spatial index and the surface
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/event"
	"github.com/lixenwraith/sketchwall/motion"
	"github.com/lixenwraith/sketchwall/parameter"
	"github.com/lixenwraith/sketchwall/pool"
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/spatial"
	"github.com/lixenwraith/sketchwall/status"
	"github.com/lixenwraith/sketchwall/vmath"
)

var (
	ErrStopped   = errors.New("engine stopped")
	ErrInboxFull = errors.New("engine inbox full")
)

// Options wires an Engine; zero values fall back to parameter defaults
type Options struct {
	Capacity      int
	CellSize      float64
	MaxFrameDelta time.Duration
	DecodeWorkers int
	DecodeTimeout time.Duration
	Seed          uint64

	Strategy   motion.Strategy
	Decoder    asset.Decoder
	Background asset.Background
	Compositor *render.Compositor
	Presenter  render.Presenter

	Clock    Clock
	Frames   FrameSource
	Registry *status.Registry
}

// Engine is the bounded live-entity animation engine
// Public methods only enqueue messages and are safe from any goroutine
// Pool, grid and surface are touched only by the control loop, or by Stop when the loop never started
type Engine struct {
	opts Options
	log  *zap.Logger

	inbox   *event.Queue
	router  *event.Router
	pool    *pool.Pool
	grid    *spatial.Grid
	surface *SurfaceManager
	world   frameWorld
	rng     *vmath.FastRand

	nextHandle entity.Handle
	frame      uint64
	lastTick   time.Time
	batch      []event.Event

	// Decode workers
	decodeSem    chan struct{}
	decodeCtx    context.Context
	decodeCancel context.CancelFunc
	deliverMu    sync.Mutex
	closed       bool // Guarded by deliverMu; set once teardown begins

	// Lifecycle
	running      atomic.Bool
	stopping     atomic.Bool
	stopChan     chan struct{}
	stopOnce     sync.Once
	teardownOnce sync.Once
	done         chan struct{}

	// Cached metric pointers
	statTicks      *atomic.Int64
	statFPS        *status.AtomicFloat
	statState      *status.AtomicString
	statLive       *atomic.Int64
	statPending    *atomic.Int64
	statEvicted    *atomic.Int64
	statDecoded    *atomic.Int64
	statFailed     *atomic.Int64
	statRejected   *atomic.Int64
	statBackground *status.AtomicString
}

// New creates a stopped engine; Strategy, Compositor and Presenter are required
func New(opts Options, log *zap.Logger) *Engine {
	if opts.Strategy == nil || opts.Compositor == nil || opts.Presenter == nil {
		panic("engine: Strategy, Compositor and Presenter are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Capacity <= 0 {
		opts.Capacity = 1
	}
	if opts.MaxFrameDelta <= 0 {
		opts.MaxFrameDelta = parameter.MaxFrameDelta
	}
	if opts.DecodeWorkers <= 0 {
		opts.DecodeWorkers = parameter.DecodeWorkers
	}
	if opts.DecodeTimeout <= 0 {
		opts.DecodeTimeout = parameter.DecodeTimeout
	}
	if opts.Decoder == nil {
		opts.Decoder = asset.NewImageDecoder(parameter.MaxVisualDimension)
	}
	if opts.Background == nil {
		opts.Background = asset.NoBackground{}
	}
	if opts.Clock == nil {
		opts.Clock = NewTimeProvider()
	}
	if opts.Frames == nil {
		opts.Frames = NewTickerSource(parameter.FrameUpdateInterval)
	}
	if opts.Registry == nil {
		opts.Registry = status.NewRegistry()
	}

	e := &Engine{
		opts:      opts,
		log:       log.Named("engine"),
		inbox:     event.NewQueue(),
		router:    event.NewRouter(),
		pool:      pool.New(opts.Capacity),
		surface:   NewSurfaceManager(opts.Compositor.Backdrop()),
		rng:       vmath.NewFastRand(opts.Seed),
		decodeSem: make(chan struct{}, opts.DecodeWorkers),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	e.world = frameWorld{e}
	e.decodeCtx, e.decodeCancel = context.WithCancel(context.Background())

	reg := opts.Registry
	e.statTicks = reg.Ints.Get("engine.ticks")
	e.statFPS = reg.Floats.Get("engine.fps")
	e.statState = reg.Strings.Get("engine.state")
	e.statLive = reg.Ints.Get("pool.live")
	e.statPending = reg.Ints.Get("pool.pending")
	e.statEvicted = reg.Ints.Get("pool.evicted")
	e.statDecoded = reg.Ints.Get("asset.decoded")
	e.statFailed = reg.Ints.Get("asset.failed")
	e.statRejected = reg.Ints.Get("engine.rejected")
	e.statBackground = reg.Strings.Get("background.state")
	e.statState.Store("idle")

	return e
}

// Register adds an outbound event handler, must be called before Start()
func (e *Engine) Register(h event.Handler) {
	e.router.Register(h)
}

// Registry returns the metrics the engine writes
func (e *Engine) Registry() *status.Registry { return e.opts.Registry }

// Done is closed once teardown has finished
func (e *Engine) Done() <-chan struct{} { return e.done }

// Insert requests a new entity for id; the visual decodes asynchronously
func (e *Engine) Insert(id string, src asset.Source) {
	e.push(event.EventInsert, &event.InsertPayload{ID: id, Source: src})
}

// InsertBatch requests several entities that arrive together, in slice order
func (e *Engine) InsertBatch(arrivals []asset.Arrival) {
	if len(arrivals) == 0 {
		return
	}
	e.push(event.EventInsertBatch, &event.InsertBatchPayload{Arrivals: arrivals})
}

// Resize reports the presentation area; degenerate sizes are ignored until a valid one arrives
func (e *Engine) Resize(w, h int) {
	e.push(event.EventResize, &event.ResizePayload{Width: w, Height: h})
}

// Remove tears down every live and pending entity with id
func (e *Engine) Remove(id string) {
	e.push(event.EventRemove, &event.RemovePayload{ID: id})
}

// Inspect runs fn on the control loop between frames and waits for it
// fn may read engine-owned state through the accessors documented as loop-only
func (e *Engine) Inspect(ctx context.Context, fn func()) error {
	ran := false
	p := &event.InspectPayload{
		Fn:   func() { fn(); ran = true },
		Done: make(chan struct{}),
	}
	if !e.push(event.EventInspect, p) {
		return ErrInboxFull
	}
	select {
	case <-p.Done:
		if !ran {
			return ErrStopped
		}
		return nil
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) push(t event.EventType, payload any) bool {
	if e.inbox.Push(event.Event{Type: t, Payload: payload}) {
		return true
	}
	e.statRejected.Add(1)
	e.log.Warn("inbox full, message dropped", zap.String("type", t.String()))
	return false
}

// Pool returns the entity pool; loop-only
func (e *Engine) Pool() *pool.Pool { return e.pool }

// Grid returns the spatial index, nil before the first valid resize; loop-only
func (e *Engine) Grid() *spatial.Grid { return e.grid }

// Surface returns the surface manager; loop-only
func (e *Engine) Surface() *SurfaceManager { return e.surface }

// Frame returns the number of frames rendered; loop-only
func (e *Engine) Frame() uint64 { return e.frame }

// drain dispatches queued messages, then promotes settled arrivals
func (e *Engine) drain() {
	for range parameter.DispatchIterations {
		e.batch = e.inbox.Drain(e.batch[:0])
		if len(e.batch) == 0 {
			break
		}
		for i := range e.batch {
			e.dispatch(e.batch[i])
			e.batch[i] = event.Event{}
		}
	}
	if e.surface.Valid() {
		e.promote()
	}
}

func (e *Engine) dispatch(ev event.Event) {
	switch ev.Type {
	case event.EventInsert:
		p := ev.Payload.(*event.InsertPayload)
		e.admit(p.ID, p.Source)

	case event.EventInsertBatch:
		p := ev.Payload.(*event.InsertBatchPayload)
		for _, a := range p.Arrivals {
			e.admit(a.ID, a.Source)
		}

	case event.EventDecoded:
		p := ev.Payload.(*event.DecodedPayload)
		if !e.pool.Resolve(entity.Handle(p.Handle), p.Visual, p.Err) {
			// Entity was removed while decoding
			if p.Visual != nil {
				p.Visual.Release()
			}
		}

	case event.EventResize:
		p := ev.Payload.(*event.ResizePayload)
		e.resize(p.Width, p.Height)

	case event.EventRemove:
		p := ev.Payload.(*event.RemovePayload)
		for _, ent := range e.pool.Remove(p.ID) {
			if e.grid != nil {
				e.grid.Remove(ent.Handle)
			}
			e.emit(event.EventEntityRemoved, ent, nil)
		}
		e.statLive.Store(int64(e.pool.Len()))
		e.statPending.Store(int64(e.pool.PendingLen()))

	case event.EventInspect:
		p := ev.Payload.(*event.InspectPayload)
		p.Fn()
		close(p.Done)

	default:
		e.log.Warn("unhandled message", zap.String("type", ev.Type.String()))
	}
}

func (e *Engine) resize(w, h int) {
	changed, first := e.surface.Resize(w, h)
	switch {
	case first:
		e.grid = spatial.NewGrid(e.surface.Bounds(), e.opts.CellSize)
		e.log.Info("surface ready", zap.Int("width", w), zap.Int("height", h))
		e.router.Dispatch(event.Event{
			Type:    event.EventSurfaceReady,
			Frame:   e.frame,
			Payload: &event.ResizePayload{Width: w, Height: h},
		})
	case changed:
		e.grid.Resize(e.surface.Bounds())
		e.log.Debug("surface resized", zap.Int("width", w), zap.Int("height", h))
	default:
		if w <= 0 || h <= 0 {
			e.log.Debug("degenerate resize deferred", zap.Int("width", w), zap.Int("height", h))
		}
	}
}

// admit creates a pending entity and starts its decode
func (e *Engine) admit(id string, src asset.Source) {
	e.nextHandle++
	ent := entity.New(e.nextHandle, id, e.opts.Strategy.Kind())
	e.pool.Enqueue(ent)
	e.statPending.Store(int64(e.pool.PendingLen()))
	e.startDecode(ent.Handle, src)
}

// promote moves settled arrivals live in arrival order
func (e *Engine) promote() {
	transitions := e.pool.Promote(e.activate)
	if len(transitions) == 0 {
		return
	}
	for _, t := range transitions {
		if t.Dropped() {
			e.statFailed.Add(1)
			e.log.Warn("asset decode failed, entity dropped",
				zap.String("id", t.Entity.ID),
				zap.Uint64("handle", uint64(t.Entity.Handle)),
				zap.Error(t.Err))
			e.emit(event.EventEntityDropped, t.Entity, t.Err)
			continue
		}
		e.statDecoded.Add(1)
		if t.Evicted != nil {
			e.grid.Remove(t.Evicted.Handle)
			e.statEvicted.Add(1)
			e.emit(event.EventEntityEvicted, t.Evicted, nil)
		}
		e.grid.InsertOrUpdate(t.Entity.Handle, t.Entity.Pos)
		e.emit(event.EventEntityLive, t.Entity, nil)
	}
	e.statLive.Store(int64(e.pool.Len()))
	e.statPending.Store(int64(e.pool.PendingLen()))
}

func (e *Engine) activate(ent *entity.Entity, v *asset.Visual) {
	params := e.opts.Strategy.Spawn(ent, e.surface.Bounds(), e.rng)
	ent.MarkLive(v, params, e.opts.Clock.Now())
}

func (e *Engine) emit(t event.EventType, ent *entity.Entity, err error) {
	if e.router.HandlerCount(t) == 0 {
		return
	}
	e.router.Dispatch(event.Event{
		Type:  t,
		Frame: e.frame,
		Payload: &event.EntityPayload{
			Handle: uint64(ent.Handle),
			ID:     ent.ID,
			Age:    ent.Age(e.opts.Clock.Now()),
			Live:   e.pool.Len(),
			Err:    err,
		},
	})
}

// frameWorld exposes the previous frame's index to motion models
type frameWorld struct{ e *Engine }

func (w frameWorld) Bounds() vmath.Rect { return w.e.surface.Bounds() }

func (w frameWorld) Neighbors(center vmath.Vec2, r float64, dst []entity.Handle) []entity.Handle {
	return w.e.grid.QueryRadius(center, r, dst)
}

func (w frameWorld) Lookup(h entity.Handle) *entity.Entity { return w.e.pool.Get(h) }
