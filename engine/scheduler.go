package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/core"
	"github.com/lixenwraith/sketchwall/event"
	"github.com/lixenwraith/sketchwall/render"
)

// Start begins the control loop; later calls and calls after Stop are no-ops
func (e *Engine) Start() {
	if e.stopping.Load() {
		return
	}
	if e.running.CompareAndSwap(false, true) {
		e.statState.Store("waiting")
		// Use core.Go for safe execution with centralized crash handling
		core.Go(e.loop)
	}
}

// Stop halts the loop and releases everything the engine owns, then waits for teardown
// Safe before Start and more than once; must not be called from an event handler
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.stopping.Store(true)
		close(e.stopChan)
		// Claiming running here means no loop exists to tear down
		if e.running.CompareAndSwap(false, true) {
			e.teardown()
		}
	})
	<-e.done
}

// Run starts the engine and blocks until ctx is canceled or the engine stops
func (e *Engine) Run(ctx context.Context) error {
	e.Start()
	select {
	case <-ctx.Done():
		e.Stop()
		return ctx.Err()
	case <-e.done:
		return nil
	}
}

// gateOpen reports whether frames may be scheduled: a valid surface and a settled background
func (e *Engine) gateOpen() bool {
	if !e.surface.Valid() {
		return false
	}
	select {
	case <-e.opts.Background.Ready():
		return true
	default:
		return false
	}
}

// loop is the single control goroutine
func (e *Engine) loop() {
	defer e.teardown()

	gated := true
	for {
		var frames <-chan time.Time
		var ready <-chan struct{}
		if e.gateOpen() {
			if gated {
				gated = false
				e.statState.Store("running")
				e.log.Info("frame loop started", zap.String("background", e.opts.Background.State().String()))
			}
			frames = e.opts.Frames.C()
		} else if e.surface.Valid() {
			ready = e.opts.Background.Ready()
		}

		select {
		case <-e.stopChan:
			return
		case <-e.inbox.Signal():
			e.drain()
		case <-ready:
			// Gate re-evaluated on the next pass
		case <-frames:
			e.tick()
		}
	}
}

// tick runs one frame: messages, motion, index refresh, composite, present
func (e *Engine) tick() {
	now := e.opts.Clock.Now()
	var dt time.Duration
	if !e.lastTick.IsZero() {
		dt = min(max(now.Sub(e.lastTick), 0), e.opts.MaxFrameDelta)
	}
	e.lastTick = now

	e.drain()
	e.frame++

	live := e.pool.Live()
	step := dt.Seconds()
	for _, ent := range live {
		e.opts.Strategy.Update(ent, e.world, step)
	}
	for _, ent := range live {
		ent.Snapshot()
		e.grid.InsertOrUpdate(ent.Handle, ent.Pos)
	}

	raster := e.surface.Raster()
	e.opts.Compositor.Render(raster, e.opts.Background, live, now, e.grid)
	if err := e.opts.Presenter.Present(raster); err != nil {
		e.log.Warn("present failed", zap.Uint64("frame", e.frame), zap.Error(err))
	}
	if acker, ok := e.opts.Frames.(FrameAcker); ok {
		acker.FrameDone()
	}

	e.statTicks.Store(int64(e.frame))
	if dt > 0 {
		e.statFPS.Smooth(1/step, 0.1)
	}
	e.statBackground.Store(e.opts.Background.State().String())
}

// teardown releases every owned resource exactly once
func (e *Engine) teardown() {
	e.teardownOnce.Do(func() {
		e.opts.Frames.Stop()

		e.deliverMu.Lock()
		e.closed = true
		e.deliverMu.Unlock()
		e.decodeCancel()

		// Queued results and inspections will never be dispatched
		for _, ev := range e.inbox.Drain(nil) {
			switch p := ev.Payload.(type) {
			case *event.DecodedPayload:
				if p.Visual != nil {
					p.Visual.Release()
				}
			case *event.InspectPayload:
				close(p.Done)
			}
		}

		if f, ok := e.opts.Presenter.(render.Finalizer); ok && e.surface.Valid() {
			if err := f.Final(e.surface.Raster()); err != nil {
				e.log.Warn("final present failed", zap.Error(err))
			}
		}

		released := e.pool.Clear()
		if e.grid != nil {
			e.grid.Clear()
		}
		if err := e.opts.Background.Close(); err != nil {
			e.log.Warn("background close failed", zap.Error(err))
		}

		e.statLive.Store(0)
		e.statPending.Store(0)
		e.statState.Store("stopped")
		e.log.Info("engine stopped", zap.Int("released", len(released)), zap.Uint64("frames", e.frame))
		close(e.done)
	})
}
