package engine

import (
	"sync"
	"time"
)

// FrameSource is the host's per-frame callback as a channel
// The loop only receives from C while the frame gate is open
type FrameSource interface {
	C() <-chan time.Time
	Stop()
}

// FrameAcker is implemented by sources that wait for each frame to finish
type FrameAcker interface {
	FrameDone()
}

// TickerSource fires at a fixed interval; the ticker starts on first use
type TickerSource struct {
	interval time.Duration
	once     sync.Once
	ticker   *time.Ticker
	mu       sync.Mutex
	stopped  bool
}

func NewTickerSource(interval time.Duration) *TickerSource {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickerSource{interval: interval}
}

func (s *TickerSource) C() <-chan time.Time {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ticker = time.NewTicker(s.interval)
		if s.stopped {
			s.ticker.Stop()
		}
	})
	return s.ticker.C
}

func (s *TickerSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.ticker != nil {
		s.ticker.Stop()
	}
}

// ManualFrameSource delivers frames only when a test calls Tick
type ManualFrameSource struct {
	clock    Clock
	ch       chan time.Time
	ack      chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
}

func NewManualFrameSource(clock Clock) *ManualFrameSource {
	return &ManualFrameSource{
		clock: clock,
		ch:    make(chan time.Time),
		ack:   make(chan struct{}, 1),
		stop:  make(chan struct{}),
	}
}

func (s *ManualFrameSource) C() <-chan time.Time { return s.ch }

func (s *ManualFrameSource) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// FrameDone is called by the loop after each frame is presented
func (s *ManualFrameSource) FrameDone() {
	select {
	case s.ack <- struct{}{}:
	default:
	}
}

// Tick hands one frame to the loop and waits until it has been presented
// Returns false if the loop did not take the frame within timeout
func (s *ManualFrameSource) Tick(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s.ch <- s.clock.Now():
	case <-timer.C:
		return false
	case <-s.stop:
		return false
	}

	select {
	case <-s.ack:
		return true
	case <-timer.C:
		return false
	}
}
