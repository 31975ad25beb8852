package terminal

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/core"
)

// Sink receives the raster size derived from the screen
type Sink interface {
	Resize(w, h int)
}

// Pump forwards screen events until the screen is finalized or a quit key is pressed
type Pump struct {
	screen   tcell.Screen
	sink     Sink
	log      *zap.Logger
	quit     chan struct{}
	quitOnce sync.Once
}

func NewPump(screen tcell.Screen, sink Sink, log *zap.Logger) *Pump {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pump{
		screen: screen,
		sink:   sink,
		log:    log.Named("input"),
		quit:   make(chan struct{}),
	}
}

// Start reports the current size then polls events on its own goroutine
func (p *Pump) Start() {
	p.sink.Resize(WorldSize(p.screen.Size()))
	core.Go(p.run)
}

// Quit is closed on a quit key or when the screen stops delivering events
func (p *Pump) Quit() <-chan struct{} { return p.quit }

func (p *Pump) run() {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			p.signalQuit()
			return
		}
		p.handle(ev)
	}
}

func (p *Pump) handle(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		p.screen.Sync()
		p.log.Debug("resize", zap.Int("cols", cols), zap.Int("rows", rows))
		p.sink.Resize(WorldSize(cols, rows))
	case *tcell.EventKey:
		if isQuit(ev.Key(), ev.Rune()) {
			p.signalQuit()
		}
	}
}

func (p *Pump) signalQuit() {
	p.quitOnce.Do(func() { close(p.quit) })
}

func isQuit(k tcell.Key, r rune) bool {
	switch k {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return r == 'q' || r == 'Q'
	}
	return false
}
