package terminal

import (
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/status"
)

type cell struct {
	ch    rune
	style tcell.Style
}

// MockScreen is a minimal mock for tcell.Screen used in tests
type MockScreen struct {
	tcell.Screen
	width, height int
	cells         map[[2]int]cell
	shows         int
	events        chan tcell.Event
}

func newMockScreen(w, h int) *MockScreen {
	return &MockScreen{width: w, height: h, cells: make(map[[2]int]cell), events: make(chan tcell.Event, 4)}
}

func (m *MockScreen) Size() (int, int) { return m.width, m.height }
func (m *MockScreen) Show()            { m.shows++ }
func (m *MockScreen) Sync()            {}
func (m *MockScreen) PollEvent() tcell.Event {
	ev, ok := <-m.events
	if !ok {
		return nil
	}
	return ev
}

func (m *MockScreen) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	m.cells[[2]int{x, y}] = cell{mainc, style}
}

type recordingSink struct {
	mu    sync.Mutex
	sizes [][2]int
}

func (s *recordingSink) Resize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sizes = append(s.sizes, [2]int{w, h})
}

func (s *recordingSink) last() ([2]int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sizes) == 0 {
		return [2]int{}, 0
	}
	return s.sizes[len(s.sizes)-1], len(s.sizes)
}

func TestPresenterHalfBlocks(t *testing.T) {
	screen := newMockScreen(2, 2)
	p := NewPresenter(screen, ColorModeTrueColor, nil, false)

	r := render.NewRaster(2, 4, render.RGBBlack)
	r.Set(0, 0, render.RGB{R: 255})
	r.Set(0, 1, render.RGB{B: 255})
	r.Set(1, 3, render.RGBWhite)

	if err := p.Present(r); err != nil {
		t.Fatalf("Present: %v", err)
	}
	if screen.shows != 1 {
		t.Errorf("Show called %d times", screen.shows)
	}

	tests := []struct {
		x, y   int
		fg, bg tcell.Color
	}{
		{0, 0, tcell.NewRGBColor(255, 0, 0), tcell.NewRGBColor(0, 0, 255)},
		{1, 0, tcell.NewRGBColor(0, 0, 0), tcell.NewRGBColor(0, 0, 0)},
		{1, 1, tcell.NewRGBColor(0, 0, 0), tcell.NewRGBColor(255, 255, 255)},
	}
	for _, tt := range tests {
		c, ok := screen.cells[[2]int{tt.x, tt.y}]
		if !ok {
			t.Fatalf("cell (%d,%d) not drawn", tt.x, tt.y)
		}
		if c.ch != halfBlock {
			t.Errorf("cell (%d,%d) rune = %q", tt.x, tt.y, c.ch)
		}
		fg, bg, _ := c.style.Decompose()
		if fg != tt.fg || bg != tt.bg {
			t.Errorf("cell (%d,%d) = fg %v bg %v, want fg %v bg %v", tt.x, tt.y, fg, bg, tt.fg, tt.bg)
		}
	}
}

func TestPresenterHUD(t *testing.T) {
	reg := status.NewRegistry()
	reg.Ints.Get("pool.live").Store(7)
	screen := newMockScreen(40, 2)
	p := NewPresenter(screen, ColorMode256, reg, true)

	if err := p.Present(render.NewRaster(40, 4, render.RGBBlack)); err != nil {
		t.Fatalf("Present: %v", err)
	}
	var got []rune
	for x := 0; x < len("pool.live=7"); x++ {
		got = append(got, screen.cells[[2]int{x, 0}].ch)
	}
	if string(got) != "pool.live=7" {
		t.Errorf("HUD = %q", string(got))
	}
}

func TestRGBTo256(t *testing.T) {
	tests := []struct {
		name string
		c    render.RGB
		want uint8
	}{
		{"black", render.RGB{}, 16},
		{"white", render.RGB{R: 255, G: 255, B: 255}, 231},
		{"red", render.RGB{R: 255}, 196},
		{"mid gray", render.RGB{R: 128, G: 128, B: 128}, 244},
		{"cube blue", render.RGB{B: 255}, 21},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RGBTo256(tt.c); got != tt.want {
				t.Errorf("RGBTo256(%v) = %d, want %d", tt.c, got, tt.want)
			}
		})
	}
}

func TestParseColorMode(t *testing.T) {
	if m, err := ParseColorMode("truecolor"); err != nil || m != ColorModeTrueColor {
		t.Errorf("truecolor = %v, %v", m, err)
	}
	if m, err := ParseColorMode("256"); err != nil || m != ColorMode256 {
		t.Errorf("256 = %v, %v", m, err)
	}
	if _, err := ParseColorMode("cga"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestPumpResizeAndQuit(t *testing.T) {
	screen := newMockScreen(80, 24)
	sink := &recordingSink{}
	p := NewPump(screen, sink, nil)
	p.Start()

	if size, n := sink.last(); n != 1 || size != [2]int{80, 48} {
		t.Fatalf("initial size = %v (%d calls)", size, n)
	}

	screen.events <- tcell.NewEventResize(100, 30)
	deadline := time.Now().Add(time.Second)
	for {
		if size, _ := sink.last(); size == [2]int{100, 60} {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("resize not forwarded")
		}
		time.Sleep(5 * time.Millisecond)
	}

	close(screen.events)
	select {
	case <-p.Quit():
	case <-time.After(time.Second):
		t.Fatal("Quit not closed after screen finalized")
	}
}

func TestIsQuit(t *testing.T) {
	tests := []struct {
		key  tcell.Key
		r    rune
		want bool
	}{
		{tcell.KeyEscape, 0, true},
		{tcell.KeyCtrlC, 0, true},
		{tcell.KeyRune, 'q', true},
		{tcell.KeyRune, 'x', false},
		{tcell.KeyEnter, 0, false},
	}
	for _, tt := range tests {
		if got := isQuit(tt.key, tt.r); got != tt.want {
			t.Errorf("isQuit(%v, %q) = %v, want %v", tt.key, tt.r, got, tt.want)
		}
	}
}
