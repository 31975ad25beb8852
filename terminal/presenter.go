// Package terminal shows the composited raster in a tcell screen and feeds resize and quit input back
package terminal

import (
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/sketchwall/core"
	"github.com/lixenwraith/sketchwall/render"
	"github.com/lixenwraith/sketchwall/status"
)

// halfBlock draws the top pixel as foreground and the bottom pixel as background
const halfBlock = '▀'

// WorldSize returns the raster size for a screen of cols by rows cells
func WorldSize(cols, rows int) (w, h int) { return cols, rows * 2 }

// OpenScreen initializes a tcell screen and registers it for crash restoration
func OpenScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()
	core.OnCrash(screen.Fini)
	return screen, nil
}

// Presenter maps two raster rows onto each screen row
type Presenter struct {
	screen   tcell.Screen
	mode     ColorMode
	reg      *status.Registry
	hud      bool
	hudStyle tcell.Style
	line     strings.Builder
}

// NewPresenter draws into screen; reg may be nil when hud is false
func NewPresenter(screen tcell.Screen, mode ColorMode, reg *status.Registry, hud bool) *Presenter {
	return &Presenter{
		screen:   screen,
		mode:     mode,
		reg:      reg,
		hud:      hud && reg != nil,
		hudStyle: tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack),
	}
}

func (p *Presenter) Present(r *render.Raster) error {
	cols, rows := p.screen.Size()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := r.At(x, 2*y)
			bottom := r.At(x, 2*y+1)
			style := tcell.StyleDefault.
				Foreground(toColor(top, p.mode)).
				Background(toColor(bottom, p.mode))
			p.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}
	if p.hud {
		p.drawHUD(cols)
	}
	p.screen.Show()
	return nil
}

// drawHUD writes the metrics on the first row, truncated to the screen width
func (p *Presenter) drawHUD(cols int) {
	p.line.Reset()
	for i, e := range p.reg.Snapshot() {
		if i > 0 {
			p.line.WriteString("  ")
		}
		p.line.WriteString(e.Key)
		p.line.WriteByte('=')
		p.line.WriteString(e.Value)
	}
	x := 0
	for _, ch := range p.line.String() {
		if x >= cols {
			break
		}
		p.screen.SetContent(x, 0, ch, nil, p.hudStyle)
		x++
	}
}
