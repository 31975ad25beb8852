// Package spatial provides a uniform grid for radius queries over moving points
package spatial

import (
	"math"

	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/vmath"
)

type slot struct {
	handle entity.Handle
	pos    vmath.Vec2
}

// Grid is a dense uniform grid over bounds; points outside clamp into edge cells
// Each handle has exactly one entry; InsertOrUpdate replaces
// Not safe for concurrent use
type Grid struct {
	cellSize float64
	origin   vmath.Vec2
	cols     int
	rows     int
	cells    [][]slot              // index = row*cols + col
	where    map[entity.Handle]int // handle -> cell index
}

// NewGrid creates a grid covering bounds with square cells of cellSize
func NewGrid(bounds vmath.Rect, cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = 64
	}
	g := &Grid{
		cellSize: cellSize,
		where:    make(map[entity.Handle]int),
	}
	g.layout(bounds)
	return g
}

func (g *Grid) layout(bounds vmath.Rect) {
	g.origin = bounds.Min
	g.cols = max(1, int(math.Ceil(bounds.Width()/g.cellSize)))
	g.rows = max(1, int(math.Ceil(bounds.Height()/g.cellSize)))
	g.cells = make([][]slot, g.cols*g.rows)
}

// Resize rebuilds the cell layout for new bounds, keeping every entry
func (g *Grid) Resize(bounds vmath.Rect) {
	old := g.cells
	g.layout(bounds)
	for _, cell := range old {
		for _, s := range cell {
			idx := g.cellIndex(s.pos)
			g.cells[idx] = append(g.cells[idx], s)
			g.where[s.handle] = idx
		}
	}
}

func (g *Grid) col(x float64) int {
	c := int(math.Floor((x - g.origin.X) / g.cellSize))
	return min(max(c, 0), g.cols-1)
}

func (g *Grid) row(y float64) int {
	r := int(math.Floor((y - g.origin.Y) / g.cellSize))
	return min(max(r, 0), g.rows-1)
}

func (g *Grid) cellIndex(p vmath.Vec2) int {
	return g.row(p.Y)*g.cols + g.col(p.X)
}

// InsertOrUpdate records the latest position of h
func (g *Grid) InsertOrUpdate(h entity.Handle, pos vmath.Vec2) {
	idx := g.cellIndex(pos)
	if cur, ok := g.where[h]; ok {
		if cur == idx {
			cell := g.cells[idx]
			for i := range cell {
				if cell[i].handle == h {
					cell[i].pos = pos
					return
				}
			}
		}
		g.removeFrom(cur, h)
	}
	g.cells[idx] = append(g.cells[idx], slot{handle: h, pos: pos})
	g.where[h] = idx
}

// Remove deletes h; unknown handles are ignored
func (g *Grid) Remove(h entity.Handle) {
	if cur, ok := g.where[h]; ok {
		g.removeFrom(cur, h)
		delete(g.where, h)
	}
}

// removeFrom swap-removes h from one cell
func (g *Grid) removeFrom(idx int, h entity.Handle) {
	cell := g.cells[idx]
	for i := range cell {
		if cell[i].handle == h {
			last := len(cell) - 1
			cell[i] = cell[last]
			g.cells[idx] = cell[:last]
			return
		}
	}
}

// QueryRadius appends every handle within r of center (inclusive) to dst
// Order is unspecified
func (g *Grid) QueryRadius(center vmath.Vec2, r float64, dst []entity.Handle) []entity.Handle {
	if r < 0 || len(g.where) == 0 {
		return dst
	}
	r2 := r * r
	c0, c1 := g.col(center.X-r), g.col(center.X+r)
	r0, r1 := g.row(center.Y-r), g.row(center.Y+r)
	for row := r0; row <= r1; row++ {
		base := row * g.cols
		for col := c0; col <= c1; col++ {
			for _, s := range g.cells[base+col] {
				if s.pos.DistSq(center) <= r2 {
					dst = append(dst, s.handle)
				}
			}
		}
	}
	return dst
}

// Nearest returns the closest entry other than self within maxR
func (g *Grid) Nearest(center vmath.Vec2, self entity.Handle, maxR float64) (entity.Handle, float64, bool) {
	if maxR < 0 || len(g.where) == 0 {
		return 0, 0, false
	}
	best, bestD2, found := entity.Handle(0), maxR*maxR, false
	c0, c1 := g.col(center.X-maxR), g.col(center.X+maxR)
	r0, r1 := g.row(center.Y-maxR), g.row(center.Y+maxR)
	for row := r0; row <= r1; row++ {
		base := row * g.cols
		for col := c0; col <= c1; col++ {
			for _, s := range g.cells[base+col] {
				if s.handle == self {
					continue
				}
				if d2 := s.pos.DistSq(center); d2 <= bestD2 {
					best, bestD2, found = s.handle, d2, true
				}
			}
		}
	}
	return best, math.Sqrt(bestD2), found
}

// Position returns the indexed position of h
func (g *Grid) Position(h entity.Handle) (vmath.Vec2, bool) {
	idx, ok := g.where[h]
	if !ok {
		return vmath.Vec2{}, false
	}
	for _, s := range g.cells[idx] {
		if s.handle == h {
			return s.pos, true
		}
	}
	return vmath.Vec2{}, false
}

// Len returns the number of indexed handles
func (g *Grid) Len() int { return len(g.where) }

// Clear removes all entries, keeping the layout
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	clear(g.where)
}
