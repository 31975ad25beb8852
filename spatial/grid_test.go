package spatial

import (
	"slices"
	"testing"

	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/vmath"
)

func sorted(hs []entity.Handle) []entity.Handle {
	out := slices.Clone(hs)
	slices.Sort(out)
	return out
}

func TestQueryBeforeInsert(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 800, 600), 64)
	if got := g.QueryRadius(vmath.V(100, 100), 500, nil); len(got) != 0 {
		t.Fatalf("empty grid returned %v", got)
	}
	if _, _, ok := g.Nearest(vmath.V(0, 0), 1, 100); ok {
		t.Fatal("empty grid returned a nearest entry")
	}
}

func TestQueryMatchesBruteForce(t *testing.T) {
	bounds := vmath.R(0, 0, 800, 600)
	g := NewGrid(bounds, 64)
	rng := vmath.NewFastRand(42)

	pts := make(map[entity.Handle]vmath.Vec2)
	for i := 1; i <= 300; i++ {
		// Some points fall outside the grid and land in edge cells
		p := vmath.V(rng.Range(-100, 1000), rng.Range(-100, 800))
		pts[entity.Handle(i)] = p
		g.InsertOrUpdate(entity.Handle(i), p)
	}

	for q := 0; q < 200; q++ {
		center := vmath.V(rng.Range(-150, 1100), rng.Range(-150, 900))
		r := rng.Range(0, 200)

		var want []entity.Handle
		for h, p := range pts {
			if p.DistSq(center) <= r*r {
				want = append(want, h)
			}
		}
		got := g.QueryRadius(center, r, nil)
		if !slices.Equal(sorted(got), sorted(want)) {
			t.Fatalf("query %v r=%.1f: got %d handles, want %d", center, r, len(got), len(want))
		}
	}
}

func TestQueryBoundaryInclusive(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 200, 200), 64)
	g.InsertOrUpdate(1, vmath.V(100, 100))
	g.InsertOrUpdate(2, vmath.V(140, 100))
	got := g.QueryRadius(vmath.V(100, 100), 40, nil)
	if !slices.Equal(sorted(got), []entity.Handle{1, 2}) {
		t.Fatalf("got %v, want [1 2]", got)
	}
	if got := g.QueryRadius(vmath.V(100, 100), 39.999, nil); !slices.Equal(got, []entity.Handle{1}) {
		t.Fatalf("got %v, want [1]", got)
	}
}

func TestUpdateReplaces(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 800, 600), 64)
	for i := 0; i < 10; i++ {
		g.InsertOrUpdate(5, vmath.V(10, 10))
	}
	g.InsertOrUpdate(5, vmath.V(700, 500))
	if g.Len() != 1 {
		t.Fatalf("Len = %d after repeated updates", g.Len())
	}
	if got := g.QueryRadius(vmath.V(10, 10), 5, nil); len(got) != 0 {
		t.Fatalf("stale entry at old position: %v", got)
	}
	if got := g.QueryRadius(vmath.V(700, 500), 1, nil); !slices.Equal(got, []entity.Handle{5}) {
		t.Fatalf("got %v at new position", got)
	}
	if p, ok := g.Position(5); !ok || p != vmath.V(700, 500) {
		t.Fatalf("Position = %v, %v", p, ok)
	}
}

func TestRemoveAndClear(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 800, 600), 64)
	g.InsertOrUpdate(1, vmath.V(10, 10))
	g.InsertOrUpdate(2, vmath.V(12, 10))
	g.InsertOrUpdate(3, vmath.V(14, 10))

	g.Remove(2)
	g.Remove(99)
	got := g.QueryRadius(vmath.V(10, 10), 10, nil)
	if !slices.Equal(sorted(got), []entity.Handle{1, 3}) {
		t.Fatalf("after remove got %v", got)
	}

	g.Clear()
	if g.Len() != 0 || len(g.QueryRadius(vmath.V(10, 10), 10, nil)) != 0 {
		t.Fatal("clear left entries")
	}
}

func TestResizeKeepsEntries(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 100, 100), 64)
	g.InsertOrUpdate(1, vmath.V(50, 50))
	g.InsertOrUpdate(2, vmath.V(900, 700))

	g.Resize(vmath.R(0, 0, 1000, 800))
	if g.Len() != 2 {
		t.Fatalf("Len = %d after resize", g.Len())
	}
	if got := g.QueryRadius(vmath.V(900, 700), 1, nil); !slices.Equal(got, []entity.Handle{2}) {
		t.Fatalf("got %v after resize", got)
	}
	g.InsertOrUpdate(2, vmath.V(55, 50))
	if got := g.QueryRadius(vmath.V(50, 50), 10, nil); len(got) != 2 {
		t.Fatalf("got %v after move", got)
	}
}

func TestNearest(t *testing.T) {
	g := NewGrid(vmath.R(0, 0, 800, 600), 64)
	g.InsertOrUpdate(1, vmath.V(100, 100))
	g.InsertOrUpdate(2, vmath.V(110, 100))
	g.InsertOrUpdate(3, vmath.V(125, 100))

	h, d, ok := g.Nearest(vmath.V(100, 100), 1, 50)
	if !ok || h != 2 || d != 10 {
		t.Fatalf("Nearest = %v %v %v", h, d, ok)
	}
	if _, _, ok := g.Nearest(vmath.V(500, 500), 1, 50); ok {
		t.Fatal("expected no neighbor in range")
	}
}
