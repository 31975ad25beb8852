package pool

import (
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/entity"
)

func visual() *asset.Visual {
	return asset.NewVisual(image.NewRGBA(image.Rect(0, 0, 1, 1)))
}

func ids(p *Pool) []string {
	var out []string
	p.Range(func(e *entity.Entity) bool {
		out = append(out, e.ID)
		return true
	})
	return out
}

func liveEntity(h entity.Handle, id string) *entity.Entity {
	e := entity.New(h, id, entity.Drift)
	e.Visual = visual()
	e.State = entity.Live
	return e
}

func TestFIFOEviction(t *testing.T) {
	p := New(3)
	var evictedA *entity.Entity
	for i, id := range []string{"A", "B", "C", "D"} {
		ev := p.TryInsert(liveEntity(entity.Handle(i+1), id))
		if p.Len() > p.Cap() {
			t.Fatalf("size %d exceeds capacity after %s", p.Len(), id)
		}
		if id == "D" {
			evictedA = ev
		} else if ev != nil {
			t.Fatalf("unexpected eviction inserting %s", id)
		}
	}
	if got := ids(p); !slices.Equal(got, []string{"B", "C", "D"}) {
		t.Fatalf("pool = %v, want [B C D]", got)
	}
	if evictedA == nil || evictedA.ID != "A" || evictedA.Visual != nil {
		t.Fatalf("evicted = %+v, want released A", evictedA)
	}
	if p.Get(1) != nil {
		t.Error("evicted entity still reachable by handle")
	}

	ev := p.TryInsert(liveEntity(5, "E"))
	if got := ids(p); !slices.Equal(got, []string{"C", "D", "E"}) {
		t.Fatalf("pool = %v, want [C D E]", got)
	}
	if ev == nil || ev.ID != "B" {
		t.Fatalf("evicted = %v, want B", ev)
	}
}

func TestSurvivorsAreMostRecent(t *testing.T) {
	const capacity = 7
	p := New(capacity)
	for i := 1; i <= 50; i++ {
		p.TryInsert(liveEntity(entity.Handle(i), string(rune('a'+i%26))))
		if p.Len() > capacity {
			t.Fatalf("size %d after insert %d", p.Len(), i)
		}
		var handles []entity.Handle
		p.Range(func(e *entity.Entity) bool {
			handles = append(handles, e.Handle)
			return true
		})
		first := max(1, i-capacity+1)
		for j, h := range handles {
			if h != entity.Handle(first+j) {
				t.Fatalf("after %d inserts got %v", i, handles)
			}
		}
	}
}

func TestCapacityViolationPanics(t *testing.T) {
	p := New(2)
	p.live = append(p.live, liveEntity(1, "a"), liveEntity(2, "b"), liveEntity(3, "c"))
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on corrupt pool")
		}
	}()
	p.TryInsert(liveEntity(4, "d"))
}

func TestPromoteInArrivalOrder(t *testing.T) {
	p := New(10)
	for i, id := range []string{"A", "B", "C"} {
		p.Enqueue(entity.New(entity.Handle(i+1), id, entity.Flocking))
	}
	activate := func(e *entity.Entity, v *asset.Visual) { e.Visual = v; e.State = entity.Live }

	// C and B finish before A
	p.Resolve(3, visual(), nil)
	p.Resolve(2, visual(), nil)
	if got := p.Promote(activate); len(got) != 0 {
		t.Fatalf("promoted %d while head unresolved", len(got))
	}
	if p.Len() != 0 || p.PendingLen() != 3 {
		t.Fatalf("live=%d pending=%d", p.Len(), p.PendingLen())
	}

	p.Resolve(1, visual(), nil)
	got := p.Promote(activate)
	if len(got) != 3 {
		t.Fatalf("promoted %d, want 3", len(got))
	}
	if order := ids(p); !slices.Equal(order, []string{"A", "B", "C"}) {
		t.Fatalf("live order = %v", order)
	}
	if p.PendingLen() != 0 {
		t.Fatalf("pending = %d", p.PendingLen())
	}
}

func TestPromoteDropsFailures(t *testing.T) {
	p := New(2)
	p.TryInsert(liveEntity(10, "X"))
	p.TryInsert(liveEntity(11, "Y"))

	p.Enqueue(entity.New(1, "bad", entity.Drift))
	p.Enqueue(entity.New(2, "good", entity.Drift))
	p.Resolve(1, nil, errors.New("corrupt"))
	p.Resolve(2, visual(), nil)

	got := p.Promote(func(e *entity.Entity, v *asset.Visual) { e.Visual = v })
	if len(got) != 2 || !got[0].Dropped() || got[1].Dropped() {
		t.Fatalf("transitions = %+v", got)
	}
	if got[0].Evicted != nil {
		t.Error("a failed decode must not evict")
	}
	if got[1].Evicted == nil || got[1].Evicted.ID != "X" {
		t.Errorf("evicted = %v, want X", got[1].Evicted)
	}
	if order := ids(p); !slices.Equal(order, []string{"Y", "good"}) {
		t.Fatalf("live = %v", order)
	}
}

func TestResolveUnknown(t *testing.T) {
	p := New(2)
	if p.Resolve(99, visual(), nil) {
		t.Fatal("resolve of unknown handle accepted")
	}
	p.Enqueue(entity.New(1, "a", entity.Drift))
	if !p.Resolve(1, nil, nil) {
		t.Fatal("resolve rejected")
	}
	if p.Resolve(1, visual(), nil) {
		t.Fatal("second resolve accepted")
	}
	got := p.Promote(func(*entity.Entity, *asset.Visual) {})
	if len(got) != 1 || !got[0].Dropped() {
		t.Fatal("nil visual without error should drop")
	}
}

func TestRemoveDuplicates(t *testing.T) {
	p := New(5)
	a1, a2 := liveEntity(1, "a"), liveEntity(2, "a")
	p.TryInsert(a1)
	p.TryInsert(liveEntity(3, "b"))
	p.TryInsert(a2)
	p.Enqueue(entity.New(4, "a", entity.Drift))

	removed := p.Remove("a")
	if len(removed) != 3 {
		t.Fatalf("removed %d, want 3", len(removed))
	}
	if a1.Visual != nil || a2.Visual != nil {
		t.Error("removed visuals not released")
	}
	if order := ids(p); !slices.Equal(order, []string{"b"}) {
		t.Fatalf("live = %v", order)
	}
	if p.PendingLen() != 0 || p.Resolve(4, visual(), nil) {
		t.Fatal("removed pending entry still resolvable")
	}
}

func TestClear(t *testing.T) {
	p := New(3)
	e := liveEntity(1, "a")
	p.TryInsert(e)
	p.Enqueue(entity.New(2, "b", entity.Drift))
	v := visual()
	p.Resolve(2, v, nil)

	out := p.Clear()
	if len(out) != 1 || e.Visual != nil || !v.Released() {
		t.Fatal("clear did not release everything")
	}
	if p.Len() != 0 || p.PendingLen() != 0 || p.Get(1) != nil {
		t.Fatal("clear left state behind")
	}
}
