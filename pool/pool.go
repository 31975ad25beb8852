// Package pool holds the bounded FIFO of live entities and the queue of pending ones
package pool

import (
	"fmt"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/entity"
)

// Transition is one pending entry leaving the queue
type Transition struct {
	Entity  *entity.Entity
	Evicted *entity.Entity // Oldest live entity displaced by this one
	Err     error          // Decode failure; Entity was dropped
}

// Dropped reports whether the entry failed instead of going live
func (t Transition) Dropped() bool { return t.Err != nil }

type pendingEntry struct {
	e        *entity.Entity
	resolved bool
	visual   *asset.Visual
	err      error
}

// Pool owns entities exclusively; evicted and cleared entities have their visual released
// Not safe for concurrent use
type Pool struct {
	capacity int
	live     []*entity.Entity
	byHandle map[entity.Handle]*entity.Entity

	pending   []*pendingEntry
	byPending map[entity.Handle]*pendingEntry

	transitions []Transition
}

// New creates a pool; capacity below 1 is raised to 1
func New(capacity int) *Pool {
	capacity = max(capacity, 1)
	return &Pool{
		capacity:  capacity,
		live:      make([]*entity.Entity, 0, capacity),
		byHandle:  make(map[entity.Handle]*entity.Entity, capacity),
		byPending: make(map[entity.Handle]*pendingEntry),
	}
}

// TryInsert appends e as the newest live entity
// When full, the oldest is removed, released and returned; never more than one
func (p *Pool) TryInsert(e *entity.Entity) (evicted *entity.Entity) {
	if len(p.live) > p.capacity {
		panic(fmt.Sprintf("pool: %d live entities exceed capacity %d", len(p.live), p.capacity))
	}
	if len(p.live) == p.capacity {
		evicted = p.live[0]
		copy(p.live, p.live[1:])
		p.live[len(p.live)-1] = nil
		p.live = p.live[:len(p.live)-1]
		delete(p.byHandle, evicted.Handle)
		evicted.Release()
	}
	p.live = append(p.live, e)
	p.byHandle[e.Handle] = e
	return evicted
}

// Enqueue records a pending entity in arrival order
func (p *Pool) Enqueue(e *entity.Entity) {
	entry := &pendingEntry{e: e}
	p.pending = append(p.pending, entry)
	p.byPending[e.Handle] = entry
}

// Resolve stores a decode outcome for a pending entity
// Returns false for unknown handles; the caller keeps ownership of v
func (p *Pool) Resolve(h entity.Handle, v *asset.Visual, err error) bool {
	entry, ok := p.byPending[h]
	if !ok || entry.resolved {
		return false
	}
	entry.resolved = true
	entry.visual = v
	entry.err = err
	if err == nil && v == nil {
		entry.err = asset.ErrEmptySource
	}
	return true
}

// Promote moves resolved entries at the head of the queue into the live set
// An entry waits while any earlier arrival is unresolved
// activate is called for each successful entry before insertion
// The returned slice is reused by the next call
func (p *Pool) Promote(activate func(e *entity.Entity, v *asset.Visual)) []Transition {
	p.transitions = p.transitions[:0]
	n := 0
	for ; n < len(p.pending) && p.pending[n].resolved; n++ {
		entry := p.pending[n]
		delete(p.byPending, entry.e.Handle)
		if entry.err != nil {
			p.transitions = append(p.transitions, Transition{Entity: entry.e, Err: entry.err})
			continue
		}
		activate(entry.e, entry.visual)
		evicted := p.TryInsert(entry.e)
		p.transitions = append(p.transitions, Transition{Entity: entry.e, Evicted: evicted})
	}
	if n > 0 {
		rest := copy(p.pending, p.pending[n:])
		clear(p.pending[rest:])
		p.pending = p.pending[:rest]
	}
	return p.transitions
}

// Remove tears down every live and pending entity with id
// Live visuals are released; pending decodes still in flight are released on arrival by the caller
func (p *Pool) Remove(id string) []*entity.Entity {
	var removed []*entity.Entity

	kept := p.live[:0]
	for _, e := range p.live {
		if e.ID == id {
			delete(p.byHandle, e.Handle)
			e.Release()
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	clear(p.live[len(kept):])
	p.live = kept

	keptPending := p.pending[:0]
	for _, entry := range p.pending {
		if entry.e.ID == id {
			delete(p.byPending, entry.e.Handle)
			if entry.visual != nil {
				entry.visual.Release()
			}
			removed = append(removed, entry.e)
			continue
		}
		keptPending = append(keptPending, entry)
	}
	clear(p.pending[len(keptPending):])
	p.pending = keptPending

	return removed
}

// Get returns the live entity for h
func (p *Pool) Get(h entity.Handle) *entity.Entity { return p.byHandle[h] }

// Range visits live entities oldest first until fn returns false
func (p *Pool) Range(fn func(e *entity.Entity) bool) {
	for _, e := range p.live {
		if !fn(e) {
			return
		}
	}
}

// Live returns the live entities oldest first; callers must not modify the slice
func (p *Pool) Live() []*entity.Entity { return p.live }

// Len returns the live count
func (p *Pool) Len() int { return len(p.live) }

// Cap returns the capacity
func (p *Pool) Cap() int { return p.capacity }

// PendingLen returns the number of entities awaiting decode or promotion
func (p *Pool) PendingLen() int { return len(p.pending) }

// Clear releases and drops everything, returning the live entities that were held
func (p *Pool) Clear() []*entity.Entity {
	out := p.live
	for _, e := range out {
		e.Release()
	}
	for _, entry := range p.pending {
		if entry.visual != nil {
			entry.visual.Release()
		}
	}
	p.live = make([]*entity.Entity, 0, p.capacity)
	p.pending = nil
	clear(p.byHandle)
	clear(p.byPending)
	return out
}
