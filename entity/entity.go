// Package entity defines the typed record for one animated item
package entity

import (
	"time"

	"github.com/lixenwraith/sketchwall/asset"
	"github.com/lixenwraith/sketchwall/vmath"
)

// Handle is the engine-internal key; IDs may repeat, handles never do
type Handle uint64

// State is the lifecycle stage; Pending to Live is one-way
type State uint8

const (
	Pending State = iota
	Live
)

func (s State) String() string {
	if s == Live {
		return "live"
	}
	return "pending"
}

// Kind selects the motion model, fixed for the entity's life
type Kind uint8

const (
	Flocking Kind = iota
	Drift
)

func (k Kind) String() string {
	switch k {
	case Flocking:
		return "flocking"
	case Drift:
		return "drift"
	}
	return "unknown"
}

// ParseKind maps a variant name onto a motion kind
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "flock", "flocking", "boid", "boids":
		return Flocking, true
	case "drift", "sketch", "sketches":
		return Drift, true
	}
	return 0, false
}

// Params are sampled once when the entity enters the pool
// Flocking reads MaxSpeed; Drift reads DriftVel and BaseY; Size is the nominal draw size
type Params struct {
	MaxSpeed float64
	DriftVel float64
	BaseY    float64
	Size     float64
}

// Modulation is per-frame visual state written by the motion model
// Opacity multiplies; JitterX and JitterY add to the decayed scale
type Modulation struct {
	Opacity float64
	JitterX float64
	JitterY float64
}

// Neutral is the modulation of an entity no model has touched
var Neutral = Modulation{Opacity: 1}

// Entity is one boid or sketch
type Entity struct {
	Handle Handle
	ID     string
	Kind   Kind
	State  State

	Pos     vmath.Vec2
	Vel     vmath.Vec2
	Prev    vmath.Vec2 // Pos at the end of the previous frame
	PrevVel vmath.Vec2 // Vel at the end of the previous frame

	BornAt time.Time
	Visual *asset.Visual
	Params Params
	Mod    Modulation
}

// New creates a pending entity
func New(h Handle, id string, kind Kind) *Entity {
	return &Entity{Handle: h, ID: id, Kind: kind, State: Pending, Mod: Neutral}
}

// MarkLive attaches the decoded visual and stamps birth time
func (e *Entity) MarkLive(v *asset.Visual, params Params, now time.Time) {
	e.Visual = v
	e.Params = params
	e.BornAt = now
	e.State = Live
}

// Snapshot copies current kinematics into the previous-frame fields
func (e *Entity) Snapshot() {
	e.Prev = e.Pos
	e.PrevVel = e.Vel
}

// Age is time since entry into the pool, zero before that
func (e *Entity) Age(now time.Time) time.Duration {
	if e.BornAt.IsZero() || now.Before(e.BornAt) {
		return 0
	}
	return now.Sub(e.BornAt)
}

// Release drops the visual; safe to call more than once
func (e *Entity) Release() {
	if e.Visual != nil {
		e.Visual.Release()
		e.Visual = nil
	}
}
