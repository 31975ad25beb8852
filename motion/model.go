// Package motion advances entity kinematics once per frame
package motion

import (
	"github.com/lixenwraith/sketchwall/entity"
	"github.com/lixenwraith/sketchwall/vmath"
)

// World is what a model may read during an update
// Neighbor positions come from the previous frame's index
type World interface {
	Bounds() vmath.Rect
	Neighbors(center vmath.Vec2, r float64, dst []entity.Handle) []entity.Handle
	Lookup(h entity.Handle) *entity.Entity
}

// Model is a per-entity update strategy
// Update must be deterministic given entity state, world bounds and dt
type Model interface {
	Kind() entity.Kind
	Update(e *entity.Entity, w World, dt float64)
}

// Spawner places a newly live entity and samples its parameters
type Spawner interface {
	Spawn(e *entity.Entity, bounds vmath.Rect, rng *vmath.FastRand) entity.Params
}

// Strategy is a model that also knows how to place new entities
type Strategy interface {
	Model
	Spawner
}
