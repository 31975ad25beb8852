package event

import (
	"time"

	"github.com/lixenwraith/sketchwall/asset"
)

// InsertPayload carries one external arrival
type InsertPayload struct {
	ID     string
	Source asset.Source
}

// InsertBatchPayload carries arrivals delivered together
type InsertBatchPayload struct {
	Arrivals []asset.Arrival
}

// DecodedPayload is a decode result; exactly one of Visual and Err is set
type DecodedPayload struct {
	Handle uint64
	Visual *asset.Visual
	Err    error
}

// ResizePayload carries surface dimensions in pixels
type ResizePayload struct {
	Width  int
	Height int
}

// RemovePayload names entities to tear down
type RemovePayload struct {
	ID string
}

// EntityPayload describes an entity lifecycle transition
type EntityPayload struct {
	Handle uint64
	ID     string
	Age    time.Duration
	Live   int
	Err    error
}

// InspectPayload carries a callback and the channel closed once it ran
type InspectPayload struct {
	Fn   func()
	Done chan struct{}
}
