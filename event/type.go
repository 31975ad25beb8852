package event

// EventType identifies an engine message
type EventType int

const (
	// === Inbound, consumed by the control loop ===

	// EventInsert requests a new entity
	// Trigger: Engine.Insert | Payload: *InsertPayload
	EventInsert EventType = iota

	// EventInsertBatch requests several entities; the batch keeps its order
	// Trigger: Engine.InsertBatch | Payload: *InsertBatchPayload
	EventInsertBatch

	// EventDecoded reports a finished decode for a pending entity
	// Trigger: decode worker | Payload: *DecodedPayload
	EventDecoded

	// EventResize reports new surface dimensions
	// Trigger: Engine.Resize | Payload: *ResizePayload
	EventResize

	// EventRemove tears down every entity with the given id
	// Trigger: Engine.Remove | Payload: *RemovePayload
	EventRemove

	// EventInspect runs a read-only callback on the control loop
	// Trigger: Engine.Inspect | Payload: *InspectPayload
	EventInspect

	// === Outbound, dispatched to registered handlers ===

	// EventEntityLive fires when a pending entity enters the pool
	// Consumer: ChimeManager, metrics | Payload: *EntityPayload
	EventEntityLive EventType = iota + 100

	// EventEntityEvicted fires when the oldest live entity leaves a full pool
	// Consumer: ChimeManager, metrics | Payload: *EntityPayload
	EventEntityEvicted

	// EventEntityDropped fires when a pending entity fails to decode
	// Consumer: metrics | Payload: *EntityPayload
	EventEntityDropped

	// EventEntityRemoved fires for explicit removal
	// Consumer: metrics | Payload: *EntityPayload
	EventEntityRemoved

	// EventSurfaceReady fires once, on first-time setup
	// Consumer: presenters | Payload: *ResizePayload
	EventSurfaceReady
)

func (t EventType) String() string {
	switch t {
	case EventInsert:
		return "insert"
	case EventInsertBatch:
		return "insert_batch"
	case EventDecoded:
		return "decoded"
	case EventResize:
		return "resize"
	case EventRemove:
		return "remove"
	case EventInspect:
		return "inspect"
	case EventEntityLive:
		return "entity_live"
	case EventEntityEvicted:
		return "entity_evicted"
	case EventEntityDropped:
		return "entity_dropped"
	case EventEntityRemoved:
		return "entity_removed"
	case EventSurfaceReady:
		return "surface_ready"
	}
	return "unknown"
}

// Event is one message; Frame is the tick it was dispatched on, zero for inbound
type Event struct {
	Type    EventType
	Frame   uint64
	Payload any
}
