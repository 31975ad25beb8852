package parameter

import "time"

// Frame Loop & Engine Timing
const (
	// FrameUpdateInterval is the host frame clock interval (~60 FPS)
	FrameUpdateInterval = 16 * time.Millisecond

	// MaxFrameDelta caps dt so a stalled host does not teleport entities
	MaxFrameDelta = 100 * time.Millisecond

	// DispatchIterations is the cycles the control loop drains the inbox per wake for immediate settling
	DispatchIterations = 16
)

// Inbox Limits
const (
	// EventQueueSize is the fixed capacity of the inbound event ring buffer
	EventQueueSize = 2048

	// EventBufferMask is the bitmask for fast modulo operations (2048 - 1)
	EventBufferMask = 2047
)

// Asset Decoding
const (
	// DecodeWorkers bounds concurrent asset decodes
	DecodeWorkers = 4

	// DecodeTimeout is the per-asset decode deadline
	DecodeTimeout = 10 * time.Second

	// MaxVisualDimension downsamples decoded assets whose longer side exceeds it
	MaxVisualDimension = 512

	// MaxDataURLBytes caps a single ingested data URL line
	MaxDataURLBytes = 32 << 20
)
