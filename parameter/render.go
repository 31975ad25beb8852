package parameter

import "time"

// Decay Laws
const (
	// ShrinkRate is the per-second linear scale loss of an aging sketch
	ShrinkRate = 0.01
	// ShrinkFloor is the smallest scale a live sketch reaches
	ShrinkFloor = 0.25

	// GrayRate is the per-second grayscale gain; 1/300 reaches 50% after 150s
	GrayRate = 1.0 / 300.0
	// GrayFloor bounds the color decay so grayscale never exceeds 50%
	GrayFloor = 0.5

	// FadeHalfLife is the default exponential fade half-life
	FadeHalfLife = 60 * time.Second
	// FadeFloor keeps aged entities faintly visible
	FadeFloor = 0.2
)

// Surface
const (
	// BackdropColor is drawn when no background source is available
	BackdropColor = "#1a1b26"

	// HUDHeight is the rows reserved for the status line when enabled
	HUDHeight = 1
)
