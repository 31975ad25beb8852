package parameter

// Drifting Sketch Variant
const (
	// DriftCapacity is the live sketch limit before FIFO eviction
	DriftCapacity = 10

	// DriftPad is the off-screen run-out on each horizontal side (world units)
	DriftPad = 150.0

	// DriftSpeedScale converts sampled drift velocity to world units per second
	DriftSpeedScale = 20.0

	// DriftVelMin and DriftVelSpan sample the horizontal velocity in [min, min+span)
	DriftVelMin  = 2.0
	DriftVelSpan = 3.0

	// DriftBaseYMin and DriftBaseYSpan sample the lane as a fraction of surface height
	DriftBaseYMin  = 0.6
	DriftBaseYSpan = 0.1

	// DriftSizeMin and DriftSizeSpan sample drawn height as a fraction of surface height
	DriftSizeMin  = 0.4
	DriftSizeSpan = 0.3

	// DriftYNoise is the vertical perturbation amplitude relative to the lane
	DriftYNoise = 0.3

	// DriftOpacityBase and DriftOpacityNoise modulate opacity around the base
	DriftOpacityBase  = 0.75
	DriftOpacityNoise = 0.25

	// DriftScaleNoise is the additive scale jitter amplitude
	DriftScaleNoise = 0.1
)
