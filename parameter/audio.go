package parameter

import "time"

// Chimes
const (
	// ArrivalChimeDuration is the length of the note played when an entity goes live
	ArrivalChimeDuration = 600 * time.Millisecond
	ArrivalChimeAttack   = 5 * time.Millisecond
	ArrivalChimeRelease  = 450 * time.Millisecond

	// EvictionChimeDuration is the length of the low note played when the pool rotates
	EvictionChimeDuration = 400 * time.Millisecond
	EvictionChimeAttack   = 20 * time.Millisecond
	EvictionChimeRelease  = 300 * time.Millisecond

	// ArrivalBaseFreq is the root of the arrival scale (C5)
	ArrivalBaseFreq = 523.25

	// EvictionFreq is the eviction note (G3)
	EvictionFreq = 196.0

	// SpeakerBuffer is the speaker latency
	SpeakerBuffer = 100 * time.Millisecond
)

// PentatonicSteps are semitone offsets above ArrivalBaseFreq; arrivals cycle through them by live count
var PentatonicSteps = []float64{0, 2, 4, 7, 9}
