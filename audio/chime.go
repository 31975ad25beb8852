// Package audio plays short chimes when entities arrive and when the pool rotates
package audio

import (
	"math"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"

	"github.com/lixenwraith/sketchwall/event"
	"github.com/lixenwraith/sketchwall/parameter"
)

// ChimeManager mixes lifecycle chimes into a single speaker stream
// Handles events on the control loop; mixing happens on the speaker goroutine
type ChimeManager struct {
	mu          sync.Mutex
	rate        beep.SampleRate
	volume      float64
	mixer       *beep.Mixer
	initialized bool
	log         *zap.Logger
}

// NewChimeManager creates a silent manager; Initialize attaches it to the speaker
func NewChimeManager(sampleRate int, volume float64, log *zap.Logger) *ChimeManager {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ChimeManager{
		rate:   beep.SampleRate(sampleRate),
		volume: volume,
		mixer:  &beep.Mixer{},
		log:    log.Named("audio"),
	}
}

// Initialize sets up the audio system; safe to call more than once
func (cm *ChimeManager) Initialize() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.initialized {
		return nil
	}
	if err := speaker.Init(cm.rate, cm.rate.N(parameter.SpeakerBuffer)); err != nil {
		return err
	}
	speaker.Play(cm.mixer)
	cm.initialized = true
	cm.log.Info("speaker ready", zap.Int("sample_rate", int(cm.rate)))
	return nil
}

// Cleanup silences everything queued
func (cm *ChimeManager) Cleanup() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.initialized {
		return
	}
	speaker.Lock()
	cm.mixer.Clear()
	speaker.Unlock()
	cm.initialized = false
}

// PlayArrival rings a pentatonic note chosen by the live count
func (cm *ChimeManager) PlayArrival(live int) {
	cm.play(CreateArrivalChime(cm.rate, ArrivalFreq(live), cm.volume))
}

// PlayEviction rings the low rotation note
func (cm *ChimeManager) PlayEviction() {
	cm.play(CreateEvictionChime(cm.rate, cm.volume))
}

func (cm *ChimeManager) play(s beep.Streamer) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.initialized {
		return
	}
	speaker.Lock()
	cm.mixer.Add(s)
	speaker.Unlock()
}

// Playing returns the number of chimes still sounding
func (cm *ChimeManager) Playing() int {
	speaker.Lock()
	defer speaker.Unlock()
	return cm.mixer.Len()
}

func (cm *ChimeManager) HandleEvent(ev event.Event) {
	p, ok := ev.Payload.(*event.EntityPayload)
	if !ok {
		return
	}
	switch ev.Type {
	case event.EventEntityLive:
		cm.PlayArrival(p.Live)
	case event.EventEntityEvicted:
		cm.PlayEviction()
	}
}

func (cm *ChimeManager) EventTypes() []event.EventType {
	return []event.EventType{event.EventEntityLive, event.EventEntityEvicted}
}

// ArrivalFreq walks the pentatonic scale upward, one octave per cycle, wrapping after two octaves
func ArrivalFreq(live int) float64 {
	steps := parameter.PentatonicSteps
	n := max(live-1, 0) % (2 * len(steps))
	semis := steps[n%len(steps)] + 12*float64(n/len(steps))
	return parameter.ArrivalBaseFreq * math.Pow(2, semis/12)
}

// CreateArrivalChime is a fundamental with a quiet octave overtone
func CreateArrivalChime(rate beep.SampleRate, freq, volume float64) beep.Streamer {
	d := parameter.ArrivalChimeDuration
	fund := NewEnvelope(NewOscillator(freq, d, WaveSine, rate), d, parameter.ArrivalChimeAttack, parameter.ArrivalChimeRelease, rate)
	over := NewEnvelope(NewOscillator(freq*2, d, WaveSine, rate), d, parameter.ArrivalChimeAttack, parameter.ArrivalChimeRelease/2, rate)

	mixed := beep.Mix(
		newVolume(fund, 0.7),
		newVolume(over, 0.3),
	)
	return newVolume(mixed, volume)
}

// CreateEvictionChime is a soft low triangle note
func CreateEvictionChime(rate beep.SampleRate, volume float64) beep.Streamer {
	d := parameter.EvictionChimeDuration
	osc := NewOscillator(parameter.EvictionFreq, d, WaveTriangle, rate)
	shaped := NewEnvelope(osc, d, parameter.EvictionChimeAttack, parameter.EvictionChimeRelease, rate)
	return newVolume(shaped, volume*0.6)
}
