package render

import (
	"fmt"
	"math"
	"time"
)

// Decay maps entity age to a factor in [Floor, 1]
// Every law is monotonic non-increasing in age
type Decay interface {
	Factor(age time.Duration) float64
}

// None never decays
type None struct{}

func (None) Factor(time.Duration) float64 { return 1 }

// Linear loses Rate per second down to Floor
type Linear struct {
	Rate  float64
	Floor float64
}

func (l Linear) Factor(age time.Duration) float64 {
	if age <= 0 {
		return 1
	}
	return math.Max(l.Floor, 1-l.Rate*age.Seconds())
}

// Exponential halves every HalfLife toward Floor
type Exponential struct {
	HalfLife time.Duration
	Floor    float64
}

func (e Exponential) Factor(age time.Duration) float64 {
	if age <= 0 || e.HalfLife <= 0 {
		return 1
	}
	f := math.Exp2(-age.Seconds() / e.HalfLife.Seconds())
	return math.Max(e.Floor, e.Floor+(1-e.Floor)*f)
}

// NewDecay builds a law by name: none, linear or exponential
func NewDecay(law string, rate float64, halfLife time.Duration, floor float64) (Decay, error) {
	if floor < 0 || floor > 1 {
		return nil, fmt.Errorf("decay floor %v outside [0, 1]", floor)
	}
	switch law {
	case "", "none":
		return None{}, nil
	case "linear":
		if rate < 0 {
			return nil, fmt.Errorf("linear decay rate %v is negative", rate)
		}
		return Linear{Rate: rate, Floor: floor}, nil
	case "exponential", "exp":
		if halfLife <= 0 {
			return nil, fmt.Errorf("exponential decay needs a positive half-life")
		}
		return Exponential{HalfLife: halfLife, Floor: floor}, nil
	}
	return nil, fmt.Errorf("unknown decay law %q", law)
}
