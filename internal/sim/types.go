package sim

import "github.com/san-kum/ivpsim/internal/dynamo"

type Metric interface {
	Name() string
	Observe(t float64, u dynamo.State)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(t float64, u dynamo.State)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t float64, u dynamo.State)

func (f ObserverFunc) OnStep(t float64, u dynamo.State) { f(t, u) }

type Config struct {
	H      float64
	T0     float64
	TFinal float64
	// Depth is the minimum number of buffer columns; the stepper may need more.
	Depth int
	// FixedOutput makes adaptive steppers land exactly on every multiple of H.
	FixedOutput   bool
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		H:             0.01,
		TFinal:        10.0,
		Depth:         1,
		FixedOutput:   true,
		ValidateState: true,
	}
}

type Result struct {
	Stepper string
	Times   []float64
	States  []dynamo.State
	// StepsTaken counts accepted steps, including adaptive sub-steps.
	StepsTaken  int
	Rejected    int
	Evaluations int
	Metrics     map[string]float64
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Component returns the time series of unknown i.
func (r *Result) Component(i int) []float64 {
	out := make([]float64, len(r.States))
	for j, s := range r.States {
		out[j] = s[i]
	}
	return out
}
