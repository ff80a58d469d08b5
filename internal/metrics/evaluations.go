package metrics

import "github.com/san-kum/ivpsim/internal/dynamo"

// Evaluations reports the derivative evaluations a run has spent so far.
type Evaluations struct {
	counter *dynamo.Counting
}

func NewEvaluations(counter *dynamo.Counting) *Evaluations {
	return &Evaluations{counter: counter}
}

func (e *Evaluations) Name() string { return "evaluations" }

func (e *Evaluations) Observe(float64, dynamo.State) {}

func (e *Evaluations) Value() float64 {
	if e.counter == nil {
		return 0
	}
	return float64(e.counter.Total())
}

func (e *Evaluations) Reset() {}
