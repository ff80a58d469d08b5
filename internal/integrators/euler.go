package integrators

import "github.com/san-kum/ivpsim/internal/dynamo"

// Euler is the explicit first-order method u(t+h) = u(t) + h·f(t, u).
type Euler struct {
	dudt dynamo.State
	next dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string      { return "euler" }
func (e *Euler) HistoryDepth() int { return 1 }
func (e *Euler) Reset()            {}

func (e *Euler) Step(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	if err := checkStep(sys, u, k, e.HistoryDepth()); err != nil {
		return dynamo.NewStepError(e.Name(), t, h, err)
	}
	n := u.Len()
	if len(e.dudt) != n {
		e.dudt = make(dynamo.State, n)
		e.next = make(dynamo.State, n)
	}

	if err := sys.Evaluate(t, u, k, e.dudt); err != nil {
		return dynamo.NewStepError(e.Name(), t, h, err)
	}
	cur := u.Column(k)
	for i := range cur {
		e.next[i] = cur[i] + h*e.dudt[i]
	}
	u.Commit(k, e.next)
	return nil
}
