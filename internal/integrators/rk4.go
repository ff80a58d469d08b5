package integrators

import "github.com/san-kum/ivpsim/internal/dynamo"

// RK4 is the classic fourth-order Runge-Kutta method.
type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	next           dynamo.State
	stage          stage
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string      { return "rk4" }
func (r *RK4) HistoryDepth() int { return 1 }
func (r *RK4) Reset()            {}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.next = make(dynamo.State, n)
	}
	r.stage.ensure(n)
}

func (r *RK4) Step(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	if err := checkStep(sys, u, k, r.HistoryDepth()); err != nil {
		return dynamo.NewStepError(r.Name(), t, h, err)
	}
	if err := r.advance(sys, h, t, u, k); err != nil {
		return dynamo.NewStepError(r.Name(), t, h, err)
	}
	u.Commit(k, r.next)
	return nil
}

// advance computes u(t+h) into r.next without touching u.
func (r *RK4) advance(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	n := u.Len()
	r.ensureScratch(n)
	x := u.Column(k)
	s := r.stage.state()

	if err := sys.Evaluate(t, u, k, r.k1); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*0.5*r.k1[i]
	}
	if err := r.stage.eval(sys, t+h*0.5, r.k2); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*0.5*r.k2[i]
	}
	if err := r.stage.eval(sys, t+h*0.5, r.k3); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s[i] = x[i] + h*r.k3[i]
	}
	if err := r.stage.eval(sys, t+h, r.k4); err != nil {
		return err
	}

	h6 := h / 6.0
	for i := 0; i < n; i++ {
		r.next[i] = x[i] + h6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return nil
}
