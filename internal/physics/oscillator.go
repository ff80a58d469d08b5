package physics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Oscillator is the undamped harmonic oscillator.
// State: [x, v]
//
//	dx/dt = v
//	dv/dt = -ω²x
type Oscillator struct {
	Omega float64
}

func NewOscillator() *Oscillator { return &Oscillator{Omega: 1.0} }

func (o *Oscillator) NumODEs() int { return 2 }

func (o *Oscillator) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(2, u, k, dudt)
	if err != nil {
		return err
	}
	dudt[0] = s[1]
	dudt[1] = -o.Omega * o.Omega * s[0]
	return nil
}

func (o *Oscillator) JacobianAt(_ float64, u *dynamo.History, _ int, j *mat.Dense) error {
	if err := checkJacobian(2, u, j); err != nil {
		return err
	}
	j.Set(0, 0, 0)
	j.Set(0, 1, 1)
	j.Set(1, 0, -o.Omega*o.Omega)
	j.Set(1, 1, 0)
	return nil
}

func (o *Oscillator) Exact(t float64, u0 dynamo.State) dynamo.State {
	x0, v0 := u0[0], u0[1]
	w := o.Omega
	c, s := math.Cos(w*t), math.Sin(w*t)
	return dynamo.State{x0*c + v0/w*s, -x0*w*s + v0*c}
}

func (o *Oscillator) Energy(u dynamo.State) float64 {
	return 0.5*u[1]*u[1] + 0.5*o.Omega*o.Omega*u[0]*u[0]
}

func (o *Oscillator) DefaultState() dynamo.State { return dynamo.State{1.0, 0.0} }

func (o *Oscillator) GetParams() map[string]float64 {
	return map[string]float64{"omega": o.Omega}
}

func (o *Oscillator) SetParam(name string, value float64) error {
	if name != "omega" {
		return unknownParam(name)
	}
	o.Omega = value
	return nil
}
