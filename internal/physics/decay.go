package physics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Decay is du/dt = -λu, solved exactly by u0·exp(-λt).
type Decay struct {
	Rate float64
}

func NewDecay() *Decay { return &Decay{Rate: 1.0} }

// NewStiffDecay is decay with λ = 5, where explicit Euler becomes unstable
// for h > 0.4.
func NewStiffDecay() *Decay { return &Decay{Rate: 5.0} }

func (d *Decay) NumODEs() int { return 1 }

func (d *Decay) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(1, u, k, dudt)
	if err != nil {
		return err
	}
	dudt[0] = -d.Rate * s[0]
	return nil
}

func (d *Decay) JacobianAt(_ float64, u *dynamo.History, _ int, j *mat.Dense) error {
	if err := checkJacobian(1, u, j); err != nil {
		return err
	}
	j.Set(0, 0, -d.Rate)
	return nil
}

func (d *Decay) Exact(t float64, u0 dynamo.State) dynamo.State {
	out := make(dynamo.State, len(u0))
	for i, v := range u0 {
		out[i] = v * math.Exp(-d.Rate*t)
	}
	return out
}

func (d *Decay) DefaultState() dynamo.State { return dynamo.State{1.0} }

func (d *Decay) GetParams() map[string]float64 {
	return map[string]float64{"rate": d.Rate}
}

func (d *Decay) SetParam(name string, value float64) error {
	if name != "rate" {
		return unknownParam(name)
	}
	d.Rate = value
	return nil
}
