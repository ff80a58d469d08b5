package physics

import (
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// VanDerPol implements the Van der Pol oscillator.
// State: [x, y] where y = dx/dt
// Equations:
//
//	dx/dt = y
//	dy/dt = μ(1 - x²)y - x
//
// Large μ makes the problem stiff.
type VanDerPol struct {
	Mu float64
}

func NewVanDerPol() *VanDerPol {
	return &VanDerPol{
		Mu: 1.0, // Classic value for limit cycle
	}
}

func (v *VanDerPol) NumODEs() int { return 2 }

func (v *VanDerPol) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(2, u, k, dudt)
	if err != nil {
		return err
	}
	x, y := s[0], s[1]

	dudt[0] = y
	dudt[1] = v.Mu*(1-x*x)*y - x
	return nil
}

func (v *VanDerPol) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(2, u, j); err != nil {
		return err
	}
	x, y := u.Value(0, k), u.Value(1, k)
	j.Set(0, 0, 0)
	j.Set(0, 1, 1)
	j.Set(1, 0, -2*v.Mu*x*y-1)
	j.Set(1, 1, v.Mu*(1-x*x))
	return nil
}

func (v *VanDerPol) DefaultState() dynamo.State {
	return dynamo.State{2.0, 0.0}
}

// GetParams implements dynamo.Configurable
func (v *VanDerPol) GetParams() map[string]float64 {
	return map[string]float64{
		"mu": v.Mu,
	}
}

// SetParam implements dynamo.Configurable
func (v *VanDerPol) SetParam(name string, value float64) error {
	if name != "mu" {
		return unknownParam(name)
	}
	v.Mu = value
	return nil
}
