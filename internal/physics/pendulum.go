package physics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Pendulum is a damped simple pendulum.
// State: [theta, omega]
type Pendulum struct {
	Mass    float64
	Length  float64
	Damping float64
	Gravity float64
}

func NewPendulum() *Pendulum {
	return &Pendulum{
		Mass:    1.0,
		Length:  1.0,
		Damping: 0.0,
		Gravity: 9.81,
	}
}

func (p *Pendulum) NumODEs() int {
	return 2
}

func (p *Pendulum) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	x, err := column(2, u, k, dudt)
	if err != nil {
		return err
	}
	theta := x[0]
	omega := x[1]

	ml2 := p.Mass * p.Length * p.Length
	dudt[0] = omega
	dudt[1] = (-p.Damping*omega - p.Mass*p.Gravity*p.Length*math.Sin(theta)) / ml2
	return nil
}

func (p *Pendulum) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(2, u, j); err != nil {
		return err
	}
	ml2 := p.Mass * p.Length * p.Length
	j.Set(0, 0, 0)
	j.Set(0, 1, 1)
	j.Set(1, 0, -p.Mass*p.Gravity*p.Length*math.Cos(u.Value(0, k))/ml2)
	j.Set(1, 1, -p.Damping/ml2)
	return nil
}

func (p *Pendulum) Energy(x dynamo.State) float64 {
	// KE = 0.5 * m * (L*omega)^2
	// PE = m * g * L * (1 - cos(theta))
	v := p.Length * x[1]
	ke := 0.5 * p.Mass * v * v
	pe := p.Mass * p.Gravity * p.Length * (1.0 - math.Cos(x[0]))
	return ke + pe
}

func (p *Pendulum) DefaultState() dynamo.State { return dynamo.State{math.Pi / 4, 0.0} }

func (p *Pendulum) GetParams() map[string]float64 {
	return map[string]float64{
		"mass":    p.Mass,
		"length":  p.Length,
		"damping": p.Damping,
		"gravity": p.Gravity,
	}
}

func (p *Pendulum) SetParam(name string, value float64) error {
	switch name {
	case "mass":
		p.Mass = value
	case "length":
		p.Length = value
	case "damping":
		p.Damping = value
	case "gravity":
		p.Gravity = value
	default:
		return unknownParam(name)
	}
	return nil
}
