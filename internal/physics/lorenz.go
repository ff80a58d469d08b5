package physics

import (
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz       { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) NumODEs() int { return 3 }

// Evaluate calculates the Lorenz attractor derivatives.
func (l *Lorenz) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(3, u, k, dudt)
	if err != nil {
		return err
	}
	dudt[0] = l.Sigma * (s[1] - s[0])
	dudt[1] = s[0]*(l.Rho-s[2]) - s[1]
	dudt[2] = s[0]*s[1] - l.Beta*s[2]
	return nil
}

func (l *Lorenz) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(3, u, j); err != nil {
		return err
	}
	s := u.Column(k)
	j.Copy(mat.NewDense(3, 3, []float64{
		-l.Sigma, l.Sigma, 0,
		l.Rho - s[2], -1, -s[0],
		s[1], s[0], -l.Beta,
	}))
	return nil
}

func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}
func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.Sigma = v
	case "rho":
		l.Rho = v
	case "beta":
		l.Beta = v
	default:
		return unknownParam(n)
	}
	return nil
}
