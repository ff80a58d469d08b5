package physics

import (
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

type Rossler struct{ A, B, C float64 }

func NewRossler() *Rossler      { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) NumODEs() int { return 3 }

// Evaluate calculates the Rossler attractor derivatives.
func (r *Rossler) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(3, u, k, dudt)
	if err != nil {
		return err
	}
	dudt[0] = -s[1] - s[2]
	dudt[1] = s[0] + r.A*s[1]
	dudt[2] = r.B + s[2]*(s[0]-r.C)
	return nil
}

func (r *Rossler) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(3, u, j); err != nil {
		return err
	}
	s := u.Column(k)
	j.Copy(mat.NewDense(3, 3, []float64{
		0, -1, -1,
		1, r.A, 0,
		s[2], 0, s[0] - r.C,
	}))
	return nil
}

func (r *Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.A, "b": r.B, "c": r.C}
}
func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.A = v
	case "b":
		r.B = v
	case "c":
		r.C = v
	default:
		return unknownParam(n)
	}
	return nil
}
