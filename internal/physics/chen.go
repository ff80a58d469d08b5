package physics

import (
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Chen is the Chen attractor:
//
//	dx/dt = a(y - x)
//	dy/dt = (c - a)x - xz + cy
//	dz/dt = xy - bz
type Chen struct{ A, B, C float64 }

func NewChen() *Chen         { return &Chen{35.0, 3.0, 28.0} }
func (c *Chen) NumODEs() int { return 3 }

func (c *Chen) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(3, u, k, dudt)
	if err != nil {
		return err
	}
	dudt[0] = c.A * (s[1] - s[0])
	dudt[1] = (c.C-c.A)*s[0] - s[0]*s[2] + c.C*s[1]
	dudt[2] = s[0]*s[1] - c.B*s[2]
	return nil
}

func (c *Chen) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(3, u, j); err != nil {
		return err
	}
	s := u.Column(k)
	j.Copy(mat.NewDense(3, 3, []float64{
		-c.A, c.A, 0,
		c.C - c.A - s[2], c.C, -s[0],
		s[1], s[0], -c.B,
	}))
	return nil
}

func (c *Chen) DefaultState() dynamo.State { return dynamo.State{-10.0, 0.0, 37.0} }
func (c *Chen) GetParams() map[string]float64 {
	return map[string]float64{"a": c.A, "b": c.B, "c": c.C}
}
func (c *Chen) SetParam(n string, v float64) error {
	switch n {
	case "a":
		c.A = v
	case "b":
		c.B = v
	case "c":
		c.C = v
	default:
		return unknownParam(n)
	}
	return nil
}
