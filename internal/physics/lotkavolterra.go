package physics

import (
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// LotkaVolterra is the predator-prey model.
// State: [prey, predators]
//
//	dx/dt = a·x - b·x·y
//	dy/dt = -c·y + d·x·y
type LotkaVolterra struct {
	A, B, C, D float64
}

func NewLotkaVolterra() *LotkaVolterra {
	return &LotkaVolterra{A: 1.2, B: 0.6, C: 0.8, D: 0.3}
}

func (l *LotkaVolterra) NumODEs() int { return 2 }

func (l *LotkaVolterra) Evaluate(_ float64, u *dynamo.History, k int, dudt dynamo.State) error {
	s, err := column(2, u, k, dudt)
	if err != nil {
		return err
	}
	x, y := s[0], s[1]
	dudt[0] = l.A*x - l.B*x*y
	dudt[1] = -l.C*y + l.D*x*y
	return nil
}

func (l *LotkaVolterra) JacobianAt(_ float64, u *dynamo.History, k int, j *mat.Dense) error {
	if err := checkJacobian(2, u, j); err != nil {
		return err
	}
	x, y := u.Value(0, k), u.Value(1, k)
	j.Set(0, 0, l.A-l.B*y)
	j.Set(0, 1, -l.B*x)
	j.Set(1, 0, l.D*y)
	j.Set(1, 1, -l.C+l.D*x)
	return nil
}

// Energy is the conserved quantity d·x - c·ln x + b·y - a·ln y, defined
// for positive populations.
func (l *LotkaVolterra) Energy(u dynamo.State) float64 {
	x, y := u[0], u[1]
	return l.D*x - l.C*math.Log(x) + l.B*y - l.A*math.Log(y)
}

func (l *LotkaVolterra) DefaultState() dynamo.State { return dynamo.State{2.0, 1.0} }

func (l *LotkaVolterra) GetParams() map[string]float64 {
	return map[string]float64{"a": l.A, "b": l.B, "c": l.C, "d": l.D}
}

func (l *LotkaVolterra) SetParam(name string, value float64) error {
	switch name {
	case "a":
		l.A = value
	case "b":
		l.B = value
	case "c":
		l.C = value
	case "d":
		l.D = value
	default:
		return unknownParam(name)
	}
	return nil
}
