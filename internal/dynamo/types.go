package dynamo

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the infinity norm of s.
func (s State) MaxAbs() float64 {
	m := 0.0
	for _, v := range s {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// System is an ODE system du/dt = f(t, u). Evaluate reads column k of u and
// writes f into dudt; it must not mutate u.
type System interface {
	NumODEs() int
	Evaluate(t float64, u *History, k int, dudt State) error
}

// Jacobian is implemented by systems that can supply df/du analytically.
type Jacobian interface {
	JacobianAt(t float64, u *History, k int, j *mat.Dense) error
}

// Exact is implemented by systems with a closed-form solution.
type Exact interface {
	Exact(t float64, u0 State) State
}

// Hamiltonian is implemented by systems with a conserved energy.
type Hamiltonian interface {
	Energy(u State) float64
}

// Func adapts a plain function to the System interface.
type Func struct {
	N int
	F func(t float64, u, dudt []float64)
}

func (f Func) NumODEs() int { return f.N }

func (f Func) Evaluate(t float64, u *History, k int, dudt State) error {
	if len(dudt) != f.N || u.Len() != f.N {
		return ErrDimensionMismatch
	}
	f.F(t, u.Column(k), dudt)
	return nil
}

type Stepper interface {
	Name() string
	// HistoryDepth is the number of buffer columns the stepper needs,
	// counting the current one.
	HistoryDepth() int
	Step(sys System, h, t float64, u *History, k int) error
	Reset()
}

type AdaptiveStepper interface {
	Stepper
	TakenStep() float64
	NextStep() float64
	SetFixedOutput(fixed bool)
}

// Configurable is implemented by systems with named numeric parameters.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
