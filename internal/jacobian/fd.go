package jacobian

import (
	"fmt"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// DefaultPerturbation is the forward-difference step.
const DefaultPerturbation = 1e-8

// Differentiator computes df/du at (t+h, column k).
type Differentiator interface {
	Derivative(ctx SolveContext, j *mat.Dense) error
}

// FiniteDifference builds df/du column by column, perturbing one unknown at a
// time on a private copy of the buffer. A build costs NumODEs()+1 evaluations.
type FiniteDifference struct {
	Delta float64

	scratch    *dynamo.History
	base, pert dynamo.State
}

func NewFiniteDifference() *FiniteDifference {
	return &FiniteDifference{Delta: DefaultPerturbation}
}

func (fd *FiniteDifference) ensureScratch(u *dynamo.History) {
	if fd.scratch == nil || fd.scratch.Len() != u.Len() || fd.scratch.Depth() != u.Depth() {
		fd.scratch = u.Clone()
		fd.base = make(dynamo.State, u.Len())
		fd.pert = make(dynamo.State, u.Len())
		return
	}
	fd.scratch.CopyFrom(u)
}

func (fd *FiniteDifference) Derivative(ctx SolveContext, j *mat.Dense) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	n := ctx.n()
	if r, c := j.Dims(); r != n || c != n {
		return fmt.Errorf("%w: jacobian is %dx%d, system has %d odes", dynamo.ErrDimensionMismatch, r, c, n)
	}
	fd.ensureScratch(ctx.U)

	t := ctx.T + ctx.H
	if err := ctx.System.Evaluate(t, fd.scratch, ctx.K, fd.base); err != nil {
		return err
	}

	delta := fd.Delta
	if delta == 0 {
		delta = DefaultPerturbation
	}
	col := fd.scratch.Column(ctx.K)
	for i := 0; i < n; i++ {
		orig := col[i]
		col[i] = orig + delta
		err := ctx.System.Evaluate(t, fd.scratch, ctx.K, fd.pert)
		col[i] = orig
		if err != nil {
			return err
		}
		for row := 0; row < n; row++ {
			j.Set(row, i, (fd.pert[row]-fd.base[row])/delta)
		}
	}
	return nil
}

// Analytic uses the system's own Jacobian when it has one and falls back to
// finite differences otherwise.
type Analytic struct {
	Fallback Differentiator
}

func (a Analytic) Derivative(ctx SolveContext, j *mat.Dense) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if jac, ok := dynamo.AnalyticJacobian(ctx.System); ok {
		return jac.JacobianAt(ctx.T+ctx.H, ctx.U, ctx.K, j)
	}
	if a.Fallback == nil {
		return NewFiniteDifference().Derivative(ctx, j)
	}
	return a.Fallback.Derivative(ctx, j)
}

// NewDifferentiator returns "fd" (default) or "analytic".
func NewDifferentiator(name string) (Differentiator, error) {
	switch name {
	case "", "fd":
		return NewFiniteDifference(), nil
	case "analytic":
		return Analytic{Fallback: NewFiniteDifference()}, nil
	}
	return nil, fmt.Errorf("jacobian: unknown differentiator %q", name)
}
