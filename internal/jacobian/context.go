// Package jacobian couples ODE systems to the Newton solver.
//
// Every implicit method has an adapter that turns df/du into the Jacobian of
// its implicit equation and evaluates the (negated) residual. Adapters never
// hold per-call configuration: the [SolveContext] travels with every call.
//
//   - [FiniteDifference]: forward-difference df/du, one extra evaluation per unknown
//   - [BackwardEuler], [AdamsMoulton2], [BDF2]: implicit-equation adapters
//   - [Bind]: joins a [Method] and a [SolveContext] into a [newton.Strategy]
package jacobian

import (
	"fmt"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/newton"
	"gonum.org/v1/gonum/mat"
)

// SolveContext identifies one implicit solve: the unknowns at t+H live in
// column K of U, older levels in K+1, K+2, ...
type SolveContext struct {
	System dynamo.System
	H      float64
	T      float64
	U      *dynamo.History
	K      int
}

// Validate reports ErrUnconfiguredStrategy for a zero or incomplete context.
func (c SolveContext) Validate() error {
	switch {
	case c.System == nil:
		return fmt.Errorf("%w: no ode system", dynamo.ErrUnconfiguredStrategy)
	case c.U == nil:
		return fmt.Errorf("%w: no state buffer", dynamo.ErrUnconfiguredStrategy)
	case c.H == 0:
		return fmt.Errorf("%w: zero step size", dynamo.ErrUnconfiguredStrategy)
	case c.K < 0 || c.K >= c.U.Depth():
		return fmt.Errorf("%w: history index %d outside %d columns", dynamo.ErrUnconfiguredStrategy, c.K, c.U.Depth())
	}
	return dynamo.CheckDims(c.System, c.U)
}

func (c SolveContext) n() int { return c.System.NumODEs() }

// Strategy computes the implicit-equation Jacobian and negated residual.
type Strategy interface {
	Name() string
	ComputeJacobian(ctx SolveContext, j *mat.Dense) error
	ComputeResidual(ctx SolveContext, r *mat.VecDense) error
}

// Method is a Strategy for a concrete implicit time stepper.
type Method interface {
	Strategy
	// Depth is the number of buffer columns the residual reads.
	Depth() int
	// Begin prepares the method for a new solve; quantities that stay
	// fixed across Newton iterations are evaluated here.
	Begin(ctx SolveContext) error
}

// Bound is a Method fixed to one SolveContext, as consumed by newton.Solver.
// After every Newton update it copies the iterate into column K.
type Bound struct {
	method Method
	ctx    SolveContext
}

var (
	_ newton.Strategy  = (*Bound)(nil)
	_ newton.StepHooks = (*Bound)(nil)
)

func Bind(m Method, ctx SolveContext) *Bound {
	return &Bound{method: m, ctx: ctx}
}

func (b *Bound) ComputeJacobian(_ *mat.VecDense, j *mat.Dense) error {
	return b.method.ComputeJacobian(b.ctx, j)
}

func (b *Bound) ComputeResidual(_ *mat.VecDense, r *mat.VecDense) error {
	return b.method.ComputeResidual(b.ctx, r)
}

func (b *Bound) BeforeNewtonStep(int, *mat.VecDense) error { return nil }

func (b *Bound) AfterNewtonStep(_ int, x *mat.VecDense) error {
	col := b.ctx.U.Column(b.ctx.K)
	if x.Len() != len(col) {
		return fmt.Errorf("%w: iterate %d, buffer %d", dynamo.ErrDimensionMismatch, x.Len(), len(col))
	}
	for i := range col {
		col[i] = x.AtVec(i)
	}
	return nil
}
