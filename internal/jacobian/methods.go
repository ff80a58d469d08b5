package jacobian

import (
	"fmt"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// implicitForm holds what the three implicit adapters share: the
// differentiator and scratch for df/du and f(t+h, u_k).
type implicitForm struct {
	diff Differentiator
	jf   *mat.Dense
	dudt dynamo.State
}

func newImplicitForm(diff Differentiator) implicitForm {
	if diff == nil {
		diff = NewFiniteDifference()
	}
	return implicitForm{diff: diff}
}

func (f *implicitForm) ensureScratch(n int) {
	if len(f.dudt) != n {
		f.dudt = make(dynamo.State, n)
		f.jf = mat.NewDense(n, n, nil)
	}
}

func (f *implicitForm) check(ctx SolveContext, depth int) error {
	if err := ctx.Validate(); err != nil {
		return err
	}
	if ctx.K+depth > ctx.U.Depth() {
		return fmt.Errorf("%w: need columns %d..%d, buffer has %d", dynamo.ErrInsufficientHistory, ctx.K, ctx.K+depth-1, ctx.U.Depth())
	}
	f.ensureScratch(ctx.n())
	return nil
}

// jacobian writes I - gamma·df/du into j.
func (f *implicitForm) jacobian(ctx SolveContext, j *mat.Dense, gamma float64) error {
	n := ctx.n()
	if r, c := j.Dims(); r != n || c != n {
		return fmt.Errorf("%w: jacobian is %dx%d, system has %d odes", dynamo.ErrDimensionMismatch, r, c, n)
	}
	if err := f.diff.Derivative(ctx, f.jf); err != nil {
		return err
	}
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v := -gamma * f.jf.At(row, col)
			if row == col {
				v += 1
			}
			j.Set(row, col, v)
		}
	}
	return nil
}

// evalNew evaluates f(t+h, u_k) into f.dudt.
func (f *implicitForm) evalNew(ctx SolveContext, r *mat.VecDense) error {
	if r.Len() != ctx.n() {
		return fmt.Errorf("%w: residual has %d entries, system has %d odes", dynamo.ErrDimensionMismatch, r.Len(), ctx.n())
	}
	return ctx.System.Evaluate(ctx.T+ctx.H, ctx.U, ctx.K, f.dudt)
}

// BackwardEuler: u_k - u_{k+1} - h·f(t+h, u_k) = 0.
type BackwardEuler struct {
	implicitForm
}

func NewBackwardEuler(diff Differentiator) *BackwardEuler {
	return &BackwardEuler{implicitForm: newImplicitForm(diff)}
}

func (m *BackwardEuler) Name() string { return "backward_euler" }
func (m *BackwardEuler) Depth() int   { return 2 }

func (m *BackwardEuler) Begin(ctx SolveContext) error {
	return m.check(ctx, m.Depth())
}

func (m *BackwardEuler) ComputeJacobian(ctx SolveContext, j *mat.Dense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	return m.jacobian(ctx, j, ctx.H)
}

func (m *BackwardEuler) ComputeResidual(ctx SolveContext, r *mat.VecDense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	if err := m.evalNew(ctx, r); err != nil {
		return err
	}
	k, h := ctx.K, ctx.H
	for i := range m.dudt {
		r.SetVec(i, -(ctx.U.Value(i, k) - ctx.U.Value(i, k+1) - h*m.dudt[i]))
	}
	return nil
}

// AdamsMoulton2 is the trapezoidal rule:
// u_k - u_{k+1} - h/2·(f(t+h, u_k) + f(t, u_{k+1})) = 0.
// f(t, u_{k+1}) is evaluated once per solve, in Begin.
type AdamsMoulton2 struct {
	implicitForm
	old    dynamo.State
	oldCtx SolveContext
	ready  bool
}

func NewAdamsMoulton2(diff Differentiator) *AdamsMoulton2 {
	return &AdamsMoulton2{implicitForm: newImplicitForm(diff)}
}

func (m *AdamsMoulton2) Name() string { return "adams_moulton_2" }
func (m *AdamsMoulton2) Depth() int   { return 2 }

func (m *AdamsMoulton2) Begin(ctx SolveContext) error {
	m.ready = false
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	if len(m.old) != ctx.n() {
		m.old = make(dynamo.State, ctx.n())
	}
	if err := ctx.System.Evaluate(ctx.T, ctx.U, ctx.K+1, m.old); err != nil {
		return err
	}
	m.oldCtx = ctx
	m.ready = true
	return nil
}

func (m *AdamsMoulton2) ComputeJacobian(ctx SolveContext, j *mat.Dense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	return m.jacobian(ctx, j, 0.5*ctx.H)
}

func (m *AdamsMoulton2) ComputeResidual(ctx SolveContext, r *mat.VecDense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	if !m.ready || !sameSolve(m.oldCtx, ctx) {
		return fmt.Errorf("%w: %s residual requested without Begin for t=%g h=%g", dynamo.ErrUnconfiguredStrategy, m.Name(), ctx.T, ctx.H)
	}
	if err := m.evalNew(ctx, r); err != nil {
		return err
	}
	k, half := ctx.K, 0.5*ctx.H
	for i := range m.dudt {
		r.SetVec(i, -(ctx.U.Value(i, k) - ctx.U.Value(i, k+1) - half*(m.dudt[i]+m.old[i])))
	}
	return nil
}

// BDF2: u_k - 4/3·u_{k+1} + 1/3·u_{k+2} - 2h/3·f(t+h, u_k) = 0.
type BDF2 struct {
	implicitForm
}

func NewBDF2(diff Differentiator) *BDF2 {
	return &BDF2{implicitForm: newImplicitForm(diff)}
}

func (m *BDF2) Name() string { return "bdf2" }
func (m *BDF2) Depth() int   { return 3 }

func (m *BDF2) Begin(ctx SolveContext) error {
	return m.check(ctx, m.Depth())
}

func (m *BDF2) ComputeJacobian(ctx SolveContext, j *mat.Dense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	return m.jacobian(ctx, j, 2.0*ctx.H/3.0)
}

func (m *BDF2) ComputeResidual(ctx SolveContext, r *mat.VecDense) error {
	if err := m.check(ctx, m.Depth()); err != nil {
		return err
	}
	if err := m.evalNew(ctx, r); err != nil {
		return err
	}
	k, h := ctx.K, ctx.H
	for i := range m.dudt {
		u := ctx.U
		r.SetVec(i, -(u.Value(i, k) - 4.0/3.0*u.Value(i, k+1) + 1.0/3.0*u.Value(i, k+2) - 2.0*h/3.0*m.dudt[i]))
	}
	return nil
}

// sameSolve compares contexts without touching the System, whose dynamic
// type may not be comparable.
func sameSolve(a, b SolveContext) bool {
	return a.U == b.U && a.K == b.K && a.T == b.T && a.H == b.H
}
