package integrators

import (
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/jacobian"
	"github.com/san-kum/ivpsim/internal/newton"
	"gonum.org/v1/gonum/mat"
)

// Implicit advances an implicit multistep formula by solving it with Newton's
// method from an RK4 initial guess.
type Implicit struct {
	name   string
	method jacobian.Method
	solver *newton.Solver
	guess  *RK4
	logger log.Logger

	// needsBootstrap methods take a plain RK4 step until the buffer holds
	// enough past values.
	needsBootstrap bool
	bootstrapped   bool

	iterations int
	x0         *mat.VecDense
	saved      *dynamo.History
}

func newImplicit(name string, build func(jacobian.Differentiator) jacobian.Method, bootstrap bool, opts []Option) *Implicit {
	o := buildOptions(opts)
	solver := o.solver
	if solver == nil {
		solver = newton.New(newton.DefaultConfig(), newton.WithLogger(o.logger))
	}
	return &Implicit{
		name:           name,
		method:         build(o.diff),
		solver:         solver,
		guess:          NewRK4(),
		logger:         log.With(o.logger, "stepper", name),
		needsBootstrap: bootstrap,
	}
}

// NewBDF1 returns backward Euler.
func NewBDF1(opts ...Option) *Implicit {
	return newImplicit("bdf1", func(d jacobian.Differentiator) jacobian.Method {
		return jacobian.NewBackwardEuler(d)
	}, false, opts)
}

// NewAM2 returns the trapezoidal rule.
func NewAM2(opts ...Option) *Implicit {
	return newImplicit("am2", func(d jacobian.Differentiator) jacobian.Method {
		return jacobian.NewAdamsMoulton2(d)
	}, false, opts)
}

// NewBDF2 returns the two-step backward differentiation formula. Its first
// step after construction or Reset is a plain RK4 step.
func NewBDF2(opts ...Option) *Implicit {
	return newImplicit("bdf2", func(d jacobian.Differentiator) jacobian.Method {
		return jacobian.NewBDF2(d)
	}, true, opts)
}

func (s *Implicit) Name() string            { return s.name }
func (s *Implicit) HistoryDepth() int       { return s.method.Depth() }
func (s *Implicit) Method() jacobian.Method { return s.method }
func (s *Implicit) Solver() *newton.Solver  { return s.solver }
func (s *Implicit) Bootstrapped() bool      { return s.bootstrapped }

// Iterations is the Newton iteration count of the last step.
func (s *Implicit) Iterations() int { return s.iterations }

func (s *Implicit) Reset() {
	s.bootstrapped = false
	s.iterations = 0
}

func (s *Implicit) Step(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	if err := checkStep(sys, u, k, s.HistoryDepth()); err != nil {
		return dynamo.NewStepError(s.name, t, h, err)
	}

	s.saveBuffer(u)
	if err := s.guess.advance(sys, h, t, u, k); err != nil {
		return dynamo.NewStepError(s.name, t, h, err)
	}
	u.Commit(k, s.guess.next)
	s.iterations = 0
	if s.needsBootstrap && !s.bootstrapped {
		s.bootstrapped = true
		level.Debug(s.logger).Log("msg", "bootstrap step", "t", t, "h", h)
		return nil
	}

	if err := s.solve(sys, h, t, u, k); err != nil {
		s.restoreBuffer(u)
		return dynamo.NewStepError(s.name, t, h, err)
	}
	return nil
}

// solve runs Newton from the committed guess and writes the root into column k.
func (s *Implicit) solve(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	ctx := jacobian.SolveContext{System: sys, H: h, T: t, U: u, K: k}
	if err := s.method.Begin(ctx); err != nil {
		return err
	}

	col := u.Column(k)
	if s.x0 == nil || s.x0.Len() != len(col) {
		s.x0 = mat.NewVecDense(len(col), nil)
	}
	for i, v := range col {
		s.x0.SetVec(i, v)
	}

	res, err := s.solver.Solve(jacobian.Bind(s.method, ctx), s.x0)
	if res != nil {
		s.iterations = res.Iterations
	}
	if err != nil {
		return err
	}
	for i := range col {
		col[i] = res.X.AtVec(i)
	}
	return nil
}

// saveBuffer keeps a copy of u so a failed solve leaves the buffer as it was
// after the last accepted step.
func (s *Implicit) saveBuffer(u *dynamo.History) {
	if s.saved == nil || s.saved.Len() != u.Len() || s.saved.Depth() != u.Depth() {
		s.saved = u.Clone()
		return
	}
	s.saved.CopyFrom(u)
}

func (s *Implicit) restoreBuffer(u *dynamo.History) {
	u.CopyFrom(s.saved)
}
