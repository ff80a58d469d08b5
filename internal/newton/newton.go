// Package newton implements a generic Newton-Raphson root finder.
//
// The solver never knows which implicit method it serves: Jacobians and
// residuals come from an injected [Strategy]. Residuals are returned already
// negated (R = -G(x)), so each iteration solves J·dx = R and sets x += dx.
package newton

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/linalg"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultAbsTolerance  = 1e-8
	DefaultMaxIterations = 10
)

// ErrDiverged indicates the residual grew past Config.MaxResidual.
var ErrDiverged = fmt.Errorf("%w: residual above maximum allowed", dynamo.ErrNewtonNonConvergence)

// Strategy supplies the Jacobian and the negated residual at x.
type Strategy interface {
	ComputeJacobian(x *mat.VecDense, j *mat.Dense) error
	ComputeResidual(x *mat.VecDense, r *mat.VecDense) error
}

// StepHooks is optionally implemented by a Strategy to run actions around
// each Newton update.
type StepHooks interface {
	BeforeNewtonStep(iter int, x *mat.VecDense) error
	AfterNewtonStep(iter int, x *mat.VecDense) error
}

type Config struct {
	AbsTolerance float64
	// RelTolerance scales the initial residual norm; zero disables it.
	RelTolerance  float64
	MaxIterations int
	// MaxResidual aborts the solve when exceeded after an iteration; zero disables it.
	MaxResidual float64
	// ReuseJacobian builds and factorizes J once per solve.
	ReuseJacobian bool
	// CheckInitialConvergence returns before iterating if x0 already satisfies the tolerance.
	CheckInitialConvergence bool
}

func DefaultConfig() Config {
	return Config{
		AbsTolerance:  DefaultAbsTolerance,
		MaxIterations: DefaultMaxIterations,
	}
}

type Result struct {
	X            *mat.VecDense
	Iterations   int
	InitialNorm  float64
	ResidualNorm float64
}

type Solver struct {
	cfg    Config
	linear linalg.Solver
	logger log.Logger
}

type Option func(*Solver)

func WithLinearSolver(s linalg.Solver) Option {
	return func(n *Solver) { n.linear = s }
}

func WithLogger(l log.Logger) Option {
	return func(n *Solver) { n.logger = l }
}

func New(cfg Config, opts ...Option) *Solver {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.AbsTolerance <= 0 {
		cfg.AbsTolerance = DefaultAbsTolerance
	}
	s := &Solver{
		cfg:    cfg,
		linear: linalg.LU{},
		logger: log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Solver) Config() Config { return s.cfg }

// Solve iterates from x0 until the residual norm drops below
// AbsTolerance + RelTolerance·‖R(x0)‖. x0 is not modified.
func (s *Solver) Solve(p Strategy, x0 *mat.VecDense) (*Result, error) {
	n := x0.Len()
	x := mat.VecDenseCopyOf(x0)
	r := mat.NewVecDense(n, nil)
	j := mat.NewDense(n, n, nil)
	dx := mat.NewVecDense(n, nil)
	hooks, _ := p.(StepHooks)

	if err := p.ComputeResidual(x, r); err != nil {
		return nil, fmt.Errorf("newton: initial residual: %w", err)
	}
	norm := linalg.NormInf(r)
	res := &Result{X: x, InitialNorm: norm, ResidualNorm: norm}
	threshold := s.cfg.AbsTolerance + s.cfg.RelTolerance*norm

	if s.cfg.CheckInitialConvergence && norm <= threshold {
		return res, nil
	}

	var fact linalg.Factorization
	for iter := 1; iter <= s.cfg.MaxIterations; iter++ {
		if hooks != nil {
			if err := hooks.BeforeNewtonStep(iter, x); err != nil {
				return res, err
			}
		}

		if fact == nil || !s.cfg.ReuseJacobian {
			if err := p.ComputeJacobian(x, j); err != nil {
				return res, fmt.Errorf("newton: jacobian: %w", err)
			}
			if linalg.HasNaNOrInf(j) {
				return res, fmt.Errorf("%w: jacobian has NaN or Inf entries at iteration %d", linalg.ErrSingular, iter)
			}
			var err error
			if fact, err = s.linear.Factorize(j); err != nil {
				return res, fmt.Errorf("newton: iteration %d: %w", iter, err)
			}
		}
		if err := fact.SolveVec(dx, r); err != nil {
			return res, fmt.Errorf("newton: iteration %d: %w", iter, err)
		}
		x.AddVec(x, dx)

		if hooks != nil {
			if err := hooks.AfterNewtonStep(iter, x); err != nil {
				return res, err
			}
		}

		if err := p.ComputeResidual(x, r); err != nil {
			return res, fmt.Errorf("newton: residual: %w", err)
		}
		norm = linalg.NormInf(r)
		res.Iterations = iter
		res.ResidualNorm = norm

		level.Debug(s.logger).Log("msg", "newton iteration", "iter", iter, "residual", norm, "threshold", threshold)

		if norm <= threshold {
			return res, nil
		}
		if math.IsNaN(norm) || math.IsInf(norm, 0) {
			break
		}
		if s.cfg.MaxResidual > 0 && norm > s.cfg.MaxResidual {
			level.Warn(s.logger).Log("msg", "newton residual above maximum", "iter", iter, "residual", norm, "max", s.cfg.MaxResidual)
			return res, fmt.Errorf("%w: %.3e > %.3e at iteration %d", ErrDiverged, norm, s.cfg.MaxResidual, iter)
		}
	}

	level.Warn(s.logger).Log("msg", "newton did not converge", "iterations", res.Iterations, "residual", norm)
	return res, fmt.Errorf("%w: %d iterations, residual %.3e > %.3e", dynamo.ErrNewtonNonConvergence, res.Iterations, norm, threshold)
}

// IsNonConvergence reports whether err is a Newton convergence failure.
func IsNonConvergence(err error) bool {
	return errors.Is(err, dynamo.ErrNewtonNonConvergence)
}
