package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ivpsim/internal/dynamo"
)

// maxPrealloc caps the output slices reserved up front; a tiny h or a free
// adaptive run grows them on demand instead.
const maxPrealloc = 1 << 16

// Problem couples an ODE system with a stepper and drives it over a time span.
type Problem struct {
	sys       dynamo.System
	counter   *dynamo.Counting
	stepper   dynamo.Stepper
	metrics   []Metric
	observers []Observer
	logger    log.Logger
}

type Option func(*Problem)

func WithLogger(l log.Logger) Option {
	return func(p *Problem) {
		if l != nil {
			p.logger = l
		}
	}
}

func WithMetrics(ms ...Metric) Option {
	return func(p *Problem) { p.metrics = append(p.metrics, ms...) }
}

func WithObservers(os ...Observer) Option {
	return func(p *Problem) { p.observers = append(p.observers, os...) }
}

// New wraps sys in a call counter; the stepper only sees the wrapper.
func New(sys dynamo.System, stepper dynamo.Stepper, opts ...Option) *Problem {
	counter, ok := sys.(*dynamo.Counting)
	if !ok {
		counter = dynamo.NewCounting(sys)
	}
	p := &Problem{
		sys:     sys,
		counter: counter,
		stepper: stepper,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Counter is the evaluation counter shared by all runs of p.
func (p *Problem) Counter() *dynamo.Counting { return p.counter }
func (p *Problem) Stepper() dynamo.Stepper   { return p.stepper }
func (p *Problem) System() dynamo.System     { return p.sys }

// Run integrates from u0 at cfg.T0 to cfg.TFinal, recording the state every
// cfg.H. On failure the partial result up to the last good output is
// returned together with a *dynamo.SimulationError.
func (p *Problem) Run(ctx context.Context, u0 dynamo.State, cfg Config) (*Result, error) {
	if err := p.validateConfig(u0, cfg); err != nil {
		return nil, err
	}

	depth := cfg.Depth
	if d := p.stepper.HistoryDepth(); d > depth {
		depth = d
	}
	u := dynamo.NewHistoryFrom(u0, depth)

	p.counter.Reset()
	p.stepper.Reset()
	for _, m := range p.metrics {
		m.Reset()
	}
	adaptive, isAdaptive := p.stepper.(dynamo.AdaptiveStepper)
	if isAdaptive {
		adaptive.SetFixedOutput(cfg.FixedOutput)
	}

	outputs := maxPrealloc
	if n := math.Ceil((cfg.TFinal-cfg.T0)/cfg.H) + 1; n < maxPrealloc {
		outputs = int(n)
	}
	result := &Result{
		Stepper: p.stepper.Name(),
		Times:   make([]float64, 0, outputs),
		States:  make([]dynamo.State, 0, outputs),
		Metrics: make(map[string]float64),
	}
	defer p.finish(result)

	logger := log.With(p.logger, "stepper", p.stepper.Name())
	level.Debug(logger).Log("msg", "run started", "t0", cfg.T0, "t_final", cfg.TFinal, "h", cfg.H, "depth", depth)

	t := cfg.T0
	p.record(result, t, u.Column(0))

	eps := 1e-12 * math.Max(1, math.Abs(cfg.TFinal))
	for t < cfg.TFinal-eps {
		if err := ctx.Err(); err != nil {
			return result, p.fail(result, t, u, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err))
		}

		h := cfg.H
		if t+h > cfg.TFinal-eps {
			h = cfg.TFinal - t
		}

		var err error
		switch {
		case isAdaptive && cfg.FixedOutput:
			t, err = p.subStep(ctx, adaptive, result, u, t, t+h, eps)
		case isAdaptive:
			t, err = p.freeStep(adaptive, result, u, t, h, cfg.TFinal)
		default:
			err = p.stepper.Step(p.counter, h, t, u, 0)
			if err == nil {
				t += h
				result.StepsTaken++
			}
		}
		if err != nil {
			return result, p.fail(result, t, u, err)
		}
		if math.Abs(cfg.TFinal-t) <= eps {
			t = cfg.TFinal
		}

		if cfg.ValidateState && !u.Column(0).IsValid() {
			return result, p.fail(result, t, u, dynamo.ErrInvalidState)
		}
		p.record(result, t, u.Column(0))
	}

	level.Debug(logger).Log("msg", "run finished", "steps", result.StepsTaken, "evaluations", p.counter.Total())
	return result, nil
}

// subStep advances an adaptive stepper until it reaches tOut exactly.
func (p *Problem) subStep(ctx context.Context, s dynamo.AdaptiveStepper, result *Result, u *dynamo.History, t, tOut, eps float64) (float64, error) {
	for t < tOut-eps {
		if err := ctx.Err(); err != nil {
			return t, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, err)
		}
		if err := s.Step(p.counter, tOut-t, t, u, 0); err != nil {
			return t, err
		}
		t += s.TakenStep()
		result.StepsTaken++
	}
	return tOut, nil
}

// freeStep takes one adaptive step of the stepper's own choosing, capped so
// it does not run past tFinal.
func (p *Problem) freeStep(s dynamo.AdaptiveStepper, result *Result, u *dynamo.History, t, h, tFinal float64) (float64, error) {
	if next := s.NextStep(); next > 0 && t+next > tFinal {
		s.SetFixedOutput(true)
		defer s.SetFixedOutput(false)
		h = tFinal - t
	}
	if err := s.Step(p.counter, h, t, u, 0); err != nil {
		return t, err
	}
	result.StepsTaken++
	return t + s.TakenStep(), nil
}

func (p *Problem) record(result *Result, t float64, u dynamo.State) {
	state := u.Clone()
	result.Times = append(result.Times, t)
	result.States = append(result.States, state)
	for _, m := range p.metrics {
		m.Observe(t, state)
	}
	for _, obs := range p.observers {
		obs.OnStep(t, state)
	}
}

func (p *Problem) fail(result *Result, t float64, u *dynamo.History, err error) error {
	level.Warn(p.logger).Log("msg", "run failed", "stepper", p.stepper.Name(), "t", t, "err", err)
	return &dynamo.SimulationError{
		Step:    len(result.Times),
		Time:    t,
		State:   u.Column(0).Clone(),
		Wrapped: err,
	}
}

func (p *Problem) finish(result *Result) {
	result.Evaluations = p.counter.Total()
	if r, ok := p.stepper.(interface{ Rejected() int }); ok {
		result.Rejected = r.Rejected()
	}
	for _, m := range p.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (p *Problem) validateConfig(u0 dynamo.State, cfg Config) error {
	if cfg.H <= 0 {
		return fmt.Errorf("h must be positive, got %f", cfg.H)
	}
	if cfg.TFinal <= cfg.T0 {
		return fmt.Errorf("t_final must be after t0, got [%f, %f]", cfg.T0, cfg.TFinal)
	}
	if len(u0) != p.sys.NumODEs() {
		return fmt.Errorf("%w: initial state has %d values, system has %d odes", dynamo.ErrDimensionMismatch, len(u0), p.sys.NumODEs())
	}
	return nil
}
