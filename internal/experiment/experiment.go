// Package experiment assembles runnable problems from configuration: a
// model and a stepper from the [Registry], the standard metrics and a
// [sim.Problem] to drive them.
package experiment

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/ivpsim/internal/config"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/metrics"
	"github.com/san-kum/ivpsim/internal/physics"
	"github.com/san-kum/ivpsim/internal/sim"
)

type Experiment struct {
	cfg     *config.Config
	model   physics.Model
	stepper dynamo.Stepper
	problem *sim.Problem
	u0      dynamo.State
}

type Option func(*options)

type options struct {
	registry  *Registry
	logger    log.Logger
	observers []sim.Observer
	threshold float64
}

func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithObservers(obs ...sim.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// WithStabilityThreshold sets the bound of the stability metric.
func WithStabilityThreshold(v float64) Option {
	return func(o *options) { o.threshold = v }
}

// New validates cfg and builds its model, stepper and problem.
func New(cfg *config.Config, opts ...Option) (*Experiment, error) {
	o := options{logger: log.NewNopLogger(), threshold: metrics.DefaultThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry(o.logger)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	model, err := o.registry.Model(cfg.Model, cfg.Params)
	if err != nil {
		return nil, err
	}
	stepper, err := o.registry.Stepper(cfg.Stepper, cfg)
	if err != nil {
		return nil, err
	}

	u0 := dynamo.State(cfg.GetInitState())
	if u0 == nil {
		u0 = model.DefaultState()
	}
	if len(u0) != model.NumODEs() {
		return nil, fmt.Errorf("%w: %s has %d odes, init_state has %d values", dynamo.ErrDimensionMismatch, cfg.Model, model.NumODEs(), len(u0))
	}

	counter := dynamo.NewCounting(model)
	problem := sim.New(counter, stepper,
		sim.WithLogger(o.logger),
		sim.WithMetrics(metrics.Standard(model, counter, o.threshold)...),
		sim.WithObservers(o.observers...),
	)

	return &Experiment{
		cfg:     cfg,
		model:   model,
		stepper: stepper,
		problem: problem,
		u0:      u0,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	simCfg := sim.Config{
		H:             e.cfg.H,
		T0:            e.cfg.T0,
		TFinal:        e.cfg.TFinal,
		Depth:         1,
		FixedOutput:   e.cfg.FixedOutput,
		ValidateState: true,
	}
	return e.problem.Run(ctx, e.u0.Clone(), simCfg)
}

func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Model() physics.Model    { return e.model }
func (e *Experiment) Stepper() dynamo.Stepper { return e.stepper }
func (e *Experiment) InitState() dynamo.State { return e.u0.Clone() }

// Problem returns the underlying problem for adding metrics or observers.
func (e *Experiment) Problem() *sim.Problem { return e.problem }
