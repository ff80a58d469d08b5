package experiment

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/ivpsim/internal/config"
	"github.com/san-kum/ivpsim/internal/control"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/integrators"
	"github.com/san-kum/ivpsim/internal/jacobian"
	"github.com/san-kum/ivpsim/internal/linalg"
	"github.com/san-kum/ivpsim/internal/newton"
	"github.com/san-kum/ivpsim/internal/physics"
)

// ErrUnknownStepper is returned for a stepper name the registry does not know.
var ErrUnknownStepper = errors.New("experiment: unknown stepper")

// ErrUnknownModel is returned for a model name the registry does not know.
var ErrUnknownModel = errors.New("experiment: unknown model")

// DefaultExponent is the controller exponent for fifth-order error estimates.
const DefaultExponent = 0.2

type stepperFactory func(opts []integrators.Option) dynamo.Stepper

type Registry struct {
	models   map[string]func() physics.Model
	steppers map[string]stepperFactory
	logger   log.Logger
}

func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	r := &Registry{
		models:   make(map[string]func() physics.Model),
		steppers: make(map[string]stepperFactory),
		logger:   logger,
	}

	r.models["decay"] = func() physics.Model { return physics.NewDecay() }
	r.models["stiff_decay"] = func() physics.Model { return physics.NewStiffDecay() }
	r.models["oscillator"] = func() physics.Model { return physics.NewOscillator() }
	r.models["van_der_pol"] = func() physics.Model { return physics.NewVanDerPol() }
	r.models["lorenz"] = func() physics.Model { return physics.NewLorenz() }
	r.models["rossler"] = func() physics.Model { return physics.NewRossler() }
	r.models["chen"] = func() physics.Model { return physics.NewChen() }
	r.models["lotka_volterra"] = func() physics.Model { return physics.NewLotkaVolterra() }
	r.models["pendulum"] = func() physics.Model { return physics.NewPendulum() }
	r.models["duffing"] = func() physics.Model { return physics.NewDuffing() }
	r.models["three_body"] = func() physics.Model { return physics.NewThreeBody() }

	r.steppers["euler"] = func([]integrators.Option) dynamo.Stepper { return integrators.NewEuler() }
	r.steppers["rk4"] = func([]integrators.Option) dynamo.Stepper { return integrators.NewRK4() }
	r.steppers["bdf1"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewBDF1(o...) }
	r.steppers["am2"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewAM2(o...) }
	r.steppers["bdf2"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewBDF2(o...) }
	r.steppers["rk45f"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewRK45Fehlberg(o...) }
	r.steppers["rk45dp"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewRK45DormandPrince(o...) }
	r.steppers["am2pc"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewAM2PC(o...) }
	r.steppers["bepc"] = func(o []integrators.Option) dynamo.Stepper { return integrators.NewBEPC(o...) }

	return r
}

// Model builds the named model and applies params to it.
func (r *Registry) Model(name string, params map[string]float64) (physics.Model, error) {
	fn, ok := r.models[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	m := fn()
	for _, k := range sortedKeys(params) {
		if err := m.SetParam(k, params[k]); err != nil {
			return nil, fmt.Errorf("model %s: %w", name, err)
		}
	}
	return m, nil
}

// Stepper builds a fresh stepper. cfg supplies the adaptive, newton and
// corrector sections; nil means defaults.
func (r *Registry) Stepper(name string, cfg *config.Config) (dynamo.Stepper, error) {
	fn, ok := r.steppers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStepper, name)
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts, err := r.stepperOptions(cfg)
	if err != nil {
		return nil, err
	}
	return fn(opts), nil
}

func (r *Registry) stepperOptions(cfg *config.Config) ([]integrators.Option, error) {
	exponent := cfg.Adaptive.Exponent
	if exponent <= 0 {
		exponent = DefaultExponent
	}
	ctrl, ok := control.New(cfg.Adaptive.Controller, exponent)
	if !ok {
		return nil, fmt.Errorf("unknown step-size controller %q", cfg.Adaptive.Controller)
	}
	diff, err := jacobian.NewDifferentiator(cfg.Newton.Jacobian)
	if err != nil {
		return nil, err
	}
	solver, err := NewtonSolver(cfg.Newton, r.logger)
	if err != nil {
		return nil, err
	}

	return []integrators.Option{
		integrators.WithLogger(r.logger),
		integrators.WithAdaptiveConfig(AdaptiveConfig(cfg.Adaptive)),
		integrators.WithController(ctrl),
		integrators.WithCorrectorConfig(CorrectorConfig(cfg.Corrector)),
		integrators.WithDifferentiator(diff),
		integrators.WithNewton(solver),
	}, nil
}

func AdaptiveConfig(c config.AdaptiveConfig) integrators.AdaptiveConfig {
	return integrators.AdaptiveConfig{
		MaxIterations: c.MaxIterations,
		MinStep:       c.MinStep,
		MaxStep:       c.MaxStep,
		MaxTolerance:  c.MaxTolerance,
		MinTolerance:  c.MinTolerance,
		Norm:          strings.ToLower(c.Norm),
	}
}

func CorrectorConfig(c config.CorrectorConfig) integrators.CorrectorConfig {
	return integrators.CorrectorConfig{
		MaxIterations:   c.MaxIterations,
		MaxTolerance:    c.MaxTolerance,
		MinTolerance:    c.MinTolerance,
		FixedIterations: c.FixedIterations,
		FinalEvaluation: c.FinalEvaluation,
	}
}

// NewtonSolver builds the Newton solver described by c.
func NewtonSolver(c config.NewtonConfig, logger log.Logger) (*newton.Solver, error) {
	lin, err := linalg.NewSolver(c.LinearSolver)
	if err != nil {
		return nil, err
	}
	cfg := newton.Config{
		AbsTolerance:  c.AbsTolerance,
		RelTolerance:  c.RelTolerance,
		MaxIterations: c.MaxIterations,
		MaxResidual:   c.MaxResidual,
		ReuseJacobian: c.ReuseJacobian,
	}
	return newton.New(cfg, newton.WithLinearSolver(lin), newton.WithLogger(logger)), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListSteppers() []string {
	return sortedKeys(r.steppers)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
