package integrators

import (
	"fmt"
	"math"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

type CorrectorConfig struct {
	MaxIterations int
	// MaxTolerance bounds the relative change between corrector iterates.
	MaxTolerance float64
	MinTolerance float64

	// FixedIterations always runs MaxIterations corrections.
	FixedIterations bool
	// FinalEvaluation evaluates f at the accepted point so the next step can
	// reuse it.
	FinalEvaluation bool
}

func DefaultCorrectorConfig() CorrectorConfig {
	return CorrectorConfig{
		MaxIterations: 10,
		MaxTolerance:  1e-3,
		MinTolerance:  1e-8,
	}
}

func (c CorrectorConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("corrector: max_iterations must be positive, got %d", c.MaxIterations)
	}
	if c.MaxTolerance <= 0 {
		return fmt.Errorf("corrector: max_tolerance must be positive, got %g", c.MaxTolerance)
	}
	return nil
}

// Corrector writes a corrected value into out from the current value u,
// f(t, u) and f(t+h, u_p) at the latest iterate.
type Corrector func(h float64, u, fOld, fPred, out dynamo.State)

// TrapezoidalCorrector is the second-order Adams-Moulton corrector.
func TrapezoidalCorrector(h float64, u, fOld, fPred, out dynamo.State) {
	for i := range out {
		out[i] = u[i] + 0.5*h*(fPred[i]+fOld[i])
	}
}

// BackwardEulerCorrector applies backward Euler with f taken at the latest iterate.
func BackwardEulerCorrector(h float64, u, fOld, fPred, out dynamo.State) {
	for i := range out {
		out[i] = u[i] + h*fPred[i]
	}
}

// smallValue is the magnitude below which convergence uses the absolute change.
const smallValue = 1e-12

// PredictorCorrector runs P(EC)^k[E]: an explicit Euler prediction followed
// by fixed-point corrector iterations.
type PredictorCorrector struct {
	name      string
	corrector Corrector
	cfg       CorrectorConfig
	logger    log.Logger

	iterations int

	fOld, fPred dynamo.State
	corr, prev  dynamo.State
	stage       stage

	cache      dynamo.State
	cacheU     dynamo.State
	cacheT     float64
	cacheValid bool
}

func NewPredictorCorrector(name string, c Corrector, opts ...Option) *PredictorCorrector {
	o := buildOptions(opts)
	return &PredictorCorrector{
		name:      name,
		corrector: c,
		cfg:       o.corrector,
		logger:    log.With(o.logger, "stepper", name),
	}
}

func NewAM2PC(opts ...Option) *PredictorCorrector {
	return NewPredictorCorrector("am2pc", TrapezoidalCorrector, opts...)
}

func NewBEPC(opts ...Option) *PredictorCorrector {
	return NewPredictorCorrector("bepc", BackwardEulerCorrector, opts...)
}

func (p *PredictorCorrector) Name() string            { return p.name }
func (p *PredictorCorrector) HistoryDepth() int       { return 1 }
func (p *PredictorCorrector) Config() CorrectorConfig { return p.cfg }

// Iterations is the number of corrections made by the last step.
func (p *PredictorCorrector) Iterations() int { return p.iterations }

func (p *PredictorCorrector) Reset() {
	p.iterations = 0
	p.cacheValid = false
}

func (p *PredictorCorrector) ensureScratch(n int) {
	if len(p.fOld) != n {
		p.fOld = make(dynamo.State, n)
		p.fPred = make(dynamo.State, n)
		p.corr = make(dynamo.State, n)
		p.prev = make(dynamo.State, n)
		p.cache = make(dynamo.State, n)
		p.cacheU = make(dynamo.State, n)
		p.cacheValid = false
	}
	p.stage.ensure(n)
}

func (p *PredictorCorrector) Step(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	if err := checkStep(sys, u, k, p.HistoryDepth()); err != nil {
		return dynamo.NewStepError(p.Name(), t, h, err)
	}
	p.ensureScratch(u.Len())
	x := u.Column(k)

	if p.cacheValid && t == p.cacheT && floats.Equal(x, p.cacheU) {
		copy(p.fOld, p.cache)
	} else if err := sys.Evaluate(t, u, k, p.fOld); err != nil {
		return dynamo.NewStepError(p.Name(), t, h, err)
	}

	// predict
	pred := p.stage.state()
	for i := range pred {
		pred[i] = x[i] + h*p.fOld[i]
	}
	copy(p.prev, pred)

	converged := false
	p.iterations = 0
	var change float64
	for p.iterations < p.cfg.MaxIterations {
		if err := p.stage.eval(sys, t+h, p.fPred); err != nil {
			return dynamo.NewStepError(p.Name(), t, h, err)
		}
		p.corrector(h, x, p.fOld, p.fPred, p.corr)
		p.iterations++

		change = relativeChange(p.corr, p.prev)
		copy(pred, p.corr)
		copy(p.prev, p.corr)

		if change < p.cfg.MinTolerance {
			level.Debug(p.logger).Log("msg", "change below min tolerance", "t", t, "iter", p.iterations, "change", change)
		}
		if !p.cfg.FixedIterations && change <= p.cfg.MaxTolerance {
			converged = true
			break
		}
	}
	if !converged && !p.cfg.FixedIterations {
		level.Warn(p.logger).Log("msg", "corrector reached max iterations", "t", t, "h", h, "change", change)
	}

	u.Commit(k, p.corr)

	p.cacheValid = false
	if p.cfg.FinalEvaluation {
		if err := sys.Evaluate(t+h, u, k, p.cache); err != nil {
			return dynamo.NewStepError(p.Name(), t, h, err)
		}
		copy(p.cacheU, p.corr)
		p.cacheT = t + h
		p.cacheValid = true
	}
	return nil
}

// relativeChange is max_i |(a_i - b_i) / a_i|, falling back to the absolute
// change where a_i is near zero.
func relativeChange(a, b dynamo.State) float64 {
	m := 0.0
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if math.Abs(a[i]) >= smallValue {
			d /= math.Abs(a[i])
		}
		if d > m || math.IsNaN(d) {
			m = d
		}
	}
	return m
}
