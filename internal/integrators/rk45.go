package integrators

import (
	"fmt"
	"math"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/san-kum/ivpsim/internal/control"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

type AdaptiveConfig struct {
	// MaxIterations caps the attempts per step, the accepted one included.
	MaxIterations int
	MinStep       float64
	MaxStep       float64
	MaxTolerance  float64
	// MinTolerance only triggers a debug log; steps that accurate are still accepted.
	MinTolerance float64

	// Norm reduces the error vector: "inf" or "l2".
	Norm string
}

func DefaultAdaptiveConfig() AdaptiveConfig {
	return AdaptiveConfig{
		MaxIterations: 5,
		MinStep:       1e-4,
		MaxStep:       1.0,
		MaxTolerance:  1e-3,
		MinTolerance:  1e-8,
		Norm:          "inf",
	}
}

func (c AdaptiveConfig) Validate() error {
	switch {
	case c.MaxIterations < 1:
		return fmt.Errorf("adaptive: max_iterations must be positive, got %d", c.MaxIterations)
	case c.MinStep <= 0 || c.MaxStep < c.MinStep:
		return fmt.Errorf("adaptive: need 0 < min_step <= max_step, got [%g, %g]", c.MinStep, c.MaxStep)
	case c.MaxTolerance <= 0:
		return fmt.Errorf("adaptive: max_tolerance must be positive, got %g", c.MaxTolerance)
	case c.Norm != "" && c.Norm != "inf" && c.Norm != "l2":
		return fmt.Errorf("adaptive: unknown norm %q", c.Norm)
	}
	return nil
}

// AttemptRecord describes one trial step of an adaptive stepper.
type AttemptRecord struct {
	T        float64
	H        float64
	ErrNorm  float64
	Accepted bool
}

// Adaptive is an embedded Runge-Kutta stepper with step-size control. It
// advances the higher-order solution and uses the embedded lower-order one
// only for the error estimate.
type Adaptive struct {
	tableau    Tableau
	cfg        AdaptiveConfig
	controller control.Controller
	observer   func(AttemptRecord)
	logger     log.Logger
	norm       float64

	taken    float64
	next     float64
	computed bool
	fixed    bool
	rejected int

	k     []dynamo.State
	sol   dynamo.State
	errv  dynamo.State
	stage stage

	// first-same-as-last cache for FSAL tableaus
	fsal      dynamo.State
	fsalU     dynamo.State
	fsalT     float64
	fsalValid bool
}

var _ dynamo.AdaptiveStepper = (*Adaptive)(nil)

func NewAdaptive(tb Tableau, opts ...Option) *Adaptive {
	o := buildOptions(opts)
	ctrl := o.controller
	if ctrl == nil {
		ctrl = control.NewProportional(0.2)
	}
	norm := math.Inf(1)
	if o.adaptive.Norm == "l2" {
		norm = 2
	}
	return &Adaptive{
		tableau:    tb,
		cfg:        o.adaptive,
		controller: ctrl,
		observer:   o.observer,
		logger:     log.With(o.logger, "stepper", tb.Name),
		norm:       norm,
		fixed:      true,
	}
}

func NewRK45Fehlberg(opts ...Option) *Adaptive {
	return NewAdaptive(FehlbergTableau(), opts...)
}

func NewRK45DormandPrince(opts ...Option) *Adaptive {
	return NewAdaptive(DormandPrinceTableau(), opts...)
}

func (a *Adaptive) Name() string           { return a.tableau.Name }
func (a *Adaptive) HistoryDepth() int      { return 1 }
func (a *Adaptive) Config() AdaptiveConfig { return a.cfg }

// TakenStep is the size of the last accepted step.
func (a *Adaptive) TakenStep() float64 { return a.taken }

// NextStep is the step size proposed for the next call.
func (a *Adaptive) NextStep() float64 { return a.next }

// Rejected counts the rejected attempts since the last Reset.
func (a *Adaptive) Rejected() int { return a.rejected }

// SetFixedOutput caps trial steps at the h passed to Step, so a step never
// runs past the caller's next output time.
func (a *Adaptive) SetFixedOutput(fixed bool) { a.fixed = fixed }

func (a *Adaptive) Reset() {
	a.taken = 0
	a.next = 0
	a.computed = false
	a.fixed = true
	a.rejected = 0
	a.fsalValid = false
	a.controller.Reset()
}

func (a *Adaptive) ensureScratch(n int) {
	if len(a.sol) != n || len(a.k) != a.tableau.Stages() {
		a.k = make([]dynamo.State, a.tableau.Stages())
		for i := range a.k {
			a.k[i] = make(dynamo.State, n)
		}
		a.sol = make(dynamo.State, n)
		a.errv = make(dynamo.State, n)
		a.fsal = make(dynamo.State, n)
		a.fsalU = make(dynamo.State, n)
		a.fsalValid = false
	}
	a.stage.ensure(n)
}

func (a *Adaptive) clamp(h float64) float64 {
	return math.Max(a.cfg.MinStep, math.Min(a.cfg.MaxStep, h))
}

func (a *Adaptive) trialStep(h float64) float64 {
	hh := h
	if a.computed {
		hh = a.next
	}
	hh = a.clamp(hh)
	if a.fixed && hh > h {
		hh = h
	}
	return hh
}

func (a *Adaptive) Step(sys dynamo.System, h, t float64, u *dynamo.History, k int) error {
	if err := checkStep(sys, u, k, a.HistoryDepth()); err != nil {
		return dynamo.NewStepError(a.Name(), t, h, err)
	}
	a.ensureScratch(u.Len())

	hh := a.trialStep(h)
	for attempt := 1; ; attempt++ {
		errNorm, err := a.attempt(sys, hh, t, u, k)
		if err != nil {
			return dynamo.NewStepError(a.Name(), t, hh, err)
		}
		accepted := errNorm <= a.cfg.MaxTolerance
		if a.observer != nil {
			a.observer(AttemptRecord{T: t, H: hh, ErrNorm: errNorm, Accepted: accepted})
		}

		if accepted {
			if errNorm < a.cfg.MinTolerance {
				level.Debug(a.logger).Log("msg", "error below min tolerance", "t", t, "h", hh, "err", errNorm)
			}
			u.Commit(k, a.sol)
			if a.tableau.FSAL {
				copy(a.fsal, a.k[a.tableau.Stages()-1])
				copy(a.fsalU, a.sol)
				a.fsalT = t + hh
				a.fsalValid = true
			}
			a.taken = hh
			proposed := a.controller.Propose(errNorm, a.cfg.MaxTolerance, hh)
			if math.IsNaN(proposed) {
				proposed = hh
			}
			a.next = a.clamp(proposed)
			a.computed = true
			return nil
		}

		a.rejected++
		if hh <= a.cfg.MinStep || attempt >= a.cfg.MaxIterations {
			level.Debug(a.logger).Log("msg", "giving up", "t", t, "h", hh, "err", errNorm, "attempts", attempt)
			return dynamo.NewStepError(a.Name(), t, hh, fmt.Errorf("%w: %d attempts, error %.3e > %.3e",
				dynamo.ErrStepRejectionExhausted, attempt, errNorm, a.cfg.MaxTolerance))
		}

		next := a.controller.Propose(errNorm, a.cfg.MaxTolerance, hh)
		if !(next < hh) {
			next = hh / 2
		}
		if next < a.cfg.MinStep {
			level.Debug(a.logger).Log("msg", "step clamped to min step", "t", t, "proposed", next)
			next = a.cfg.MinStep
		}
		level.Debug(a.logger).Log("msg", "step rejected", "t", t, "h", hh, "err", errNorm, "next", next)
		hh = next
	}
}

// attempt evaluates all stages for a step of size h, leaving the new
// solution in a.sol, and returns the norm of the error estimate.
func (a *Adaptive) attempt(sys dynamo.System, h, t float64, u *dynamo.History, k int) (float64, error) {
	tb := a.tableau
	x := u.Column(k)
	s := a.stage.state()

	if a.tableau.FSAL && a.fsalValid && t == a.fsalT && floats.Equal(x, a.fsalU) {
		copy(a.k[0], a.fsal)
	} else if err := sys.Evaluate(t, u, k, a.k[0]); err != nil {
		return 0, err
	}

	for st := 1; st < tb.Stages(); st++ {
		copy(s, x)
		for j, aij := range tb.A[st] {
			if aij != 0 {
				floats.AddScaled(s, h*aij, a.k[j])
			}
		}
		if err := a.stage.eval(sys, t+tb.C[st]*h, a.k[st]); err != nil {
			return 0, err
		}
	}

	copy(a.sol, x)
	for i := range a.errv {
		a.errv[i] = 0
	}
	for st := 0; st < tb.Stages(); st++ {
		if tb.B[st] != 0 {
			floats.AddScaled(a.sol, h*tb.B[st], a.k[st])
		}
		if tb.E[st] != 0 {
			floats.AddScaled(a.errv, h*tb.E[st], a.k[st])
		}
	}
	return floats.Norm(a.errv, a.norm), nil
}
