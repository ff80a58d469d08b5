package integrators

import (
	"fmt"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/ivpsim/internal/control"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/jacobian"
	"github.com/san-kum/ivpsim/internal/newton"
)

type options struct {
	logger     log.Logger
	adaptive   AdaptiveConfig
	controller control.Controller
	observer   func(AttemptRecord)
	corrector  CorrectorConfig
	diff       jacobian.Differentiator
	solver     *newton.Solver
}

func defaultOptions() options {
	return options{
		logger:    log.NewNopLogger(),
		adaptive:  DefaultAdaptiveConfig(),
		corrector: DefaultCorrectorConfig(),
	}
}

// Option configures a stepper at construction. Options that do not apply to
// a stepper are ignored by it.
type Option func(*options)

func WithLogger(l log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithAdaptiveConfig(cfg AdaptiveConfig) Option {
	return func(o *options) { o.adaptive = cfg }
}

func WithController(c control.Controller) Option {
	return func(o *options) { o.controller = c }
}

// WithObserver registers fn to receive every adaptive attempt, accepted or not.
func WithObserver(fn func(AttemptRecord)) Option {
	return func(o *options) { o.observer = fn }
}

func WithCorrectorConfig(cfg CorrectorConfig) Option {
	return func(o *options) { o.corrector = cfg }
}

func WithDifferentiator(d jacobian.Differentiator) Option {
	return func(o *options) { o.diff = d }
}

func WithNewton(s *newton.Solver) Option {
	return func(o *options) { o.solver = s }
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkStep validates the arguments every stepper receives.
func checkStep(sys dynamo.System, u *dynamo.History, k, depth int) error {
	if sys == nil || u == nil {
		return fmt.Errorf("%w: nil system or state buffer", dynamo.ErrUnconfiguredStrategy)
	}
	if k < 0 || k >= u.Depth() {
		return fmt.Errorf("%w: column %d outside %d columns", dynamo.ErrInsufficientHistory, k, u.Depth())
	}
	if err := dynamo.CheckHistory(u, k+depth); err != nil {
		return err
	}
	return dynamo.CheckDims(sys, u)
}

// stage is a one-column buffer used to evaluate f at intermediate states.
type stage struct {
	buf *dynamo.History
}

func (s *stage) ensure(n int) {
	if s.buf == nil || s.buf.Len() != n {
		s.buf = dynamo.NewHistory(n, 1)
	}
}

func (s *stage) state() dynamo.State { return s.buf.Column(0) }

func (s *stage) eval(sys dynamo.System, t float64, dudt dynamo.State) error {
	return sys.Evaluate(t, s.buf, 0, dudt)
}
