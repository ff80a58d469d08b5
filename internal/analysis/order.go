package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
	"gonum.org/v1/gonum/stat"
)

// ConvergencePoint is the outcome of one run of a convergence study.
type ConvergencePoint struct {
	H           float64
	Error       float64
	Evaluations int
}

// ConvergenceStudy holds the runs of one stepper at a sequence of step sizes.
type ConvergenceStudy struct {
	Stepper string
	Points  []ConvergencePoint
	Order   float64
}

// ObservedOrder is the least-squares slope of log(err) against log(h).
func ObservedOrder(hs, errs []float64) (float64, error) {
	if len(hs) != len(errs) {
		return 0, fmt.Errorf("%w: %d step sizes, %d errors", dynamo.ErrDimensionMismatch, len(hs), len(errs))
	}
	if len(hs) < 2 {
		return 0, errors.New("analysis: need at least two runs")
	}

	lh := make([]float64, len(hs))
	le := make([]float64, len(errs))
	for i := range hs {
		if hs[i] <= 0 || errs[i] <= 0 {
			return 0, fmt.Errorf("analysis: cannot take the log of h=%g err=%g", hs[i], errs[i])
		}
		lh[i] = math.Log(hs[i])
		le[i] = math.Log(errs[i])
	}
	_, slope := stat.LinearRegression(lh, le, nil, false)
	return slope, nil
}

// Convergence runs a fresh stepper from build at every h in hs up to tFinal
// and measures the max-norm error of the final state against the closed-form
// solution of sys.
func Convergence(ctx context.Context, sys dynamo.System, build func() dynamo.Stepper, u0 dynamo.State, tFinal float64, hs []float64) (*ConvergenceStudy, error) {
	exact, ok := sys.(dynamo.Exact)
	if !ok {
		return nil, errors.New("analysis: system has no closed-form solution")
	}
	want := exact.Exact(tFinal, u0)

	study := &ConvergenceStudy{}
	hv := make([]float64, 0, len(hs))
	ev := make([]float64, 0, len(hs))
	for _, h := range hs {
		stepper := build()
		study.Stepper = stepper.Name()

		result, err := sim.New(sys, stepper).Run(ctx, u0, sim.Config{H: h, TFinal: tFinal, FixedOutput: true})
		if err != nil {
			return nil, fmt.Errorf("h=%g: %w", h, err)
		}

		errNorm := 0.0
		for i, v := range result.Final() {
			errNorm = math.Max(errNorm, math.Abs(v-want[i]))
		}
		study.Points = append(study.Points, ConvergencePoint{H: h, Error: errNorm, Evaluations: result.Evaluations})
		hv = append(hv, h)
		ev = append(ev, errNorm)
	}

	order, err := ObservedOrder(hv, ev)
	if err != nil {
		return study, err
	}
	study.Order = order
	return study, nil
}
