package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

type LyapunovConfig struct {
	H            float64
	Duration     float64
	Interval     float64 // Renormalization period
	Perturbation float64
}

func DefaultLyapunovConfig() LyapunovConfig {
	return LyapunovConfig{
		H:            0.01,
		Duration:     50,
		Interval:     1,
		Perturbation: 1e-8,
	}
}

// LyapunovExponent estimates the largest Lyapunov exponent of sys by
// following a reference and a perturbed trajectory, renormalizing their
// separation back to Perturbation every Interval:
//
//	λ ≈ Σ ln(d_i/d0) / Duration
//
// Both trajectories use their own stepper from build. A positive value
// indicates chaos.
func LyapunovExponent(ctx context.Context, sys dynamo.System, build func() dynamo.Stepper, u0 dynamo.State, cfg LyapunovConfig) (float64, error) {
	if cfg.Interval <= 0 || cfg.Duration < cfg.Interval || cfg.Perturbation <= 0 {
		return 0, fmt.Errorf("analysis: invalid lyapunov config %+v", cfg)
	}

	ref := sim.New(sys, build())
	pert := sim.New(sys, build())

	x := u0.Clone()
	xp := u0.Clone()
	xp[0] += cfg.Perturbation
	d0 := cfg.Perturbation

	sumLog := 0.0
	t := 0.0
	for t < cfg.Duration-1e-12 {
		run := sim.Config{H: cfg.H, T0: t, TFinal: t + cfg.Interval, FixedOutput: true, ValidateState: true}

		r, err := ref.Run(ctx, x, run)
		if err != nil {
			return 0, err
		}
		rp, err := pert.Run(ctx, xp, run)
		if err != nil {
			return 0, err
		}
		x, xp = r.Final(), rp.Final()

		sep := floats.Distance(x, xp, 2)
		if sep == 0 {
			return math.Inf(-1), nil
		}
		sumLog += math.Log(sep / d0)

		// pull the perturbed state back along the separation direction
		scale := d0 / sep
		for i := range xp {
			xp[i] = x[i] + (xp[i]-x[i])*scale
		}
		t += cfg.Interval
	}

	return sumLog / t, nil
}
