package control

import "math"

// PI is a proportional-integral step-size controller:
//
//	h_new = h·(tol/err)^Kp·(prevErr/err)^Ki
//
// prevErr is the error of the last accepted step.
type PI struct {
	Kp        float64
	Ki        float64
	MaxFactor float64
	prevErr   float64
	first     bool
}

func NewPI(kp, ki float64) *PI {
	return &PI{
		Kp:        kp,
		Ki:        ki,
		MaxFactor: DefaultMaxFactor,
		first:     true,
	}
}

func (p *PI) Name() string { return "pi" }

func (p *PI) Propose(errNorm, tol, h float64) float64 {
	if errNorm <= 0 {
		return h * p.MaxFactor
	}

	factor := math.Pow(tol/errNorm, p.Kp)

	// Rejected steps and the first step fall back to the proportional term.
	if errNorm > tol || p.first {
		if errNorm <= tol {
			p.prevErr = errNorm
			p.first = false
		}
		return h * math.Min(factor, p.MaxFactor)
	}

	factor *= math.Pow(p.prevErr/errNorm, p.Ki)
	p.prevErr = errNorm
	return h * math.Min(factor, p.MaxFactor)
}

// Reset clears the error memory
func (p *PI) Reset() {
	p.prevErr = 0
	p.first = true
}
