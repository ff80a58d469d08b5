package control

import "math"

// DefaultMaxFactor bounds growth when the error estimate is zero.
const DefaultMaxFactor = 5.0

type Proportional struct {
	Exponent  float64
	MaxFactor float64
}

func NewProportional(exponent float64) *Proportional {
	return &Proportional{Exponent: exponent, MaxFactor: DefaultMaxFactor}
}

func (p *Proportional) Name() string { return "proportional" }

func (p *Proportional) Propose(errNorm, tol, h float64) float64 {
	if errNorm <= 0 {
		return h * p.MaxFactor
	}
	return h * math.Pow(tol/errNorm, p.Exponent)
}

func (p *Proportional) Reset() {}
