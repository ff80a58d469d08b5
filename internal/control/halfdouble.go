package control

// HalfDouble halves the step when the error is above tolerance and doubles it otherwise.
type HalfDouble struct{}

func (HalfDouble) Name() string { return "half_double" }

func (HalfDouble) Propose(errNorm, tol, h float64) float64 {
	if errNorm > tol {
		return h * 0.5
	}
	return h * 2
}

func (HalfDouble) Reset() {}
