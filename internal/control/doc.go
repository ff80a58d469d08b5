// Package control provides step-size controllers for adaptive steppers.
//
// A controller turns the error estimate of a trial step into the next step
// size to try:
//
//   - [Proportional]: h·(tol/err)^exponent, the classic elementary controller
//   - [HalfDouble]: halve on rejection, double otherwise
//   - [PI]: proportional-integral controller with memory of the last error
//
// # Usage
//
//	ctrl := control.NewProportional(0.2)
//	hNext := ctrl.Propose(errNorm, tol, h)
//
// Controllers with memory are cleared with Reset at the start of a run.
package control

import "strings"

// Controller proposes the next step size from the error norm of a step of size h.
type Controller interface {
	Name() string
	Propose(errNorm, tol, h float64) float64
	Reset()
}

// New returns the controller registered under name. The exponent is used by
// the proportional and PI controllers.
func New(name string, exponent float64) (Controller, bool) {
	switch strings.ToLower(name) {
	case "", "proportional":
		return NewProportional(exponent), true
	case "half_double", "halfdouble":
		return HalfDouble{}, true
	case "pi":
		return NewPI(0.7*exponent, 0.4*exponent), true
	}
	return nil, false
}
