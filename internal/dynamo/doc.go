// Package dynamo provides the core contracts of the integration engine.
//
// The package defines the types every other package agrees on:
//
//   - [State]: plain vector of unknowns or derivatives
//   - [History]: the state buffer, current values plus older time levels
//   - [System]: interface for ODE systems (du/dt = f(t, u))
//   - [Stepper]: time stepper advancing a [History] by one step
//   - [AdaptiveStepper]: stepper that chooses its own step size
//   - [Counting]: call-counting decorator for a [System]
//
// # Example
//
//	sys := dynamo.Func{N: 1, F: func(t float64, u, dudt []float64) { dudt[0] = -u[0] }}
//	u := dynamo.NewHistory(1, 1)
//	u.Set(0, 0, 1.0)
//	stepper := integrators.NewRK4()
//	err := stepper.Step(sys, 0.1, 0, u, 0)
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A [History] is mutated
// in place by exactly one stepper and belongs to one run.
package dynamo
