// Package physics provides sample ODE systems.
//
// Each model implements [dynamo.System]:
//
//   - [Decay]: exponential decay, stiff for large rates
//   - [Oscillator]: harmonic oscillator
//   - [VanDerPol]: relaxation oscillator
//   - [Lorenz], [Rossler], [Chen]: chaotic attractors
//   - [LotkaVolterra]: predator-prey populations
//   - [Pendulum], [Duffing]: nonlinear oscillators
//   - [ThreeBody]: planar gravitational three-body problem
//
// Most models also implement [dynamo.Jacobian] so implicit steppers can skip
// finite differences, [dynamo.Configurable] for runtime parameter
// adjustment, and [dynamo.Hamiltonian] when a quantity is conserved.
// Models with a closed-form solution implement [dynamo.Exact].
//
// # Energy Conservation
//
// For Hamiltonian systems, use [dynamo.Hamiltonian] to monitor energy drift:
//
//	sys := physics.NewOscillator()
//	if h, ok := sys.(dynamo.Hamiltonian); ok {
//	    energy := h.Energy(state)
//	}
package physics
