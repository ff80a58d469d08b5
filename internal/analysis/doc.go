// Package analysis post-processes simulation runs.
//
//   - [ObservedOrder], [Convergence]: empirical order of accuracy of a stepper
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [NewPhasePortrait], [NewPoincareSection]: 2D projections of a run
//
// # Convergence
//
// Halving h should divide the error of an order-p stepper by 2^p:
//
//	study, err := analysis.Convergence(ctx, physics.NewDecay(), build, u0, 1, []float64{0.1, 0.05, 0.025})
//	fmt.Println(study.Order) // ≈ 4 for rk4
package analysis
