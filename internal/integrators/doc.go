// Package integrators implements the time steppers.
//
// Every stepper advances column k of a [dynamo.History] by one step of size h
// and commits the result by shifting the buffer, so the previous value ends up
// in column k+1 when the buffer is deep enough.
//
//   - [Euler], [RK4]: explicit fixed-step methods
//   - [Adaptive]: embedded Runge-Kutta 4(5) with error control (Fehlberg, Dormand-Prince)
//   - [PredictorCorrector]: Euler predictor with an Adams-Moulton or backward Euler corrector
//   - [Implicit]: backward Euler, trapezoidal (AM2) and BDF2 solved with Newton's method
//
// Steppers keep scratch space between calls and are not safe for concurrent use.
package integrators
