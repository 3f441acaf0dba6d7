// Package physics provides the differential games solved by the reachability
// solver.
//
// Each model implements [dynamo.System] and [dynamo.WaveSpeeder]:
//
//   - [PursuitEvasion]: relative double integrator, acceleration game
//   - [DubinsCapture]: relative Dubins vehicles, turn-rate game
//   - [DubinsCar4D]: Dubins car with speed state and position disturbance
//   - [Plane]: single integrator in one or two dimensions
//   - [Still]: stationary system used for sanity checks
//
// # Conventions
//
// Every model extremizes H(x, p) = p · f(x, u, d). A control with
// [dynamo.Minimize] picks, per component, the bound that makes its
// contribution to H smallest; the disturbance does the opposite. When the
// coefficient of a component is exactly zero the midpoint of its bounds is
// returned.
//
//	pe, err := physics.NewPursuitEvasion(physics.DefaultPursuitEvasionConfig())
//	u := pe.OptimalControl(x, grad, nil)
package physics
