// Package dynamo provides the shared primitives of the reachability solver.
//
// The package defines the types every other package speaks:
//
//   - [State]: a point in the system's state space
//   - [Control], [Disturbance]: inputs chosen by the two players
//   - [Mode]: whether a player minimizes or maximizes the Hamiltonian
//   - [System]: the dynamics contract each system under study implements
//   - [WaveSpeeder]: optional per-axis wave speed bound used for dissipation
//
// # Game semantics
//
// The Hamiltonian is H(x, p) = p · f(x, u, d). The control picks u to
// extremize H according to its [Mode]; the disturbance always takes the
// opposite mode, so a model constructed with equal modes is rejected with
// [ErrInvalidMode].
//
// # Thread Safety
//
// System implementations are immutable after construction and are queried
// concurrently from many workers during a solve.
package dynamo
