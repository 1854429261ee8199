// Package internal groups the packages private to mongoAuth.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - config — viper/godotenv loader for the bundled commands
//   - flows — account state machine and orchestrators for every Engine operation
//   - limiters — Redis fixed-window throttles for register, forgot and confirm
//   - logger — zap logger construction for the bundled commands
//   - metrics — lock-free counters and latency histograms
//   - security — configuration posture report
//
// # What this package must NOT do
//
//   - Export types that appear in the public mongoAuth API except through
//     root aliases.
//   - Be imported by any package outside the mongoAuth module.
package internal
