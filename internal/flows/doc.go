// Package flows contains the account state machine and the orchestrators for
// every Engine operation.
//
// The Decide* functions are pure: they take an [account.State] snapshot and
// return a decision holding the status and the [account.Patch] to persist.
// The Run* functions perform the reads and writes around a decision through a
// typed dependency struct and return an [Outcome].
//
// # Architecture boundaries
//
// Run* functions coordinate calls to the account store, the password hasher,
// the code generator, the token issuer and request throttles. They do NOT own
// any of these resources; ownership stays with the Engine. Metrics, audit and
// logging are derived by the Engine from the returned Outcome.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import mongoAuth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency structs.
package flows
