// Package mongoAuth provides login, registration, email-code confirmation and
// forgot-password flows over a host-owned MongoDB user collection.
//
// The host keeps its own document type U. The engine reads and writes only the
// authentication fields named in [account.Fields] and returns U decoded through
// the configured [account.Projection], so secrets never leave the store.
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// mongoAuth is the public surface. It exposes [Engine], [Builder], [Config],
// [Result] and the strategy interfaces ([PasswordHasher], [CodeGenerator],
// [TokenIssuer]). The account state machine lives in internal/flows, request
// throttles in internal/limiters, and neither imports this package.
//
// # Outcomes, not errors
//
// Every operation returns a [Result]. Domain outcomes such as [Blocked] or
// [WrongConfirmCode] are statuses; only infrastructure faults produce
// [Error] with the cause in Result.Err.
//
// # What this package must NOT do
//
//   - Send mail. A generated code is returned to the caller for delivery.
//   - Own a network listener. See cmd/mongoauth-demo for host wiring.
//   - Create or migrate schema beyond the optional unique email index.
package mongoAuth
