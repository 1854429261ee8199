// Package limiters provides the Redis fixed-window request throttles.
//
// # Limiters
//
//   - [RequestLimiter]: per-identifier + per-IP counter for one operation.
//     The engine builds one each for registration ([PrefixRegister]), forgot
//     password ([PrefixForgot]) and code confirmation ([PrefixConfirm]).
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # Architecture boundaries
//
// Each limiter owns its own Redis key namespace and error types. Policy thresholds
// come from Config structs supplied at construction time.
//
// # What this package must NOT do
//
//   - Import mongoAuth or any sibling internal package.
//   - Make policy decisions beyond counting. Flow functions decide consequences.
package limiters
