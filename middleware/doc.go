// Package middleware exposes net/http adapters that authenticate bearer tokens
// through mongoAuth.Engine.AuthenticateToken.
//
// # Guards
//
//   - [Guard] rejects requests that do not re-authenticate to Logined.
//   - [Optional] attaches the result when possible and never rejects.
//
// Handlers read the authenticated result with [ResultFromContext].
//
// # What this package must NOT do
//
//   - Parse or create tokens directly (delegates to the Engine).
//   - Make authorization decisions beyond pass/reject on the Result status.
package middleware
