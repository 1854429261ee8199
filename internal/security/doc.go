// Package security summarizes the security posture of an engine
// configuration.
//
// [BuildReport] is pure: it takes a flattened [ReportInput] and returns a
// [Report] with the derived flags and a list of warnings for settings that
// weaken the login state machine.
//
// # What this package must NOT do
//
//   - Import mongoAuth or any sibling internal package.
//   - Reject a configuration. Validation belongs to Config.Validate.
package security
