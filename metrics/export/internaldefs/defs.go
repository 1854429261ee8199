package internaldefs

import (
	mongoAuth "github.com/MrEthical07/mongoAuth"
)

// CounterDef names one engine counter for exporters.
type CounterDef struct {
	ID   mongoAuth.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   mongoAuth.MetricID
	Name string
	Help string
}

var CounterDefs = []CounterDef{
	{ID: mongoAuth.MetricLoginSuccess, Name: "mongoauth_login_success_total", Help: "Logins that issued a token."},
	{ID: mongoAuth.MetricLoginWrongPassword, Name: "mongoauth_login_wrong_password_total", Help: "Wrong passwords that left attempts."},
	{ID: mongoAuth.MetricLoginBlocked, Name: "mongoauth_login_blocked_total", Help: "Logins answered with Blocked."},
	{ID: mongoAuth.MetricLoginSendCode, Name: "mongoauth_login_send_code_total", Help: "Correct passwords on inactive accounts that re-issued a code."},
	{ID: mongoAuth.MetricLoginNotFound, Name: "mongoauth_login_not_found_total", Help: "Logins for unknown emails."},
	{ID: mongoAuth.MetricLoginError, Name: "mongoauth_login_error_total", Help: "Logins that failed with an infrastructure fault."},
	{ID: mongoAuth.MetricAuthenticateSuccess, Name: "mongoauth_authenticate_success_total", Help: "Successful re-authentications."},
	{ID: mongoAuth.MetricAuthenticateFailure, Name: "mongoauth_authenticate_failure_total", Help: "Rejected or failed re-authentications."},
	{ID: mongoAuth.MetricRegisterSuccess, Name: "mongoauth_register_success_total", Help: "Created accounts."},
	{ID: mongoAuth.MetricRegisterDuplicate, Name: "mongoauth_register_duplicate_total", Help: "Registrations rejected for an existing email."},
	{ID: mongoAuth.MetricRegisterError, Name: "mongoauth_register_error_total", Help: "Registrations that failed."},
	{ID: mongoAuth.MetricForgotPasswordSuccess, Name: "mongoauth_forgot_password_success_total", Help: "Forgot-password requests that stored a code."},
	{ID: mongoAuth.MetricForgotPasswordUnknownEmail, Name: "mongoauth_forgot_password_unknown_email_total", Help: "Forgot-password requests for unknown emails."},
	{ID: mongoAuth.MetricForgotPasswordError, Name: "mongoauth_forgot_password_error_total", Help: "Forgot-password requests that failed."},
	{ID: mongoAuth.MetricConfirmSuccess, Name: "mongoauth_confirm_success_total", Help: "Confirmed codes."},
	{ID: mongoAuth.MetricConfirmWrongCode, Name: "mongoauth_confirm_wrong_code_total", Help: "Confirmations with a wrong code."},
	{ID: mongoAuth.MetricConfirmError, Name: "mongoauth_confirm_error_total", Help: "Confirmations that failed."},
	{ID: mongoAuth.MetricAccountBlocked, Name: "mongoauth_account_blocked_total", Help: "Accounts blocked after too many wrong passwords."},
	{ID: mongoAuth.MetricAccountActivated, Name: "mongoauth_account_activated_total", Help: "Accounts activated by code confirmation."},
	{ID: mongoAuth.MetricPasswordChanged, Name: "mongoauth_password_changed_total", Help: "Passwords replaced during code confirmation."},
	{ID: mongoAuth.MetricPasswordHashUpgraded, Name: "mongoauth_password_hash_upgraded_total", Help: "Password hashes rewritten with current parameters."},
	{ID: mongoAuth.MetricRateLimitHit, Name: "mongoauth_rate_limit_hit_total", Help: "Requests denied by a request throttle."},
	{ID: mongoAuth.MetricConcurrentUpdate, Name: "mongoauth_concurrent_update_total", Help: "Logins that exhausted compare-and-set retries."},
}

var HistogramDefs = []HistogramDef{
	{ID: mongoAuth.MetricLoginLatency, Name: "mongoauth_login_latency_seconds", Help: "Login latency histogram."},
	{ID: mongoAuth.MetricAuthenticateLatency, Name: "mongoauth_authenticate_latency_seconds", Help: "Re-authentication latency histogram."},
	{ID: mongoAuth.MetricRegisterLatency, Name: "mongoauth_register_latency_seconds", Help: "Registration latency histogram."},
	{ID: mongoAuth.MetricForgotPasswordLatency, Name: "mongoauth_forgot_password_latency_seconds", Help: "Forgot-password latency histogram."},
	{ID: mongoAuth.MetricConfirmLatency, Name: "mongoauth_confirm_latency_seconds", Help: "Code confirmation latency histogram."},
}

// AuditDroppedName is the counter exported for AuditDropped.
const (
	AuditDroppedName = "mongoauth_audit_dropped_total"
	AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."
)

// HistogramUpperBounds are the finite bucket bounds in seconds. The last
// snapshot bucket is +Inf.
var HistogramUpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed-size array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
