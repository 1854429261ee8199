package mongoAuth

import (
	"io"

	internalaudit "github.com/MrEthical07/mongoAuth/internal/audit"
	"github.com/MrEthical07/mongoAuth/internal/flows"
	internalmetrics "github.com/MrEthical07/mongoAuth/internal/metrics"
	"go.uber.org/zap"
)

// Status tags the outcome of every Engine operation. Status.String returns a
// stable snake_case name suitable for logs and metric labels.
type Status = flows.Status

const (
	// Logined carries a token and the projected user.
	Logined          = flows.Logined
	NotFound         = flows.NotFound
	// WrongPass is declared for hosts that map statuses to messages; no
	// operation returns it. Wrong passwords produce LeftAttempts or Blocked.
	WrongPass        = flows.WrongPass
	// Error carries the cause in Result.Err.
	Error            = flows.Error
	// LeftAttempts carries the remaining attempts before the account is blocked.
	LeftAttempts     = flows.LeftAttempts
	Blocked          = flows.Blocked
	// NotActive is returned only by AuthenticateByID with Login.GuardReauth set.
	NotActive        = flows.NotActive
	// SendCode carries a freshly stored code for out-of-band delivery.
	SendCode         = flows.SendCode
	UserExists       = flows.UserExists
	WrongEmail       = flows.WrongEmail
	WrongConfirmCode = flows.WrongConfirmCode
)

// Result is returned by every Engine operation. Only the fields relevant to
// Status are set.
type Result[U any] struct {
	Status Status
	// User is decoded through the configured projection.
	User         *U
	JWT          string
	Code         string
	LeftAttempts int
	Err          error
}

// Error returns the fault carried by an Error result, or nil.
func (r Result[U]) Error() error {
	return r.Err
}

// OK reports whether the result is Logined.
func (r Result[U]) OK() bool {
	return r.Status == Logined
}

// PasswordHasher hashes new passwords and verifies candidates against stored hashes.
// Verify returns false without error on a mismatch.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// HashUpgrader is implemented by hashers that can tell when a stored hash
// uses outdated parameters. See Config.Login.UpgradeHashOnLogin.
type HashUpgrader interface {
	NeedsUpgrade(encodedHash string) (bool, error)
}

// CodeGenerator produces confirmation codes.
type CodeGenerator interface {
	Generate() (string, error)
}

// TokenIssuer signs a token carrying the account id.
type TokenIssuer interface {
	Issue(id string) (string, error)
}

// TokenParser extracts the account id from a token produced by a TokenIssuer.
type TokenParser interface {
	ParseID(token string) (string, error)
}

// AuditEvent is one audit line: an operation or a transition it caused. Email
// is masked and secrets are never included.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the async dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink writes audit events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink writes audit events through a zap logger.
type ZapSink = internalaudit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

// MetricID identifies a counter or latency histogram.
type MetricID = internalmetrics.MetricID

const (
	MetricLoginSuccess               = internalmetrics.MetricLoginSuccess
	MetricLoginWrongPassword         = internalmetrics.MetricLoginWrongPassword
	MetricLoginBlocked               = internalmetrics.MetricLoginBlocked
	MetricLoginSendCode              = internalmetrics.MetricLoginSendCode
	MetricLoginNotFound              = internalmetrics.MetricLoginNotFound
	MetricLoginError                 = internalmetrics.MetricLoginError
	MetricAuthenticateSuccess        = internalmetrics.MetricAuthenticateSuccess
	MetricAuthenticateFailure        = internalmetrics.MetricAuthenticateFailure
	MetricRegisterSuccess            = internalmetrics.MetricRegisterSuccess
	MetricRegisterDuplicate          = internalmetrics.MetricRegisterDuplicate
	MetricRegisterError              = internalmetrics.MetricRegisterError
	MetricForgotPasswordSuccess      = internalmetrics.MetricForgotPasswordSuccess
	MetricForgotPasswordUnknownEmail = internalmetrics.MetricForgotPasswordUnknownEmail
	MetricForgotPasswordError        = internalmetrics.MetricForgotPasswordError
	MetricConfirmSuccess             = internalmetrics.MetricConfirmSuccess
	MetricConfirmWrongCode           = internalmetrics.MetricConfirmWrongCode
	MetricConfirmError               = internalmetrics.MetricConfirmError
	// MetricAccountBlocked counts persisted block transitions, not blocked login replies.
	MetricAccountBlocked             = internalmetrics.MetricAccountBlocked
	MetricAccountActivated           = internalmetrics.MetricAccountActivated
	MetricPasswordChanged            = internalmetrics.MetricPasswordChanged
	MetricPasswordHashUpgraded       = internalmetrics.MetricPasswordHashUpgraded
	MetricRateLimitHit               = internalmetrics.MetricRateLimitHit
	MetricConcurrentUpdate           = internalmetrics.MetricConcurrentUpdate

	MetricLoginLatency          = internalmetrics.MetricLoginLatency
	MetricAuthenticateLatency   = internalmetrics.MetricAuthenticateLatency
	MetricRegisterLatency       = internalmetrics.MetricRegisterLatency
	MetricForgotPasswordLatency = internalmetrics.MetricForgotPasswordLatency
	MetricConfirmLatency        = internalmetrics.MetricConfirmLatency
)

// Metrics holds atomic counters and optional latency histograms.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
