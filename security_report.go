package mongoAuth

import (
	"github.com/MrEthical07/mongoAuth/codes"
	"github.com/MrEthical07/mongoAuth/internal/security"
	"github.com/MrEthical07/mongoAuth/jwt"
	"github.com/MrEthical07/mongoAuth/password"
)

type (
	SecurityReport       = security.Report
	PasswordConfigReport = security.PasswordReport
)

// Warnings reported by SecurityReport.
const (
	WarnUnthrottledNumericCodes = security.WarnUnthrottledNumericCodes
	WarnShortNumericCodes       = security.WarnShortNumericCodes
	WarnUnguardedAttempts       = security.WarnUnguardedAttempts
	WarnUnguardedReauth         = security.WarnUnguardedReauth
	WarnLongTokenTTL            = security.WarnLongTokenTTL
	WarnRegisterUnthrottled     = security.WarnRegisterUnthrottled
	WarnWeakBcryptCost          = security.WarnWeakBcryptCost
)

// SecurityReport describes the effective configuration of the engine. Fields
// of a strategy replaced through the builder are flagged Custom.
func (e *Engine[U]) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	var customHasher bool
	switch e.hasher.(type) {
	case *password.Argon2, *password.Bcrypt:
	default:
		customHasher = true
	}
	var customCodes bool
	switch e.codes.(type) {
	case *codes.Numeric, codes.UUID, *codes.UUID, codes.Token, *codes.Token:
	default:
		customCodes = true
	}
	_, builtinTokens := e.tokens.(*jwt.Manager)

	cfg := e.config
	return security.BuildReport(security.ReportInput{
		SigningAlgorithm:  cfg.JWT.SigningMethod,
		TokenTTL:          cfg.JWT.TTL,
		CustomTokenIssuer: !builtinTokens,
		Password: PasswordConfigReport{
			Algorithm:   cfg.Password.Algorithm,
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
			BcryptCost:  cfg.Password.BcryptCost,
			MinLength:   cfg.Password.MinLength,
			Custom:      customHasher,
		},
		MaxAttempts:         cfg.Login.MaxAttempts,
		ConditionalUpdates:  cfg.Login.ConditionalUpdates,
		GuardReauth:         cfg.Login.GuardReauth,
		UpgradeHashOnLogin:  cfg.Login.UpgradeHashOnLogin,
		CodeStrategy:        cfg.Codes.Strategy,
		CodeDigits:          cfg.Codes.Digits,
		CustomCodeGenerator: customCodes,
		RegisterThrottle:    e.registerLimiter != nil,
		ForgotThrottle:      e.forgotLimiter != nil,
		ConfirmThrottle:     e.confirmLimiter != nil,
		AuditEnabled:        e.audit != nil,
		MetricsEnabled:      cfg.Metrics.Enabled,
	})
}
