package security

import "time"

// Warning messages attached to a Report.
const (
	WarnUnthrottledNumericCodes = "numeric codes are confirmable without a throttle"
	WarnShortNumericCodes       = "numeric codes shorter than 6 digits"
	WarnUnguardedAttempts       = "failed attempts are counted without conditional updates"
	WarnUnguardedReauth         = "re-authentication ignores blocked and inactive flags"
	WarnLongTokenTTL            = "token TTL exceeds 24h"
	WarnRegisterUnthrottled     = "registration is not throttled"
	WarnWeakBcryptCost          = "bcrypt cost below 10"
)

type PasswordReport struct {
	Algorithm   string
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	BcryptCost  int
	MinLength   int
	Custom      bool
}

type Report struct {
	SigningAlgorithm    string
	TokenTTL            time.Duration
	CustomTokenIssuer   bool
	Password            PasswordReport
	MaxAttempts         int
	ConditionalUpdates  bool
	GuardReauth         bool
	HashUpgradeOnLogin  bool
	CodeStrategy        string
	CodeDigits          int
	CustomCodeGenerator bool
	RegisterThrottled   bool
	ForgotThrottled     bool
	ConfirmThrottled    bool
	AuditEnabled        bool
	MetricsEnabled      bool
	Warnings            []string
}

type ReportInput struct {
	SigningAlgorithm    string
	TokenTTL            time.Duration
	CustomTokenIssuer   bool
	Password            PasswordReport
	MaxAttempts         int
	ConditionalUpdates  bool
	GuardReauth         bool
	UpgradeHashOnLogin  bool
	CodeStrategy        string
	CodeDigits          int
	CustomCodeGenerator bool
	RegisterThrottle    bool
	ForgotThrottle      bool
	ConfirmThrottle     bool
	AuditEnabled        bool
	MetricsEnabled      bool
}

func BuildReport(input ReportInput) Report {
	r := Report{
		SigningAlgorithm:    input.SigningAlgorithm,
		TokenTTL:            input.TokenTTL,
		CustomTokenIssuer:   input.CustomTokenIssuer,
		Password:            input.Password,
		MaxAttempts:         input.MaxAttempts,
		ConditionalUpdates:  input.ConditionalUpdates,
		GuardReauth:         input.GuardReauth,
		HashUpgradeOnLogin:  input.UpgradeHashOnLogin && !input.Password.Custom,
		CodeStrategy:        input.CodeStrategy,
		CodeDigits:          input.CodeDigits,
		CustomCodeGenerator: input.CustomCodeGenerator,
		RegisterThrottled:   input.RegisterThrottle,
		ForgotThrottled:     input.ForgotThrottle,
		ConfirmThrottled:    input.ConfirmThrottle,
		AuditEnabled:        input.AuditEnabled,
		MetricsEnabled:      input.MetricsEnabled,
	}

	// Digits only describe the built-in numeric generator.
	numeric := input.CodeStrategy == "numeric" && !input.CustomCodeGenerator
	if !numeric {
		r.CodeDigits = 0
	}
	if numeric && !input.ConfirmThrottle {
		r.Warnings = append(r.Warnings, WarnUnthrottledNumericCodes)
	}
	if numeric && input.CodeDigits < 6 {
		r.Warnings = append(r.Warnings, WarnShortNumericCodes)
	}
	if !input.ConditionalUpdates {
		r.Warnings = append(r.Warnings, WarnUnguardedAttempts)
	}
	if !input.GuardReauth {
		r.Warnings = append(r.Warnings, WarnUnguardedReauth)
	}
	if !input.CustomTokenIssuer && input.TokenTTL > 24*time.Hour {
		r.Warnings = append(r.Warnings, WarnLongTokenTTL)
	}
	if !input.RegisterThrottle {
		r.Warnings = append(r.Warnings, WarnRegisterUnthrottled)
	}
	if !input.Password.Custom && input.Password.Algorithm == "bcrypt" && input.Password.BcryptCost < 10 {
		r.Warnings = append(r.Warnings, WarnWeakBcryptCost)
	}
	return r
}
