package mongoAuth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/mongoAuth/account"
	"github.com/MrEthical07/mongoAuth/codes"
	"github.com/MrEthical07/mongoAuth/jwt"
)

// Config holds every tunable of an Engine. Build validates a copy, so later
// mutation of the value passed to WithConfig has no effect.
type Config struct {
	Fields     account.Fields
	Projection account.Projection
	Login      LoginConfig
	Codes      CodesConfig
	Password   PasswordConfig
	JWT        JWTConfig
	Throttle   ThrottleConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls the login state machine.
type LoginConfig struct {
	// MaxAttempts is used when Login is called with maxAttempts <= 0.
	MaxAttempts int
	// ConditionalUpdates guards failed-attempt writes on the attempt counter
	// that was read, so two concurrent wrong passwords cannot both count once.
	ConditionalUpdates bool
	ConflictRetries    int
	// GuardReauth makes AuthenticateByID refuse blocked and inactive accounts.
	GuardReauth        bool
	UpgradeHashOnLogin bool
}

/*
====================================
CODES CONFIG
====================================
*/

// CodesConfig selects the default code generator.
type CodesConfig struct {
	Strategy string // "numeric" (default), "uuid" or "token"
	Digits   int
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects and tunes the default password hasher.
type PasswordConfig struct {
	Algorithm string // "argon2" (default) or "bcrypt"

	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	BcryptCost int

	MinLength int
	MaxLength int
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the default token issuer.
type JWTConfig struct {
	TTL           time.Duration
	SigningMethod string // "ed25519" or "hs256" (default)
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig holds the optional Redis request throttles. Login is
// limited by the account attempt counter instead.
type ThrottleConfig struct {
	Register       RequestThrottle
	ForgotPassword RequestThrottle
	ConfirmCode    RequestThrottle
}

// RequestThrottle is one fixed-window limit keyed by email and by client IP.
type RequestThrottle struct {
	Enabled      bool
	ByIdentifier bool
	ByIP         bool
	Window       time.Duration
	MaxRequests  int
}

func (t ThrottleConfig) anyEnabled() bool {
	return t.Register.Enabled || t.ForgotPassword.Enabled || t.ConfirmCode.Enabled
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher. BufferSize counts queued
// operations; each expands to its event plus one per transition.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and latency histograms.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. JWT.PrivateKey must still be
// set unless a TokenIssuer is supplied to the builder.
func DefaultConfig() Config {
	fields := account.DefaultFields()
	return Config{
		Fields:     fields,
		Projection: account.DefaultProjection(fields),
		Login: LoginConfig{
			MaxAttempts:        5,
			ConditionalUpdates: true,
			ConflictRetries:    3,
			GuardReauth:        false,
			UpgradeHashOnLogin: true,
		},
		Codes: CodesConfig{
			Strategy: codes.StrategyNumeric,
			Digits:   6,
		},
		Password: PasswordConfig{
			Algorithm:   "argon2",
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			BcryptCost:  12,
			MinLength:   10,
			MaxLength:   1024,
		},
		JWT: JWTConfig{
			TTL:           time.Hour,
			SigningMethod: "hs256",
		},
		Throttle: ThrottleConfig{
			Register:       defaultRequestThrottle(),
			ForgotPassword: defaultRequestThrottle(),
			ConfirmCode:    defaultRequestThrottle(),
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func defaultRequestThrottle() RequestThrottle {
	return RequestThrottle{
		Enabled:      false,
		ByIdentifier: true,
		ByIP:         true,
		Window:       15 * time.Minute,
		MaxRequests:  5,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Projection = cfg.Projection.Clone()
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks the configuration independently of the builder's injected
// strategies. Sections replaced by a custom strategy are still validated, so a
// zero Config is rejected; start from DefaultConfig.
func (c *Config) Validate() error {
	if err := c.Fields.Validate(); err != nil {
		return fmt.Errorf("Fields: %w", err)
	}
	if err := c.Projection.Validate(); err != nil {
		return fmt.Errorf("Projection: %w", err)
	}

	// Login
	if c.Login.MaxAttempts <= 0 {
		return errors.New("Login MaxAttempts must be > 0")
	}
	if c.Login.ConflictRetries < 0 {
		return errors.New("Login ConflictRetries must be >= 0")
	}

	// Codes
	switch c.Codes.Strategy {
	case codes.StrategyNumeric:
		if c.Codes.Digits < codes.MinDigits || c.Codes.Digits > codes.MaxDigits {
			return fmt.Errorf("Codes Digits must be between %d and %d", codes.MinDigits, codes.MaxDigits)
		}
	case codes.StrategyUUID, codes.StrategyToken:
	default:
		return errors.New("unsupported Codes Strategy")
	}

	// Password
	switch c.Password.Algorithm {
	case "argon2":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case "bcrypt":
		if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
			return errors.New("Password BcryptCost must be between 4 and 31")
		}
	default:
		return errors.New("unsupported Password Algorithm")
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("Password MaxLength must be >= MinLength")
	}

	// JWT
	if c.JWT.TTL <= 0 {
		return errors.New("JWT TTL must be > 0")
	}
	switch jwt.SigningMethod(c.JWT.SigningMethod) {
	case jwt.MethodEd25519, jwt.MethodHS256:
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Throttle
	for name, t := range map[string]RequestThrottle{
		"Register":       c.Throttle.Register,
		"ForgotPassword": c.Throttle.ForgotPassword,
		"ConfirmCode":    c.Throttle.ConfirmCode,
	} {
		if !t.Enabled {
			continue
		}
		if !t.ByIdentifier && !t.ByIP {
			return fmt.Errorf("Throttle %s needs ByIdentifier or ByIP", name)
		}
		if t.Window <= 0 {
			return fmt.Errorf("Throttle %s Window must be > 0", name)
		}
		if t.MaxRequests <= 0 {
			return fmt.Errorf("Throttle %s MaxRequests must be > 0", name)
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0")
	}

	return nil
}
