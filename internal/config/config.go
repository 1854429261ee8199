// Package config loads the demo host configuration from defaults, an optional
// .env file and MONGOAUTH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MONGOAUTH"

type AppConfig struct {
	App      AppSettings      `mapstructure:"app"`
	Mongo    MongoSettings    `mapstructure:"mongo"`
	Redis    RedisSettings    `mapstructure:"redis"`
	Auth     AuthSettings     `mapstructure:"auth"`
	Throttle ThrottleSettings `mapstructure:"throttle"`
	HTTPRate HTTPRateSettings `mapstructure:"http_rate"`
}

type AppSettings struct {
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MongoSettings selects the account collection. An empty URI runs the demo on
// the in-memory store.
type MongoSettings struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisSettings points at the throttle backend. An empty Addr starts an
// embedded miniredis.
type RedisSettings struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthSettings struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	JWTSecret         string        `mapstructure:"jwt_secret"`
	JWTTTL            time.Duration `mapstructure:"jwt_ttl"`
	JWTIssuer         string        `mapstructure:"jwt_issuer"`
	CodeStrategy      string        `mapstructure:"code_strategy"`
	CodeDigits        int           `mapstructure:"code_digits"`
	PasswordAlgorithm string        `mapstructure:"password_algorithm"`
	GuardReauth       bool          `mapstructure:"guard_reauth"`
	AuditEnabled      bool          `mapstructure:"audit_enabled"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
}

type ThrottleSettings struct {
	Enabled     bool          `mapstructure:"enabled"`
	Window      time.Duration `mapstructure:"window"`
	MaxRequests int           `mapstructure:"max_requests"`
}

// HTTPRateSettings is the per-IP request limit in front of every route.
type HTTPRateSettings struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

var envKeys = []string{
	"app.env",
	"app.host",
	"app.port",
	"mongo.uri",
	"mongo.database",
	"mongo.collection",
	"mongo.connect_timeout",
	"redis.addr",
	"redis.password",
	"redis.db",
	"auth.max_attempts",
	"auth.jwt_secret",
	"auth.jwt_ttl",
	"auth.jwt_issuer",
	"auth.code_strategy",
	"auth.code_digits",
	"auth.password_algorithm",
	"auth.guard_reauth",
	"auth.audit_enabled",
	"auth.metrics_enabled",
	"throttle.enabled",
	"throttle.window",
	"throttle.max_requests",
	"http_rate.requests_per_minute",
}

// Load reads envFiles (missing files are ignored) and then the environment.
// Without arguments it tries ".env".
func Load(envFiles ...string) (*AppConfig, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix(envPrefix)

	setDefaults(v)

	if err := bindEnvs(v, envKeys); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "mongoauth")
	v.SetDefault("mongo.collection", "users")
	v.SetDefault("mongo.connect_timeout", "10s")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.max_attempts", 5)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_ttl", "1h")
	v.SetDefault("auth.jwt_issuer", "mongoauth-demo")
	v.SetDefault("auth.code_strategy", "numeric")
	v.SetDefault("auth.code_digits", 6)
	v.SetDefault("auth.password_algorithm", "argon2")
	v.SetDefault("auth.guard_reauth", false)
	v.SetDefault("auth.audit_enabled", true)
	v.SetDefault("auth.metrics_enabled", true)

	v.SetDefault("throttle.enabled", true)
	v.SetDefault("throttle.window", "15m")
	v.SetDefault("throttle.max_requests", 5)

	v.SetDefault("http_rate.requests_per_minute", 120)
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, envPrefix+"_"+envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

func (c *AppConfig) validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port out of range: %d", c.App.Port)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return errors.New("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Mongo.URI != "" && (c.Mongo.Database == "" || c.Mongo.Collection == "") {
		return errors.New("mongo.database and mongo.collection are required with mongo.uri")
	}
	if c.HTTPRate.RequestsPerMinute < 0 {
		return errors.New("http_rate.requests_per_minute must be >= 0")
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

// Production reports whether app.env is "production".
func (c *AppConfig) Production() bool {
	return c.App.Env == "production"
}

// EngineConfig maps the demo settings onto an engine configuration.
func (c *AppConfig) EngineConfig() mongoAuth.Config {
	cfg := mongoAuth.DefaultConfig()

	cfg.Login.MaxAttempts = c.Auth.MaxAttempts
	cfg.Login.GuardReauth = c.Auth.GuardReauth

	cfg.Codes.Strategy = c.Auth.CodeStrategy
	cfg.Codes.Digits = c.Auth.CodeDigits

	cfg.Password.Algorithm = c.Auth.PasswordAlgorithm

	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte(c.Auth.JWTSecret)
	cfg.JWT.TTL = c.Auth.JWTTTL
	cfg.JWT.Issuer = c.Auth.JWTIssuer

	for _, t := range []*mongoAuth.RequestThrottle{
		&cfg.Throttle.Register,
		&cfg.Throttle.ForgotPassword,
		&cfg.Throttle.ConfirmCode,
	} {
		t.Enabled = c.Throttle.Enabled
		t.Window = c.Throttle.Window
		t.MaxRequests = c.Throttle.MaxRequests
	}

	cfg.Audit.Enabled = c.Auth.AuditEnabled
	cfg.Metrics.Enabled = c.Auth.MetricsEnabled
	cfg.Metrics.EnableLatencyHistograms = c.Auth.MetricsEnabled

	return cfg
}
