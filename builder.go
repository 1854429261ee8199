package mongoAuth

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/mongoAuth/account"
	"github.com/MrEthical07/mongoAuth/codes"
	internalaudit "github.com/MrEthical07/mongoAuth/internal/audit"
	"github.com/MrEthical07/mongoAuth/internal/limiters"
	"github.com/MrEthical07/mongoAuth/jwt"
	"github.com/MrEthical07/mongoAuth/password"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"
)

// Builder assembles an Engine for the host document type U. A Builder is
// single-use: the second Build call fails.
type Builder[U any] struct {
	config Config

	collection *mongo.Collection
	store      account.Store[U]
	redis      redis.UniversalClient

	hasher PasswordHasher
	codes  CodeGenerator
	tokens TokenIssuer

	logger    *zap.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New[U any]() *Builder[U] {
	return &Builder[U]{
		config: DefaultConfig(),
	}
}

func (b *Builder[U]) WithConfig(cfg Config) *Builder[U] {
	b.config = cloneConfig(cfg)
	return b
}

// WithCollection stores accounts in coll through account.MongoStore. Call
// MongoStore.EnsureIndexes separately to get a unique email index.
func (b *Builder[U]) WithCollection(coll *mongo.Collection) *Builder[U] {
	b.collection = coll
	return b
}

// WithStore overrides WithCollection with any account.Store implementation.
func (b *Builder[U]) WithStore(store account.Store[U]) *Builder[U] {
	b.store = store
	return b
}

// WithRedis supplies the client for request throttles. It is required only when
// a throttle is enabled.
func (b *Builder[U]) WithRedis(client redis.UniversalClient) *Builder[U] {
	b.redis = client
	return b
}

func (b *Builder[U]) WithPasswordHasher(h PasswordHasher) *Builder[U] {
	b.hasher = h
	return b
}

func (b *Builder[U]) WithCodeGenerator(g CodeGenerator) *Builder[U] {
	b.codes = g
	return b
}

// WithTokenIssuer replaces the built-in jwt.Manager. AuthenticateToken works
// only when the issuer also implements TokenParser.
func (b *Builder[U]) WithTokenIssuer(t TokenIssuer) *Builder[U] {
	b.tokens = t
	return b
}

func (b *Builder[U]) WithLogger(logger *zap.Logger) *Builder[U] {
	b.logger = logger
	return b
}

func (b *Builder[U]) WithAuditSink(sink AuditSink) *Builder[U] {
	b.auditSink = sink
	return b
}

func (b *Builder[U]) WithMetricsEnabled(enabled bool) *Builder[U] {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder[U]) WithLatencyHistograms(enabled bool) *Builder[U] {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and constructs the Engine.
func (b *Builder[U]) Build() (*Engine[U], error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Throttle.anyEnabled() && b.redis == nil {
		return nil, errors.New("Throttle requires redis client")
	}

	// -------- STORE --------
	store := b.store
	if store == nil {
		if b.collection == nil {
			return nil, errors.New("collection or store required")
		}
		ms, err := account.NewMongoStore[U](b.collection, cfg.Fields, cfg.Projection)
		if err != nil {
			return nil, err
		}
		store = ms
	}

	engine := &Engine[U]{
		config: cloneConfig(cfg),
		store:  store,
	}

	engine.logger = b.logger
	if engine.logger == nil {
		engine.logger = zap.NewNop()
	}
	engine.logger = engine.logger.Named("mongoauth")

	// -------- STRATEGIES --------
	hasher, err := b.buildHasher(cfg.Password)
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher
	if up, ok := hasher.(HashUpgrader); ok {
		engine.upgrader = up
	}

	engine.codes = b.codes
	if engine.codes == nil {
		gen, err := codes.New(cfg.Codes.Strategy, cfg.Codes.Digits)
		if err != nil {
			return nil, err
		}
		engine.codes = gen
	}

	engine.tokens = b.tokens
	if engine.tokens == nil {
		jm, err := jwt.NewManager(jwt.Config{
			TTL:           cfg.JWT.TTL,
			SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
			PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
			PublicKey:     cloneBytes(cfg.JWT.PublicKey),
			Issuer:        cfg.JWT.Issuer,
			Audience:      cfg.JWT.Audience,
		})
		if err != nil {
			return nil, fmt.Errorf("JWT: %w", err)
		}
		engine.tokens = jm
	}
	if parser, ok := engine.tokens.(TokenParser); ok {
		engine.parser = parser
	}

	// -------- THROTTLES --------
	engine.registerLimiter = newRequestLimiter(b.redis, limiters.PrefixRegister, cfg.Throttle.Register)
	engine.forgotLimiter = newRequestLimiter(b.redis, limiters.PrefixForgot, cfg.Throttle.ForgotPassword)
	engine.confirmLimiter = newRequestLimiter(b.redis, limiters.PrefixConfirm, cfg.Throttle.ConfirmCode)

	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}

func (b *Builder[U]) buildHasher(cfg PasswordConfig) (PasswordHasher, error) {
	if b.hasher != nil {
		return b.hasher, nil
	}
	if cfg.Algorithm == "bcrypt" {
		return password.NewBcrypt(password.BcryptConfig{
			Cost:             cfg.BcryptCost,
			MinPasswordBytes: cfg.MinLength,
			MaxPasswordBytes: cfg.MaxLength,
		})
	}
	return password.NewArgon2(password.Config{
		Memory:           cfg.Memory,
		Time:             cfg.Time,
		Parallelism:      cfg.Parallelism,
		SaltLength:       cfg.SaltLength,
		KeyLength:        cfg.KeyLength,
		MinPasswordBytes: cfg.MinLength,
		MaxPasswordBytes: cfg.MaxLength,
	})
}

func newRequestLimiter(client redis.UniversalClient, prefix string, t RequestThrottle) *limiters.RequestLimiter {
	if !t.Enabled {
		return nil
	}
	return limiters.NewRequestLimiter(client, prefix, limiters.RequestConfig{
		EnableIdentifierThrottle: t.ByIdentifier,
		EnableIPThrottle:         t.ByIP,
		Window:                   t.Window,
		MaxRequests:              t.MaxRequests,
	})
}
