package mongoAuth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/mongoAuth/account"
	internalaudit "github.com/MrEthical07/mongoAuth/internal/audit"
	"github.com/MrEthical07/mongoAuth/internal/flows"
	"github.com/MrEthical07/mongoAuth/internal/limiters"
	"go.uber.org/zap"
)

// Engine runs the authentication operations against an account store. It is
// immutable after Build and safe for concurrent use.
type Engine[U any] struct {
	config Config
	store  account.Store[U]

	hasher   PasswordHasher
	upgrader HashUpgrader
	codes    CodeGenerator
	tokens   TokenIssuer
	parser   TokenParser

	registerLimiter *limiters.RequestLimiter
	forgotLimiter   *limiters.RequestLimiter
	confirmLimiter  *limiters.RequestLimiter

	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *zap.Logger
}

var flowErrors = flows.Errors{
	EngineNotReady:   ErrEngineNotReady,
	ConcurrentUpdate: ErrConcurrentUpdate,
}

// Close flushes pending audit events and stops the dispatcher.
func (e *Engine[U]) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the buffer was full.
func (e *Engine[U]) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters. It is empty when
// metrics are disabled.
func (e *Engine[U]) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return NewMetrics(MetricsConfig{}).Snapshot()
	}
	return e.metrics.Snapshot()
}

// Login checks email and password and applies the attempt, block and
// activation rules. maxAttempts <= 0 uses Config.Login.MaxAttempts.
//
// Results: Logined (JWT, User), LeftAttempts, Blocked, SendCode (Code) for a
// correct password on an inactive account, NotFound or Error.
func (e *Engine[U]) Login(ctx context.Context, email, password string, maxAttempts int) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	start := time.Now()

	if maxAttempts <= 0 {
		maxAttempts = e.config.Login.MaxAttempts
	}

	deps := flows.LoginDeps[U]{
		MaxAttempts:        maxAttempts,
		ConditionalUpdates: e.config.Login.ConditionalUpdates,
		ConflictRetries:    e.config.Login.ConflictRetries,
		UpgradeHashOnLogin: e.config.Login.UpgradeHashOnLogin,
		Store:              e.store,
		VerifyPassword:     e.hasher.Verify,
		HashPassword:       e.hasher.Hash,
		GenerateCode:       e.codes.Generate,
		IssueToken:         e.tokens.Issue,
		Warn: func(msg string, err error) {
			e.logger.Warn(msg, zap.String("email", maskEmail(email)), zap.Error(err))
		},
		Errors: flowErrors,
	}
	if e.upgrader != nil {
		deps.NeedsUpgrade = e.upgrader.NeedsUpgrade
	}

	out := flows.RunLogin(ctx, email, password, deps)
	e.finish(ctx, opLogin, email, start, out)
	return toResult(out)
}

// AuthenticateByID issues a fresh token for the account with id and returns
// its projected view. Block and activation flags are ignored unless
// Config.Login.GuardReauth is set.
func (e *Engine[U]) AuthenticateByID(ctx context.Context, id string) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	start := time.Now()

	out := flows.RunAuthenticateByID(ctx, id, flows.AuthenticateDeps[U]{
		GuardReauth: e.config.Login.GuardReauth,
		Store:       e.store,
		IssueToken:  e.tokens.Issue,
		Errors:      flowErrors,
	})
	e.finish(ctx, opAuthenticate, "", start, out)
	return toResult(out)
}

// AuthenticateToken parses token with the configured TokenParser and calls
// AuthenticateByID with the id it carries. An unparsable token yields
// Error(ErrInvalidToken).
func (e *Engine[U]) AuthenticateToken(ctx context.Context, token string) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	if e.parser == nil {
		return errorResult[U](ErrTokenParserMissing)
	}
	id, err := e.parser.ParseID(token)
	if err != nil {
		e.metricInc(MetricAuthenticateFailure)
		e.logger.Debug("token rejected", zap.Error(err))
		return errorResult[U](fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}
	return e.AuthenticateByID(ctx, id)
}

// Register creates an inactive account for email with a fresh code. extra
// carries host fields merged into the new document; it may be nil.
//
// Results: SendCode (Code), UserExists or Error.
func (e *Engine[U]) Register(ctx context.Context, email, password string, extra *U) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	start := time.Now()

	out := flows.RunRegister(ctx, email, password, extra, flows.RegisterDeps[U]{
		Store:         e.store,
		CheckThrottle: throttleCheck(e.registerLimiter),
		HashPassword:  e.hasher.Hash,
		GenerateCode:  e.codes.Generate,
		Errors:        flowErrors,
	})
	e.finish(ctx, opRegister, email, start, out)
	return toResult(out)
}

// ForgotPassword stores a fresh code on the account. Password and flags are
// left untouched.
//
// Results: SendCode (Code), WrongEmail or Error.
func (e *Engine[U]) ForgotPassword(ctx context.Context, email string) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	start := time.Now()

	out := flows.RunForgotPassword(ctx, email, flows.ForgotDeps[U]{
		Store:         e.store,
		CheckThrottle: throttleCheck(e.forgotLimiter),
		GenerateCode:  e.codes.Generate,
		Errors:        flowErrors,
	})
	e.finish(ctx, opForgotPassword, email, start, out)
	return toResult(out)
}

// ConfirmCode consumes the pending code, activates the account, resets the
// attempt counter and signs in. A non-empty newPassword replaces the password
// in the same write.
//
// Results: Logined (JWT, User), WrongConfirmCode or Error.
func (e *Engine[U]) ConfirmCode(ctx context.Context, email, code, newPassword string) Result[U] {
	if e == nil || e.store == nil {
		return errorResult[U](ErrEngineNotReady)
	}
	start := time.Now()

	out := flows.RunConfirmCode(ctx, email, code, newPassword, flows.ConfirmDeps[U]{
		ConditionalUpdates: e.config.Login.ConditionalUpdates,
		Store:              e.store,
		CheckThrottle:      throttleCheck(e.confirmLimiter),
		HashPassword:       e.hasher.Hash,
		IssueToken:         e.tokens.Issue,
		Errors:             flowErrors,
	})
	if out.Status == flows.Logined && e.confirmLimiter != nil {
		if err := e.confirmLimiter.Reset(ctx, email); err != nil {
			e.logger.Warn("confirm throttle reset failed", zap.String("email", maskEmail(email)), zap.Error(err))
		}
	}
	e.finish(ctx, opConfirmCode, email, start, out)
	return toResult(out)
}

func toResult[U any](out flows.Outcome[U]) Result[U] {
	return Result[U]{
		Status:       out.Status,
		User:         out.User,
		JWT:          out.Token,
		Code:         out.Code,
		LeftAttempts: out.LeftAttempts,
		Err:          out.Err,
	}
}

func errorResult[U any](err error) Result[U] {
	return Result[U]{Status: Error, Err: err}
}

// throttleCheck maps limiter errors onto the package sentinels. A nil limiter
// disables the check.
func throttleCheck(l *limiters.RequestLimiter) func(context.Context, string) error {
	if l == nil {
		return nil
	}
	return func(ctx context.Context, email string) error {
		err := l.Check(ctx, email, clientIPFromContext(ctx))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, limiters.ErrRequestRateLimited):
			return ErrRateLimited
		case errors.Is(err, limiters.ErrRequestRedisUnavailable):
			return fmt.Errorf("%w: %w", ErrThrottleUnavailable, err)
		default:
			return err
		}
	}
}
