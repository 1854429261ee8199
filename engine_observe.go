package mongoAuth

import (
	"context"
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/mongoAuth/internal/audit"
	"github.com/MrEthical07/mongoAuth/internal/flows"
	"go.uber.org/zap"
)

type operation uint8

const (
	opLogin operation = iota
	opAuthenticate
	opRegister
	opForgotPassword
	opConfirmCode
)

var operationNames = [...]string{
	opLogin:          "login",
	opAuthenticate:   "authenticate",
	opRegister:       "register",
	opForgotPassword: "forgot_password",
	opConfirmCode:    "confirm_code",
}

var operationLatency = [...]MetricID{
	opLogin:          MetricLoginLatency,
	opAuthenticate:   MetricAuthenticateLatency,
	opRegister:       MetricRegisterLatency,
	opForgotPassword: MetricForgotPasswordLatency,
	opConfirmCode:    MetricConfirmLatency,
}

func (op operation) String() string {
	return operationNames[op]
}

var transitionMetrics = map[string]MetricID{
	flows.TransitionBlocked:         MetricAccountBlocked,
	flows.TransitionActivated:       MetricAccountActivated,
	flows.TransitionPasswordChanged: MetricPasswordChanged,
	flows.TransitionHashUpgraded:    MetricPasswordHashUpgraded,
}

// outcomeMetric returns the counter for a finished operation.
func outcomeMetric(op operation, status Status) (MetricID, bool) {
	switch op {
	case opLogin:
		switch status {
		case Logined:
			return MetricLoginSuccess, true
		case LeftAttempts:
			return MetricLoginWrongPassword, true
		case Blocked:
			return MetricLoginBlocked, true
		case SendCode:
			return MetricLoginSendCode, true
		case NotFound:
			return MetricLoginNotFound, true
		case Error:
			return MetricLoginError, true
		}
	case opAuthenticate:
		if status == Logined {
			return MetricAuthenticateSuccess, true
		}
		return MetricAuthenticateFailure, true
	case opRegister:
		switch status {
		case SendCode:
			return MetricRegisterSuccess, true
		case UserExists:
			return MetricRegisterDuplicate, true
		case Error:
			return MetricRegisterError, true
		}
	case opForgotPassword:
		switch status {
		case SendCode:
			return MetricForgotPasswordSuccess, true
		case WrongEmail:
			return MetricForgotPasswordUnknownEmail, true
		case Error:
			return MetricForgotPasswordError, true
		}
	case opConfirmCode:
		switch status {
		case Logined:
			return MetricConfirmSuccess, true
		case WrongConfirmCode:
			return MetricConfirmWrongCode, true
		case Error:
			return MetricConfirmError, true
		}
	}
	return 0, false
}

// finish records metrics, logs and audit events for one finished operation.
func (e *Engine[U]) finish(ctx context.Context, op operation, email string, start time.Time, out flows.Outcome[U]) {
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(operationLatency[op], time.Since(start))
	}

	if id, ok := outcomeMetric(op, out.Status); ok {
		e.metricInc(id)
	}
	for _, t := range out.Transitions {
		if id, ok := transitionMetrics[t]; ok {
			e.metricInc(id)
		}
	}
	switch {
	case errors.Is(out.Err, ErrRateLimited):
		e.metricInc(MetricRateLimitHit)
	case errors.Is(out.Err, ErrConcurrentUpdate):
		e.metricInc(MetricConcurrentUpdate)
	}

	e.log(op, maskEmail(email), out)

	if e.audit == nil {
		return
	}
	e.audit.Record(ctx, internalaudit.Record{
		Operation:    op.String(),
		Status:       out.Status.String(),
		Failed:       out.Status == Error,
		UserID:       out.UserID,
		Email:        email,
		IP:           clientIPFromContext(ctx),
		LeftAttempts: out.LeftAttempts,
		Err:          out.Err,
		Transitions:  out.Transitions,
	})
}

func (e *Engine[U]) log(op operation, maskedEmail string, out flows.Outcome[U]) {
	fields := []zap.Field{
		zap.String("op", op.String()),
		zap.Stringer("status", out.Status),
	}
	if maskedEmail != "" {
		fields = append(fields, zap.String("email", maskedEmail))
	}
	if out.UserID != "" {
		fields = append(fields, zap.String("user_id", out.UserID))
	}

	if out.Status == Error {
		switch {
		case errors.Is(out.Err, ErrRateLimited):
			e.logger.Info("request throttled", fields...)
		default:
			e.logger.Warn("operation failed", append(fields, zap.Error(out.Err))...)
		}
		return
	}

	for _, t := range out.Transitions {
		e.logger.Info("account transition", append(fields, zap.String("transition", t))...)
	}
	e.logger.Debug("operation finished", fields...)
}

func (e *Engine[U]) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func maskEmail(email string) string {
	return internalaudit.MaskEmail(email)
}
