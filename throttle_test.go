package mongoAuth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enableThrottle(t *RequestThrottle, max int) {
	t.Enabled = true
	t.MaxRequests = max
}

func TestRegisterThrottleByIdentifier(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		enableThrottle(&cfg.Throttle.Register, 2)
		cfg.Metrics.Enabled = true
	}, nil)
	ctx := context.Background()

	assert.Equal(t, SendCode, env.engine.Register(ctx, "thr@example.com", testPassword, nil).Status)
	assert.Equal(t, UserExists, env.engine.Register(ctx, "thr@example.com", testPassword, nil).Status)

	res := env.engine.Register(ctx, "thr@example.com", testPassword, nil)
	require.Equal(t, Error, res.Status)
	assert.ErrorIs(t, res.Error(), ErrRateLimited)
	assert.Equal(t, uint64(1), env.engine.MetricsSnapshot().Counters[MetricRateLimitHit])

	// Other identifiers keep their own window.
	assert.Equal(t, SendCode, env.engine.Register(ctx, "other@example.com", testPassword, nil).Status)

	env.redis.FastForward(testConfig().Throttle.Register.Window)
	assert.Equal(t, UserExists, env.engine.Register(ctx, "thr@example.com", testPassword, nil).Status)
}

func TestForgotThrottleByIP(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		enableThrottle(&cfg.Throttle.ForgotPassword, 2)
		cfg.Throttle.ForgotPassword.ByIdentifier = false
	}, nil)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	env.engine.ForgotPassword(ctx, "a@example.com")
	env.engine.ForgotPassword(ctx, "b@example.com")

	res := env.engine.ForgotPassword(ctx, "c@example.com")
	assert.ErrorIs(t, res.Error(), ErrRateLimited)

	other := WithClientIP(context.Background(), "203.0.113.10")
	assert.Equal(t, WrongEmail, env.engine.ForgotPassword(other, "c@example.com").Status)

	// Without an IP the per-IP window does not apply.
	assert.Equal(t, WrongEmail, env.engine.ForgotPassword(context.Background(), "c@example.com").Status)
}

func TestConfirmThrottleResetOnSuccess(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		enableThrottle(&cfg.Throttle.ConfirmCode, 2)
		cfg.Throttle.ConfirmCode.ByIP = false
	}, nil)
	ctx := context.Background()

	reg := env.engine.Register(ctx, "conf@example.com", testPassword, nil)
	require.Equal(t, SendCode, reg.Status)

	assert.Equal(t, WrongConfirmCode, env.engine.ConfirmCode(ctx, "conf@example.com", "000000x", "").Status)
	require.Equal(t, Logined, env.engine.ConfirmCode(ctx, "conf@example.com", reg.Code, "").Status)

	fp := env.engine.ForgotPassword(ctx, "conf@example.com")
	require.Equal(t, SendCode, fp.Status)
	assert.Equal(t, WrongConfirmCode, env.engine.ConfirmCode(ctx, "conf@example.com", "000000x", "").Status)
	assert.Equal(t, Logined, env.engine.ConfirmCode(ctx, "conf@example.com", fp.Code, "").Status)

	assert.Equal(t, WrongConfirmCode, env.engine.ConfirmCode(ctx, "conf@example.com", "000000x", "").Status)
	assert.Equal(t, WrongConfirmCode, env.engine.ConfirmCode(ctx, "conf@example.com", "000000x", "").Status)
	res := env.engine.ConfirmCode(ctx, "conf@example.com", "000000x", "")
	assert.ErrorIs(t, res.Error(), ErrRateLimited)
}

func TestThrottleBackendUnavailable(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) { enableThrottle(&cfg.Throttle.Register, 5) }, nil)
	env.redis.Close()

	res := env.engine.Register(context.Background(), "down@example.com", testPassword, nil)
	require.Equal(t, Error, res.Status)
	assert.ErrorIs(t, res.Error(), ErrThrottleUnavailable)
	assert.NotErrorIs(t, res.Error(), ErrRateLimited)
	assert.Equal(t, 0, env.store.Count())
}

func TestLoginIsNotThrottled(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		enableThrottle(&cfg.Throttle.Register, 1)
		enableThrottle(&cfg.Throttle.ForgotPassword, 1)
		enableThrottle(&cfg.Throttle.ConfirmCode, 1)
	}, nil)
	env.redis.Close()

	res := env.engine.Login(context.Background(), "nobody@example.com", testPassword, 3)
	assert.Equal(t, NotFound, res.Status)
}
