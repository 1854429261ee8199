//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"

	mongoAuth "github.com/MrEthical07/mongoAuth"
)

func TestForgotPasswordThrottleAgainstMongo(t *testing.T) {
	engine, _, mr := newIntegrationEngine(t, func(cfg *mongoAuth.Config) {
		cfg.Throttle.ForgotPassword.Enabled = true
		cfg.Throttle.ForgotPassword.MaxRequests = 2
	})
	registerActive(t, engine, "thr@example.com", "correct-horse")

	ctx := mongoAuth.WithClientIP(context.Background(), "203.0.113.7")
	for i := 0; i < 2; i++ {
		if res := engine.ForgotPassword(ctx, "thr@example.com"); res.Status != mongoAuth.SendCode {
			t.Fatalf("request %d: expected send_code, got %s (%v)", i, res.Status, res.Error())
		}
	}

	res := engine.ForgotPassword(ctx, "thr@example.com")
	if res.Status != mongoAuth.Error || !errors.Is(res.Error(), mongoAuth.ErrRateLimited) {
		t.Fatalf("expected rate limited, got %s (%v)", res.Status, res.Error())
	}

	mr.FastForward(mongoAuth.DefaultConfig().Throttle.ForgotPassword.Window)
	if res := engine.ForgotPassword(ctx, "thr@example.com"); res.Status != mongoAuth.SendCode {
		t.Fatalf("expected send_code after window, got %s", res.Status)
	}
}
