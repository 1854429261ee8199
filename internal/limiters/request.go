package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRequestRateLimited      = errors.New("request rate limited")
	ErrRequestRedisUnavailable = errors.New("request limiter redis unavailable")
)

// Key namespaces for the request throttles.
const (
	PrefixRegister = "mar"
	PrefixForgot   = "maf"
	PrefixConfirm  = "mac"
)

type RequestConfig struct {
	EnableIdentifierThrottle bool
	EnableIPThrottle         bool
	Window                   time.Duration
	MaxRequests              int
}

// RequestLimiter is a fixed-window counter over one operation, keyed by
// identifier and optionally by client IP.
type RequestLimiter struct {
	redis  redis.UniversalClient
	prefix string
	config RequestConfig
}

func NewRequestLimiter(redisClient redis.UniversalClient, prefix string, cfg RequestConfig) *RequestLimiter {
	return &RequestLimiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// Check counts one request and fails once either window is exhausted.
func (l *RequestLimiter) Check(ctx context.Context, identifier, ip string) error {
	if l == nil || l.redis == nil {
		return nil
	}
	if l.config.EnableIdentifierThrottle && identifier != "" {
		if err := l.enforceFixedWindow(ctx, l.identifierKey(identifier)); err != nil {
			return err
		}
	}
	if l.config.EnableIPThrottle && ip != "" {
		if err := l.enforceFixedWindow(ctx, l.ipKey(ip)); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the identifier window.
func (l *RequestLimiter) Reset(ctx context.Context, identifier string) error {
	if l == nil || l.redis == nil || identifier == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.identifierKey(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
	}
	return nil
}

func (l *RequestLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRequestRedisUnavailable, err)
		}
	}

	if count > int64(l.config.MaxRequests) {
		return ErrRequestRateLimited
	}

	return nil
}

func (l *RequestLimiter) identifierKey(identifier string) string {
	return l.prefix + ":" + identifier
}

func (l *RequestLimiter) ipKey(ip string) string {
	return l.prefix + "ip:" + ip
}
