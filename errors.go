package mongoAuth

import "errors"

var (
	// ErrEngineNotReady is reported when an Engine was not produced by Build.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrRateLimited is the cause of an Error result rejected by a request throttle.
	ErrRateLimited = errors.New("request rate limited")
	// ErrThrottleUnavailable is the cause when the throttle backend cannot be reached.
	ErrThrottleUnavailable = errors.New("request throttle backend unavailable")
	// ErrConcurrentUpdate is the cause when a login lost every compare-and-set retry.
	ErrConcurrentUpdate = errors.New("account changed concurrently")
	// ErrInvalidToken is the cause when AuthenticateToken cannot parse its input.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenParserMissing is returned by AuthenticateToken when the configured
	// issuer cannot parse tokens.
	ErrTokenParserMissing = errors.New("token parser not configured")
)
