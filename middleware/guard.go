package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	mongoAuth "github.com/MrEthical07/mongoAuth"
)

// TokenAuthenticator is the part of mongoAuth.Engine the guards need.
type TokenAuthenticator[U any] interface {
	AuthenticateToken(ctx context.Context, token string) mongoAuth.Result[U]
}

type resultContextKey struct{}

// ResultFromContext returns the Logined result stored by Guard or Optional.
func ResultFromContext[U any](ctx context.Context) (*mongoAuth.Result[U], bool) {
	res, ok := ctx.Value(resultContextKey{}).(*mongoAuth.Result[U])
	return res, ok
}

// Guard rejects requests without a bearer token that re-authenticates to
// Logined. Blocked and NotActive accounts get 403, backend faults 503.
func Guard[U any](engine TokenAuthenticator[U]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res := engine.AuthenticateToken(r.Context(), token)
			if code := rejectCode(res); code != 0 {
				http.Error(w, http.StatusText(code), code)
				return
			}

			ctx := context.WithValue(r.Context(), resultContextKey{}, &res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Optional attaches the result when a valid bearer token is present and
// passes every request through.
func Optional[U any](engine TokenAuthenticator[U]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok || engine == nil {
				next.ServeHTTP(w, r)
				return
			}

			res := engine.AuthenticateToken(r.Context(), token)
			if res.Status != mongoAuth.Logined {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), resultContextKey{}, &res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectCode[U any](res mongoAuth.Result[U]) int {
	switch res.Status {
	case mongoAuth.Logined:
		return 0
	case mongoAuth.Blocked, mongoAuth.NotActive:
		return http.StatusForbidden
	case mongoAuth.Error:
		if errors.Is(res.Err, mongoAuth.ErrInvalidToken) {
			return http.StatusUnauthorized
		}
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnauthorized
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
