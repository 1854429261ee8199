package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Email string
}

type fakeAuthenticator struct {
	results map[string]mongoAuth.Result[profile]
	calls   int
}

func (f *fakeAuthenticator) AuthenticateToken(_ context.Context, token string) mongoAuth.Result[profile] {
	f.calls++
	if res, ok := f.results[token]; ok {
		return res
	}
	return mongoAuth.Result[profile]{Status: mongoAuth.Error, Err: mongoAuth.ErrInvalidToken}
}

func newFake() *fakeAuthenticator {
	return &fakeAuthenticator{results: map[string]mongoAuth.Result[profile]{
		"good":    {Status: mongoAuth.Logined, JWT: "fresh", User: &profile{Email: "a@example.com"}},
		"blocked": {Status: mongoAuth.Blocked},
		"gone":    {Status: mongoAuth.NotFound},
		"down":    {Status: mongoAuth.Error, Err: errors.New("mongo down")},
	}}
}

func echoEmail(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := ResultFromContext[profile](r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(res.User.Email))
	})
}

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"unknown account", "Bearer gone", http.StatusUnauthorized},
		{"blocked account", "Bearer blocked", http.StatusForbidden},
		{"backend fault", "Bearer down", http.StatusServiceUnavailable},
		{"valid", "Bearer good", http.StatusOK},
	}

	h := Guard[profile](newFake())(echoEmail(t))
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h, tc.header)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGuardStoresResult(t *testing.T) {
	h := Guard[profile](newFake())(echoEmail(t))

	rec := serve(h, "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", rec.Body.String())
}

func TestGuardSkipsEngineWithoutBearer(t *testing.T) {
	fake := newFake()
	h := Guard[profile](fake)(echoEmail(t))

	serve(h, "")
	assert.Zero(t, fake.calls)
}

func TestGuardNilEngine(t *testing.T) {
	h := Guard[profile](nil)(echoEmail(t))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer good").Code)
}

func TestOptionalPassesThrough(t *testing.T) {
	h := Optional[profile](newFake())(echoEmail(t))

	assert.Equal(t, http.StatusNoContent, serve(h, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, "Bearer blocked").Code)

	rec := serve(h, "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", rec.Body.String())
}
