package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	mongoAuth "github.com/MrEthical07/mongoAuth"
	"github.com/MrEthical07/mongoAuth/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

// User is the demo account document.
type User struct {
	ID       bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Email    string        `bson:"email,omitempty" json:"email"`
	Name     string        `bson:"name,omitempty" json:"name,omitempty"`
	IsActive bool          `bson:"isActive" json:"active"`
}

// codeSender delivers confirmation codes out of band.
type codeSender interface {
	SendCode(ctx context.Context, email, code string) error
}

// logSender stands in for a mailer and writes codes to the log.
type logSender struct {
	logger *zap.Logger
}

func (s logSender) SendCode(_ context.Context, email, code string) error {
	s.logger.Info("confirmation code", zap.String("email", email), zap.String("code", code))
	return nil
}

type server struct {
	engine *mongoAuth.Engine[User]
	sender codeSender
	logger *zap.Logger

	metrics           http.Handler
	requestsPerMinute int
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Name        string `json:"name,omitempty"`
	Code        string `json:"code,omitempty"`
	NewPassword string `json:"new_password,omitempty"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
}

type response struct {
	Status       string `json:"status"`
	Token        string `json:"token,omitempty"`
	User         *User  `json:"user,omitempty"`
	LeftAttempts int    `json:"left_attempts,omitempty"`
	Error        string `json:"error,omitempty"`
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(clientIP)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Group(func(r chi.Router) {
		if s.requestsPerMinute > 0 {
			r.Use(httprate.LimitByIP(s.requestsPerMinute, time.Minute))
		}
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/forgot", s.handleForgot)
		r.Post("/confirm", s.handleConfirm)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Guard[User](s.engine))
		r.Get("/me", s.handleMe)
	})

	return r
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	res := s.engine.Login(r.Context(), in.Email, in.Password, in.MaxAttempts)
	s.reply(w, r, in.Email, res)
}

func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	res := s.engine.Register(r.Context(), in.Email, in.Password, &User{Name: in.Name})
	s.reply(w, r, in.Email, res)
}

func (s *server) handleForgot(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	res := s.engine.ForgotPassword(r.Context(), in.Email)
	s.reply(w, r, in.Email, res)
}

func (s *server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if !decode(w, r, &in) {
		return
	}
	res := s.engine.ConfirmCode(r.Context(), in.Email, in.Code, in.NewPassword)
	s.reply(w, r, in.Email, res)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	res, ok := middleware.ResultFromContext[User](r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, response{Status: "unauthorized"})
		return
	}
	writeJSON(w, http.StatusOK, response{Status: res.Status.String(), Token: res.JWT, User: res.User})
}

// reply delivers a SendCode code through the sender and never echoes it.
func (s *server) reply(w http.ResponseWriter, r *http.Request, email string, res mongoAuth.Result[User]) {
	if res.Status == mongoAuth.SendCode {
		if err := s.sender.SendCode(r.Context(), email, res.Code); err != nil {
			s.logger.Error("code delivery failed", zap.Error(err))
			writeJSON(w, http.StatusBadGateway, response{Status: "delivery_failed"})
			return
		}
	}

	out := response{
		Status:       res.Status.String(),
		Token:        res.JWT,
		User:         res.User,
		LeftAttempts: res.LeftAttempts,
	}
	if err := res.Error(); err != nil {
		out.Error = publicError(err)
	}
	writeJSON(w, statusCode(res), out)
}

func statusCode(res mongoAuth.Result[User]) int {
	switch res.Status {
	case mongoAuth.Logined:
		return http.StatusOK
	case mongoAuth.SendCode:
		return http.StatusAccepted
	case mongoAuth.LeftAttempts, mongoAuth.NotFound, mongoAuth.WrongPass:
		return http.StatusUnauthorized
	case mongoAuth.Blocked, mongoAuth.NotActive:
		return http.StatusForbidden
	case mongoAuth.UserExists:
		return http.StatusConflict
	case mongoAuth.WrongEmail:
		return http.StatusNotFound
	case mongoAuth.WrongConfirmCode:
		return http.StatusBadRequest
	}
	switch err := res.Error(); {
	case errors.Is(err, mongoAuth.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, mongoAuth.ErrThrottleUnavailable), errors.Is(err, mongoAuth.ErrConcurrentUpdate):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func publicError(err error) string {
	switch {
	case errors.Is(err, mongoAuth.ErrRateLimited):
		return "too many requests"
	case errors.Is(err, mongoAuth.ErrThrottleUnavailable), errors.Is(err, mongoAuth.ErrConcurrentUpdate):
		return "temporarily unavailable"
	default:
		return "internal error"
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<16)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "bad_request", Error: "invalid json body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// clientIP feeds the request address to the engine throttles. It runs after
// chi's RealIP, which rewrites RemoteAddr from proxy headers.
func clientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		next.ServeHTTP(w, r.WithContext(mongoAuth.WithClientIP(r.Context(), ip)))
	})
}
