package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
)

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
	maxBodyBytes  = 1 << 16
)

type server struct {
	engine        *goSession.Engine
	logger        *slog.Logger
	secureCookies bool
}

func newServer(engine *goSession.Engine, logger *slog.Logger, secureCookies bool) http.Handler {
	s := &server{engine: engine, logger: logger, secureCookies: secureCookies}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signup", s.signup)
	mux.HandleFunc("POST /auth/signin", s.signin)
	mux.HandleFunc("POST /auth/otp/confirm", s.confirmOTP)
	mux.HandleFunc("POST /auth/otp/resend", s.resendOTP)
	mux.HandleFunc("POST /auth/refresh", s.refresh)
	mux.HandleFunc("POST /auth/signout", s.signout)
	mux.Handle("GET /auth/me", middleware.Guard(engine, middleware.WithCookie(accessCookie))(http.HandlerFunc(s.me)))
	mux.Handle("GET /metrics", prometheus.New(engine).Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return withRequestLog(logger, mux)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

func (s *server) signup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	id, err := s.engine.BeginSignup(withRequestContext(r), goSession.SignupRequest{
		Email:    body.Email,
		Username: body.Username,
		Password: body.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"verification_id": id})
}

func (s *server) signin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}

	id, err := s.engine.BeginSignin(withRequestContext(r), goSession.SigninRequest{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"verification_id": id})
}

func (s *server) confirmOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VerificationID string `json:"verification_id"`
		OTP            string `json:"otp"`
	}
	if !decode(w, r, &body) {
		return
	}

	pair, err := s.engine.ConfirmOTP(withRequestContext(r), body.VerificationID, body.OTP)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeTokens(w, pair)
}

func (s *server) resendOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VerificationID string `json:"verification_id"`
	}
	if !decode(w, r, &body) {
		return
	}

	if err := s.engine.ResendOTP(withRequestContext(r), body.VerificationID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) refresh(w http.ResponseWriter, r *http.Request) {
	pair, err := s.engine.RotateRefreshToken(withRequestContext(r), refreshToken(r))
	if err != nil {
		if goSession.KindOf(err) == goSession.KindDomain {
			s.clearCookies(w)
		}
		s.writeError(w, r, err)
		return
	}
	s.writeTokens(w, pair)
}

// signout revokes the presented refresh token, or all of the account's tokens
// with ?all=true, and always clears the cookies.
func (s *server) signout(w http.ResponseWriter, r *http.Request) {
	scope := goSession.SignoutOne
	if r.URL.Query().Get("all") == "true" {
		scope = goSession.SignoutAll
	}

	err := s.engine.Signout(withRequestContext(r), refreshToken(r), scope)
	s.clearCookies(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": claims.AccountID,
		"session_id": claims.SessionID,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func withRequestContext(r *http.Request) context.Context {
	ctx := r.Context()

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ctx = goSession.WithClientIP(ctx, host)
	ctx = goSession.WithUserAgent(ctx, r.UserAgent())
	return ctx
}

// refreshToken reads the refresh cookie, falling back to a JSON body for
// clients that do not keep cookies.
func refreshToken(r *http.Request) string {
	if c, err := r.Cookie(refreshCookie); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if r.Body == nil {
		return ""
	}
	_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
	return body.RefreshToken
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "BAD_REQUEST"})
		return false
	}
	return true
}

func (s *server) writeTokens(w http.ResponseWriter, pair *goSession.TokenPair) {
	s.setCookie(w, accessCookie, pair.AccessToken, "/", 0)
	s.setCookie(w, refreshCookie, pair.RefreshToken, "/auth", time.Until(pair.RefreshExpiresAt))
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"account_id":    pair.AccountID,
		"session_id":    pair.SessionID,
	})
}

func (s *server) clearCookies(w http.ResponseWriter) {
	s.setCookie(w, accessCookie, "", "/", -1)
	s.setCookie(w, refreshCookie, "", "/auth", -1)
}

// setCookie writes an HttpOnly cookie. A zero ttl makes a session cookie and a
// negative ttl deletes it.
func (s *server) setCookie(w http.ResponseWriter, name, value, path string, ttl time.Duration) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case ttl < 0:
		c.MaxAge = -1
	case ttl > 0:
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(w, c)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := goSession.ErrorCode(err)
	if status >= http.StatusInternalServerError {
		requestLogger(r.Context(), s.logger).ErrorContext(r.Context(), "request failed", "code", code, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": code})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, goSession.ErrTooManyAttempts), errors.Is(err, goSession.ErrTooManyRequests):
		return http.StatusTooManyRequests
	case errors.Is(err, goSession.ErrEmailAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, goSession.ErrEmailDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, goSession.ErrStoreUnavailable), errors.Is(err, goSession.ErrDeliveryFailed):
		return http.StatusServiceUnavailable
	}

	switch goSession.KindOf(err) {
	case goSession.KindClient:
		return http.StatusBadRequest
	case goSession.KindDomain:
		return http.StatusUnprocessableEntity
	case goSession.KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
