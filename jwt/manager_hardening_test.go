package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()
	cfg := Config{Secret: testSecret, AccessTTL: 15 * time.Minute}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func signClaims(t *testing.T, method gjwt.SigningMethod, key interface{}, claims AccessClaims) string {
	t.Helper()
	tok, err := gjwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func validClaims(now time.Time) AccessClaims {
	return AccessClaims{
		SessionID: "s1",
		Role:      "USER",
		Type:      TokenTypeAccess,
		RegisteredClaims: gjwt.RegisteredClaims{
			Subject:   "acc-1",
			IssuedAt:  gjwt.NewNumericDate(now),
			ExpiresAt: gjwt.NewNumericDate(now.Add(time.Minute)),
		},
	}
}

func TestIssueAndParseAccess(t *testing.T) {
	m := newTestManager(t, nil)

	token, err := m.IssueAccess("acc-1", "sess-1", "USER")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != "acc-1" || claims.SessionID != "sess-1" || claims.Role != "USER" || claims.Type != TokenTypeAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("exp-iat = %v, want 15m", got)
	}
}

func TestParseAccessDistinctFailures(t *testing.T) {
	m := newTestManager(t, nil)
	now := time.Now()

	expired := validClaims(now.Add(-time.Hour))

	wrongType := validClaims(now)
	wrongType.Type = "refresh"

	noSubject := validClaims(now)
	noSubject.Subject = ""

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"wrong secret", signClaims(t, gjwt.SigningMethodHS256, []byte("ffffffffffffffffffffffffffffffff"), validClaims(now)), ErrInvalidSignature},
		{"wrong algorithm", signClaims(t, gjwt.SigningMethodHS512, testSecret, validClaims(now)), ErrInvalidSignature},
		{"expired", signClaims(t, gjwt.SigningMethodHS256, testSecret, expired), ErrExpired},
		{"wrong type", signClaims(t, gjwt.SigningMethodHS256, testSecret, wrongType), ErrInvalidToken},
		{"missing sub", signClaims(t, gjwt.SigningMethodHS256, testSecret, noSubject), ErrInvalidToken},
		{"garbage", "not.a.jwt", ErrInvalidToken},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := m.ParseAccess(tc.token)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseAccess error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestParseAccessIssuerAudienceAndLeeway(t *testing.T) {
	m := newTestManager(t, func(c *Config) {
		c.Issuer = "gosession"
		c.Audience = "api"
		c.Leeway = 30 * time.Second
	})

	access, err := m.IssueAccess("u", "s1", "USER")
	if err != nil {
		t.Fatalf("issue access: %v", err)
	}
	if _, err := m.ParseAccess(access); err != nil {
		t.Fatalf("expected valid token to parse: %v", err)
	}

	now := time.Now()
	wrongIssuer := validClaims(now)
	wrongIssuer.Issuer = "other"
	wrongIssuer.Audience = gjwt.ClaimStrings{"api"}
	if _, err := m.ParseAccess(signClaims(t, gjwt.SigningMethodHS256, testSecret, wrongIssuer)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong issuer to fail as invalid, got %v", err)
	}

	wrongAudience := validClaims(now)
	wrongAudience.Issuer = "gosession"
	wrongAudience.Audience = gjwt.ClaimStrings{"other-api"}
	if _, err := m.ParseAccess(signClaims(t, gjwt.SigningMethodHS256, testSecret, wrongAudience)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected wrong audience to fail as invalid, got %v", err)
	}

	withinLeeway := validClaims(now.Add(-75 * time.Second))
	withinLeeway.Issuer = "gosession"
	withinLeeway.Audience = gjwt.ClaimStrings{"api"}
	if _, err := m.ParseAccess(signClaims(t, gjwt.SigningMethodHS256, testSecret, withinLeeway)); err != nil {
		t.Fatalf("expected token within leeway to pass: %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"short secret", Config{Secret: []byte("short"), AccessTTL: time.Minute}},
		{"zero ttl", Config{Secret: testSecret}},
		{"negative leeway", Config{Secret: testSecret, AccessTTL: time.Minute, Leeway: -time.Second}},
		{"huge leeway", Config{Secret: testSecret, AccessTTL: time.Minute, Leeway: time.Hour}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg); err == nil {
				t.Fatal("expected config error")
			}
		})
	}
}
