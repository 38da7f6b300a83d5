package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	goSession "github.com/MrEthical07/goSession"
)

// Validator verifies access tokens. [*goSession.Engine] implements it.
type Validator interface {
	ValidateAccessToken(ctx context.Context, token string) (*goSession.AccessClaims, error)
}

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by [Guard].
func ClaimsFromContext(ctx context.Context) (*goSession.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*goSession.AccessClaims)
	return claims, ok
}

// Option configures a guard.
type Option func(*options)

type options struct {
	cookie string
}

// WithCookie makes the guard fall back to the named cookie when the request
// has no Authorization header.
func WithCookie(name string) Option {
	return func(o *options) {
		o.cookie = name
	}
}

// Guard rejects requests without a valid access token with 401.
func Guard(v Validator, opts ...Option) func(http.Handler) http.Handler {
	return guard(v, nil, opts)
}

// RequireRole behaves like [Guard] and answers 403 when the token role is
// not one of roles.
func RequireRole(v Validator, roles []string, opts ...Option) func(http.Handler) http.Handler {
	return guard(v, roles, opts)
}

func guard(v Validator, roles []string, opts []Option) func(http.Handler) http.Handler {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := requestToken(r, o.cookie)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.ValidateAccessToken(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestToken(r *http.Request, cookie string) (string, bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		return bearerToken(header)
	}
	if cookie == "" {
		return "", false
	}
	c, err := r.Cookie(cookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
