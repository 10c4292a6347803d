// Package middleware provides HTTP middlewares for bearer authentication,
// request logging and metrics.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/atinyakov/ItemKeeper/internal/common"
	"github.com/atinyakov/ItemKeeper/internal/models"
)

type ctxKey string

const (
	accountKey   ctxKey = "account"
	requestIDKey ctxKey = "request-id"
)

// Resolver turns a raw bearer token into the calling account.
type Resolver interface {
	ResolveRequired(ctx context.Context, raw string) (*models.Account, error)
	ResolveOptional(ctx context.Context, raw string) *models.Account
}

// ErrorWriter renders err as an HTTP response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// RequireAuth rejects requests that do not carry a usable bearer token. On
// success the resolved account is stored in the request context.
func RequireAuth(guard Resolver, writeError ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, r, err)
				return
			}
			account, err := guard.ResolveRequired(r.Context(), raw)
			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// OptionalAuth stores the calling account in the context when the request
// carries a usable bearer token and lets every request through.
func OptionalAuth(guard Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r.Header.Get("Authorization"))
			if err == nil && raw != "" {
				if account := guard.ResolveOptional(r.Context(), raw); account != nil {
					r = r.WithContext(WithAccount(r.Context(), account))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from an Authorization header value. An empty
// header yields an empty token and no error; any other value that is not
// "Bearer <token>" yields common.ErrMalformedToken.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", nil
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", common.ErrMalformedToken
	}
	return parts[1], nil
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext extracts the authenticated account from the request
// context. It returns false for anonymous requests.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(accountKey).(*models.Account)
	return account, ok && account != nil
}
