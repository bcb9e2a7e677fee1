package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/listenupapp/taxonomy-server/internal/auth"
	"github.com/listenupapp/taxonomy-server/internal/logger"
)

// TokenVerifier turns a bearer token into a caller.
type TokenVerifier interface {
	Verify(token string) (*auth.Caller, error)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the caller in context.
// A missing or invalid token continues as the anonymous caller, which can still read public taxonomies.
func authMiddleware(tokens TokenVerifier, fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.Anonymous()

			authHeader := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && tokens != nil {
				verified, err := tokens.Verify(strings.TrimSpace(token))
				if err != nil {
					logger.FromContext(r.Context(), fallback).Debug("Ignoring invalid bearer token", "error", err)
				} else {
					caller = verified
				}
			}

			ctx := auth.WithCaller(r.Context(), caller)
			if !caller.IsAnonymous() {
				ctx = logger.NewContext(ctx, logger.FromContext(ctx, fallback).With("subject", caller.Subject))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerFrom returns the request's caller. It is never nil: handlers must not
// pass the trusted nil caller to the service on behalf of a client.
func callerFrom(ctx context.Context) *auth.Caller {
	if c := auth.CallerFromContext(ctx); c != nil {
		return c
	}
	return auth.Anonymous()
}
