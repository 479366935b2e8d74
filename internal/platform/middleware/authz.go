// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package middleware

import (
	stdctx "context"
	"net/http"
	"strings"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/ctxutil"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
)

// # Identity Extraction

// TokenVerifier validates a raw bearer token and returns its claims.
// Implemented by [sec.TokenService].
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.AuthClaims, error)
}

// Authenticate extracts the bearer token from the Authorization header and,
// when present and valid, attaches the claims to the request context.
//
// A missing or invalid token is NOT an error at this stage: public routes
// must remain reachable. Handlers that require identity use [RequireAuth].
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// 1. Look for the Authorization header
			authHeader := request.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// 2. The only accepted scheme is Bearer
			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found {
				next.ServeHTTP(writer, request)
				return
			}

			// 3. Verify signature and expiry; invalid tokens are treated as anonymous
			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// # Access Enforcement

// RequireAuth rejects anonymous requests with 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRoles allows the request through only when the caller holds at least
// one of the named roles. Anonymous callers receive 401, authenticated callers
// without a matching role receive 403.
func RequireRoles(roleNames ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		allowed[name] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			for _, role := range claims.Roles {
				if _, ok := allowed[role]; ok {
					next.ServeHTTP(writer, request)
					return
				}
			}

			respond.Error(writer, request, apperr.Forbidden("Insufficient role"))
		})
	}
}

// AccessDecider answers whether a caller may perform the request.
// Implemented by the access resolver, which derives the required permission
// from the HTTP method and path.
type AccessDecider interface {
	Decide(context stdctx.Context, claims *sec.AuthClaims, method, path string) error
}

// Authorize enforces module/scope permissions for every authenticated request.
//
// # Behavior
//   - Anonymous requests are rejected with 401.
//   - The required permission is computed by the decider from method + path.
//   - A denial surfaces as 403 with the missing permission in the message.
func Authorize(decider AccessDecider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := ctxutil.GetAuthUser(request.Context())
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if err := decider.Decide(request.Context(), claims, request.Method, request.URL.Path); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
