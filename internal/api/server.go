// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package api assembles the HTTP server from the domain handlers.

The middleware chain is ordered deliberately:

 1. RequestID, StructuredLogger — every request is traceable.
 2. Timeout, RateLimit, Metrics — protection and observability.
 3. PanicRecovery — nothing below may crash the process.
 4. Authenticate, CORS — identity extraction and browser policy.
 5. Route groups add Guard / RequireAuth / Authorize as needed.
*/
package api

import (
	stdctx "context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dmorales-dev/lienzo/internal/access"
	"github.com/dmorales-dev/lienzo/internal/auth"
	"github.com/dmorales-dev/lienzo/internal/catalog"
	"github.com/dmorales-dev/lienzo/internal/platform/config"
	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	"github.com/dmorales-dev/lienzo/internal/platform/middleware"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
	"github.com/dmorales-dev/lienzo/internal/role"
	"github.com/dmorales-dev/lienzo/internal/subscription"
)

// Dependencies carries everything the router needs, wired in main.
type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	Pool        *pgxpool.Pool
	RedisClient *redis.Client

	TokenService *sec.TokenService
	Resolver     *access.Resolver
	Guard        *subscription.Guard

	AuthHandler         *auth.Handler
	SubscriptionHandler *subscription.Handler
	RoleHandler         *role.Handler
	CatalogHandler      *catalog.Handler
}

// NewRouter builds the fully wired chi router.
func NewRouter(serverContext stdctx.Context, deps Dependencies) chi.Router {
	router := chi.NewRouter()

	// ── Global middleware chain ──
	router.Use(middleware.RequestID())
	router.Use(middleware.StructuredLogger(deps.Logger))
	router.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	router.Use(middleware.RateLimit(serverContext))
	router.Use(middleware.Metrics())
	router.Use(middleware.PanicRecovery(deps.Logger))
	router.Use(middleware.Authenticate(deps.TokenService))
	router.Use(middleware.CORS(deps.Config))

	// ── Infrastructure endpoints ──
	router.Get("/health", handleHealth)
	router.Get("/ready", handleReady(deps.Pool, deps.RedisClient))
	router.Handle("/metrics", promhttp.Handler())

	// ── Application endpoints ──
	router.Route(constants.APIPrefix, func(api chi.Router) {

		// Public: registration and token lifecycle.
		api.Route("/auth", deps.AuthHandler.RegisterRoutes)

		// Subscriptions: provider callbacks are public (identity rides in
		// the state parameter); coupon and status require a token. The
		// guard runs here so an expired member sees their downgrade
		// reflected in /me immediately.
		api.Route("/subscriptions", func(subs chi.Router) {
			subs.Use(deps.Guard.Middleware)
			deps.SubscriptionHandler.RegisterRoutes(subs)

			subs.Route("/admin", func(admin chi.Router) {
				admin.Use(middleware.RequireRoles(role.Admin, role.SuperAdmin))
				deps.SubscriptionHandler.RegisterAdminRoutes(admin)
			})
		})

		// Catalog: guarded and permission-checked.
		api.Route("/products", func(products chi.Router) {
			products.Use(deps.Guard.Middleware)
			products.Use(middleware.Authorize(deps.Resolver))
			deps.CatalogHandler.RegisterRoutes(products)
		})

		// Role administration: staff only, still permission-checked so a
		// per-user override can narrow an admin's reach.
		api.Route("/roles", func(roles chi.Router) {
			roles.Use(middleware.RequireRoles(role.Admin, role.SuperAdmin))
			roles.Use(middleware.Authorize(deps.Resolver))
			deps.RoleHandler.RegisterRoutes(roles)
		})
	})

	return router
}

// NewServer wraps the router in an http.Server with the standard timeouts.
func NewServer(serverContext stdctx.Context, deps Dependencies) *http.Server {
	return &http.Server{
		Addr:              ":" + deps.Config.ServerPort,
		Handler:           NewRouter(serverContext, deps),
		ReadTimeout:       constants.DefaultReadTimeout,
		ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		WriteTimeout:      constants.DefaultWriteTimeout,
		IdleTimeout:       constants.DefaultIdleTimeout,
	}
}
