// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

// Lienzo Studio membership API server.
//
// Startup order matters: configuration, logging, schema migrations, backing
// stores, domain wiring, background workers, and finally the listener.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmorales-dev/lienzo/internal/access"
	"github.com/dmorales-dev/lienzo/internal/api"
	"github.com/dmorales-dev/lienzo/internal/auth"
	"github.com/dmorales-dev/lienzo/internal/catalog"
	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/payments"
	"github.com/dmorales-dev/lienzo/internal/platform/config"
	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	"github.com/dmorales-dev/lienzo/internal/platform/migration"
	"github.com/dmorales-dev/lienzo/internal/platform/postgres"
	"github.com/dmorales-dev/lienzo/internal/platform/redis"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
	"github.com/dmorales-dev/lienzo/internal/role"
	"github.com/dmorales-dev/lienzo/internal/subscription"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server_exited_with_error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// ── 1. Configuration ──
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── 2. Structured logging ──
	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("starting_server",
		slog.String("service", constants.AppName),
		slog.String("version", constants.AppVersion),
		slog.String("environment", cfg.Environment),
	)

	// Root context cancelled on SIGINT/SIGTERM; workers hang off it.
	serverContext, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Schema migrations ──
	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
		return err
	}

	// ── 4. Backing stores ──
	pool, err := postgres.NewPool(serverContext, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(serverContext, cfg.RedisURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = redisClient.Close() }()

	// ── 5. Security primitives ──
	tokenService, err := sec.NewTokenService(cfg.JWTSecret, constants.AuthIssuer)
	if err != nil {
		return err
	}

	// ── 6. Repositories ──
	roleRepo := role.NewCachedRepository(role.NewPostgresRepository(pool), redisClient, logger)
	userRepo := member.NewPostgresRepository(pool)
	productRepo := catalog.NewPostgresRepository(pool)
	sessionRepo := auth.NewRedisSessionRepository(redisClient)

	// ── 7. Payment gateways ──
	paymentEnv := payments.NewEnvironment(cfg.PaymentsSandbox)
	var paypal, mercadopago payments.Verifier
	if cfg.PayPalClientID != "" && cfg.PayPalSecret != "" {
		paypal = payments.NewPayPalClient(paymentEnv, cfg.PayPalClientID, cfg.PayPalSecret)
	}
	if cfg.MercadoPagoToken != "" {
		mercadopago = payments.NewMercadoPagoClient(paymentEnv, cfg.MercadoPagoToken)
	}

	// ── 8. Domain services ──
	authService := auth.NewService(userRepo, roleRepo, sessionRepo, tokenService, logger)
	roleService := role.NewService(roleRepo, logger)
	catalogService := catalog.NewService(productRepo, logger)
	activator := subscription.NewActivator(userRepo, roleRepo, paypal, mercadopago, cfg.CouponCode, logger)
	guard := subscription.NewGuard(userRepo, roleRepo, logger)
	resolver := access.NewResolver(roleRepo)

	// ── 9. Background workers ──
	sweeper := subscription.NewSweeper(userRepo, roleRepo, logger)
	go sweeper.Run(serverContext)

	// ── 10. HTTP server ──
	server := api.NewServer(serverContext, api.Dependencies{
		Config:              cfg,
		Logger:              logger,
		Pool:                pool,
		RedisClient:         redisClient,
		TokenService:        tokenService,
		Resolver:            resolver,
		Guard:               guard,
		AuthHandler:         auth.NewHandler(authService, cfg.IsProduction()),
		SubscriptionHandler: subscription.NewHandler(activator, userRepo, cfg.CouponCode),
		RoleHandler:         role.NewHandler(roleService),
		CatalogHandler:      catalog.NewHandler(catalogService),
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// ── 11. Graceful shutdown ──
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-serverContext.Done():
		logger.Info("shutdown_signal_received")

		shutdownContext, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownContext); err != nil {
			logger.Error("graceful_shutdown_failed", slog.Any("error", err))
			return server.Close()
		}
	}

	logger.Info("server_stopped")
	return nil
}
