// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, payment gateways) via
    constructors. Nothing reads the process environment at call time.
  - Zero Hidden State: No global variables are used to store config.

The sandbox/production selection for the payment providers happens exactly once,
here, and is injected into the gateway clients as an explicit struct.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Lienzo API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// JWTSecret is the shared signing secret for identity tokens.
	JWTSecret string `env:"JWT_SECRET,required"`

	// CouponCode is the single valid membership coupon. One redemption per user.
	CouponCode string `env:"COUPON_CODE" envDefault:"LIENZO30"`

	// Payment provider credentials. PaymentsSandbox selects the sandbox base
	// URLs for both providers; production URLs are used otherwise.
	PayPalClientID   string `env:"PAYPAL_CLIENT_ID"`
	PayPalSecret     string `env:"PAYPAL_SECRET"`
	MercadoPagoToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	PaymentsSandbox  bool   `env:"PAYMENTS_SANDBOX" envDefault:"true"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
