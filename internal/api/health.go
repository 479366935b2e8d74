// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package api

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"

	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	"github.com/dmorales-dev/lienzo/internal/platform/postgres"
	"github.com/dmorales-dev/lienzo/internal/platform/redis"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
)

// handleHealth reports process liveness. It never touches dependencies so
// a database outage does not get the pod restarted.
func handleHealth(writer http.ResponseWriter, _ *http.Request) {
	respond.JSON(writer, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": constants.AppName,
		"version": constants.AppVersion,
	})
}

// handleReady reports readiness: both backing stores must answer.
func handleReady(pool *pgxpool.Pool, client *redisclient.Client) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		checks := map[string]string{
			"postgres": "ok",
			"redis":    "ok",
		}
		healthy := true

		if err := postgres.Ping(request.Context(), pool); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		}
		if err := redis.Ping(request.Context(), client); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(writer, status, checks)
	}
}
