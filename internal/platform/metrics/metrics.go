// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

// Package metrics provides Prometheus collectors for observability.
//
// Metrics are organized by domain: HTTP traffic, subscription activations,
// and the nightly expiration sweep.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lienzo"

var (
	// HTTP metrics - track request volume and latency.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// Subscription metrics - track each activation path separately so a
	// broken provider callback shows up as a drop in one series only.
	SubscriptionActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subscription",
			Name:      "activations_total",
			Help:      "Total subscription activations by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// Sweep metrics.
	SweeperRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "runs_total",
			Help:      "Total number of completed expiration sweep runs",
		},
	)

	SweeperDowngrades = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "downgrades_total",
			Help:      "Total number of users downgraded to guest by the sweep",
		},
	)

	SweeperFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweeper",
			Name:      "failures_total",
			Help:      "Total number of per-user persistence failures during sweeps",
		},
	)
)
