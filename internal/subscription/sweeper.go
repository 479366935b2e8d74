// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/platform/metrics"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// sweepInterval is the pause between daily expiration sweeps.
const sweepInterval = 24 * time.Hour

// Sweeper is the nightly batch counterpart of the [Guard]: it downgrades
// expired members who never triggered the lazy path by coming back.
//
// Runs are idempotent. A member downgraded by the guard (or a previous run)
// simply no longer matches the expired query.
type Sweeper struct {
	users  member.UserRepository
	roles  role.Repository
	logger *slog.Logger

	now func() time.Time
}

// NewSweeper creates the expiration sweeper.
func NewSweeper(users member.UserRepository, roles role.Repository, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		users:  users,
		roles:  roles,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one sweep immediately, then one every 24 hours until the
// context is cancelled. Intended to be started as a goroutine from main.
func (sweeper *Sweeper) Run(context stdctx.Context) {
	sweeper.logger.InfoContext(context, "expiration_sweeper_started")

	// First pass right away so a restarted server catches up immediately.
	sweeper.RunOnce(context)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweeper.RunOnce(context)
		case <-context.Done():
			sweeper.logger.Info("expiration_sweeper_stopped")
			return
		}
	}
}

/*
RunOnce performs a single expiration sweep.

# Description
Lists every account still holding the paid role whose subscription has
expired, and downgrades each to guest. A failure on one account is logged
and counted but never aborts the pass; the account is retried on the next
run.

# Returns
  - downgraded: Number of accounts moved back to the free tier.
  - failed: Number of accounts whose downgrade failed this pass.
*/
func (sweeper *Sweeper) RunOnce(context stdctx.Context) (downgraded, failed int) {
	startTime := sweeper.now()

	expired, err := sweeper.users.ListExpired(context, role.User, startTime)
	if err != nil {
		sweeper.logger.ErrorContext(context, "expiration_sweep_query_failed", slog.Any("error", err))
		metrics.SweeperFailures.Inc()
		return 0, 1
	}

	for i := range expired {
		user := &expired[i]

		// Staff are exempt even if they somehow hold the paid role.
		if !shouldDowngrade(user, startTime) {
			continue
		}

		if err := downgradeToGuest(context, sweeper.users, sweeper.roles, user); err != nil {
			failed++
			metrics.SweeperFailures.Inc()
			sweeper.logger.ErrorContext(context, "expiration_sweep_downgrade_failed",
				slog.String("user_id", user.ID),
				slog.String("email", user.Email),
				slog.Any("error", err),
			)
			continue
		}

		downgraded++
		metrics.SweeperDowngrades.Inc()
		sweeper.logger.InfoContext(context, "membership_expired_downgraded",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
			slog.String("trigger", "sweeper"),
		)
	}

	metrics.SweeperRuns.Inc()
	sweeper.logger.InfoContext(context, "expiration_sweep_finished",
		slog.Int("candidates", len(expired)),
		slog.Int("downgraded", downgraded),
		slog.Int("failed", failed),
		slog.Duration("took", time.Since(startTime)),
	)

	return downgraded, failed
}
