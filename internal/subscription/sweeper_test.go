// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmorales-dev/lienzo/internal/role"
)

func newTestSweeper(users *fakeUserRepository) *Sweeper {
	sweeper := NewSweeper(users, fakeRoleRepository{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sweeper.now = func() time.Time { return frozenNow }
	return sweeper
}

func TestSweeperDowngradesOnlyExpiredMembers(t *testing.T) {
	expiredA := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, -1))
	expiredB := newPaidUser("u2", "bea@lienzo.test", frozenNow.AddDate(0, -2, 0))
	active := newPaidUser("u3", "carla@lienzo.test", frozenNow.AddDate(0, 0, 15))
	users := newFakeUserRepository(expiredA, expiredB, active)
	sweeper := newTestSweeper(users)

	downgraded, failed := sweeper.RunOnce(context.Background())

	assert.Equal(t, 2, downgraded)
	assert.Equal(t, 0, failed)

	for id, wantRoles := range map[string][]string{
		"u1": {role.Guest},
		"u2": {role.Guest},
		"u3": {role.User},
	} {
		u, _ := users.FindByID(context.Background(), id)
		assert.Equal(t, wantRoles, u.RoleNames(), "user %s", id)
	}
}

func TestSweeperSkipsStaff(t *testing.T) {
	staff := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, -1))
	staff.Roles = append(staff.Roles, adminRole)
	users := newFakeUserRepository(staff)
	sweeper := newTestSweeper(users)

	downgraded, failed := sweeper.RunOnce(context.Background())

	assert.Equal(t, 0, downgraded)
	assert.Equal(t, 0, failed)
	u, _ := users.FindByID(context.Background(), "u1")
	assert.Equal(t, []string{role.User, role.Admin}, u.RoleNames())
}

func TestSweeperSurvivesPerUserFailures(t *testing.T) {
	broken := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, -1))
	healthy := newPaidUser("u2", "bea@lienzo.test", frozenNow.AddDate(0, 0, -1))
	users := newFakeUserRepository(broken, healthy)
	users.failReplaceRolesFor["u1"] = true
	sweeper := newTestSweeper(users)

	downgraded, failed := sweeper.RunOnce(context.Background())

	assert.Equal(t, 1, downgraded)
	assert.Equal(t, 1, failed)

	// The healthy account was processed despite the earlier failure.
	u2, _ := users.FindByID(context.Background(), "u2")
	assert.Equal(t, []string{role.Guest}, u2.RoleNames())
}

func TestSweeperIsIdempotent(t *testing.T) {
	expired := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, -1))
	users := newFakeUserRepository(expired)
	sweeper := newTestSweeper(users)

	first, _ := sweeper.RunOnce(context.Background())
	second, _ := sweeper.RunOnce(context.Background())

	assert.Equal(t, 1, first)
	assert.Equal(t, 0, second)
}

func TestSweeperRunStopsOnContextCancel(t *testing.T) {
	users := newFakeUserRepository()
	sweeper := newTestSweeper(users)

	runContext, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(runContext)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
