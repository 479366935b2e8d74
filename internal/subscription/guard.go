// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	stdctx "context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/platform/ctxutil"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// Guard lazily downgrades expired members on their next authenticated
// request.
//
// # Invariants
//
//   - The request ALWAYS continues to the next handler, even when the
//     downgrade write fails. Expiration handling must never take the API
//     down for the member.
//   - Staff accounts are never touched.
//   - The downgrade swaps the account's paid role reference for the guest
//     role reference; role rows themselves are never modified.
//   - The downgrade is visible to authorization on the SAME request: the
//     guard re-issues the context claims from the persisted role set, so a
//     token minted before the expiry cannot keep paid permissions alive.
type Guard struct {
	users  member.UserRepository
	roles  role.Repository
	logger *slog.Logger

	now func() time.Time
}

// NewGuard creates the expiration guard middleware.
func NewGuard(users member.UserRepository, roles role.Repository, logger *slog.Logger) *Guard {
	return &Guard{
		users:  users,
		roles:  roles,
		logger: logger,
		now:    time.Now,
	}
}

// Middleware returns the http middleware form of the guard.
func (guard *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())

		// Anonymous requests carry no membership to check.
		if claims == nil {
			next.ServeHTTP(writer, request)
			return
		}

		if refreshed := guard.Check(request.Context(), claims); refreshed != nil {
			request = request.WithContext(ctxutil.WithAuthUser(request.Context(), refreshed))
		}
		next.ServeHTTP(writer, request)
	})
}

/*
Check downgrades the account if its subscription has expired and returns
claims rebuilt from the persisted account state.

# Description
Loads the account, and when the paid role is held with an expired (or
missing) subscription, swaps the paid role reference for the guest role.
The returned claims carry the account's current role names and permission
override, so downstream authorization decides from the downgraded state
rather than from the role set frozen into the JWT at login. Every failure
is logged and swallowed: on a load failure nil is returned, the caller's
request proceeds with the token's claims, and the next request or the
nightly sweep retries.

# Parameters
  - context: Request context.
  - claims: The verified JWT claims of the caller.

# Returns
  - *sec.AuthClaims: Claims refreshed from storage, or nil when the
    account could not be loaded.
*/
func (guard *Guard) Check(context stdctx.Context, claims *sec.AuthClaims) *sec.AuthClaims {
	user, err := guard.users.FindByID(context, claims.UserID)
	if err != nil {
		guard.logger.WarnContext(context, "expiration_guard_load_failed",
			slog.String("user_id", claims.UserID),
			slog.Any("error", err),
		)
		return nil
	}

	if shouldDowngrade(user, guard.now()) {
		if err := downgradeToGuest(context, guard.users, guard.roles, user); err != nil {
			guard.logger.WarnContext(context, "expiration_guard_downgrade_failed",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		} else {
			guard.logger.InfoContext(context, "membership_expired_downgraded",
				slog.String("user_id", user.ID),
				slog.String("email", user.Email),
				slog.String("trigger", "guard"),
			)
		}
	}

	refreshed := *claims
	refreshed.Roles = user.RoleNames()
	refreshed.Permissions = user.Permissions
	return &refreshed
}

// shouldDowngrade reports whether the account holds paid access it no
// longer pays for. Staff are exempt.
func shouldDowngrade(user *member.User, now time.Time) bool {
	if user.IsStaff() {
		return false
	}
	if !user.HasRole(role.User) {
		return false
	}
	return !user.HasActiveSubscription(now)
}

// downgradeToGuest swaps the paid role reference for the guest role,
// preserving any other roles the account holds in order. On success the
// in-memory user reflects the swap as well.
func downgradeToGuest(context stdctx.Context, users member.UserRepository, roles role.Repository, user *member.User) error {
	guestRole, err := roles.FindByName(context, role.Guest)
	if err != nil {
		return err
	}

	roleIDs := make([]string, 0, len(user.Roles))
	swapped := make([]role.Role, 0, len(user.Roles))
	for _, held := range user.Roles {
		if held.Name == role.User {
			roleIDs = append(roleIDs, guestRole.ID)
			swapped = append(swapped, *guestRole)
			continue
		}
		roleIDs = append(roleIDs, held.ID)
		swapped = append(swapped, held)
	}

	if err := users.ReplaceRoles(context, user.ID, roleIDs); err != nil {
		return err
	}
	user.Roles = swapped
	return nil
}
