// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package member

import (
	stdctx "context"
	"time"
)

// UserRepository defines the persistence operations for accounts.
type UserRepository interface {
	// FindByID returns the account with the given ID, roles included.
	FindByID(context stdctx.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email, roles included.
	FindByEmail(context stdctx.Context, email string) (*User, error)

	// FindByUsername returns the account with the given username, roles included.
	FindByUsername(context stdctx.Context, username string) (*User, error)

	// Create inserts a new account holding the given role.
	Create(context stdctx.Context, email, username, passwordHash string, initialRoleID string) (*User, error)

	// ReplaceRoles swaps the account's role references for the given ordered
	// list of role IDs.
	ReplaceRoles(context stdctx.Context, userID string, roleIDs []string) error

	// GrantSubscription writes a subscription record and swaps the account's
	// roles for the given ordered list, in one transaction. The write is
	// conditional: it fails with a conflict if the account already has a
	// subscription active at the given time, so concurrent activations
	// cannot double-charge.
	GrantSubscription(context stdctx.Context, userID string, sub Subscription, roleIDs []string, now time.Time) error

	// SetSubscription overwrites the subscription record unconditionally.
	// Used by admin extensions, which may shorten or lengthen access.
	SetSubscription(context stdctx.Context, userID string, sub Subscription) error

	// MarkCouponUsed flips the coupon flag. The update is conditional on the
	// flag being unset and fails with a conflict otherwise, making coupon
	// redemption race-safe.
	MarkCouponUsed(context stdctx.Context, userID string) error

	// SetPermissions replaces the account's per-user permission override.
	SetPermissions(context stdctx.Context, userID string, permissions []string) error

	// ListExpired returns accounts whose subscription expired at or before
	// the given time and that still hold the named paid role.
	ListExpired(context stdctx.Context, paidRoleName string, now time.Time) ([]User, error)
}
