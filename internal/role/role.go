// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package role manages the role catalog and its permission sets.

Roles are shared references: many accounts point at the same role row, so a
role's permission list is the single source of truth for every account that
holds it. Changing what a role grants is done by editing the role, or by
re-pointing accounts at a different role — never by renaming a role in place,
which would silently change unrelated accounts.

Built-in Roles:

  - guest: the free tier, assigned at registration and after expiration.
  - user: the paid tier, assigned on subscription activation.
  - admin / superadmin: staff tiers, never touched by the billing lifecycle.
*/
package role

import "time"

// Built-in role names. The billing lifecycle moves accounts between Guest
// and User; staff roles are managed manually.
const (
	Guest      = "guest"
	User       = "user"
	Admin      = "admin"
	SuperAdmin = "superadmin"
)

// Role is a named bundle of permission strings.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsStaff reports whether the role is an administrative tier that the
// subscription lifecycle must never downgrade.
func (r Role) IsStaff() bool {
	return r.Name == Admin || r.Name == SuperAdmin
}
