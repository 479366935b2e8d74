// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import stdctx "context"

// Repository defines the persistence operations for roles.
type Repository interface {
	// FindByID returns the role with the given ID.
	FindByID(context stdctx.Context, id string) (*Role, error)

	// FindByName returns the role with the given unique name.
	FindByName(context stdctx.Context, name string) (*Role, error)

	// List returns all roles ordered by name.
	List(context stdctx.Context) ([]Role, error)

	// Create inserts a new role and returns it with generated fields.
	Create(context stdctx.Context, name string, permissions []string) (*Role, error)

	// UpdatePermissions replaces a role's permission set.
	UpdatePermissions(context stdctx.Context, id string, permissions []string) (*Role, error)

	// Delete removes a role. Roles still referenced by accounts fail with a conflict.
	Delete(context stdctx.Context, id string) error

	// PermissionsForRoles returns the deduplicated union of the permission
	// sets of the named roles. Unknown names contribute nothing.
	PermissionsForRoles(context stdctx.Context, roleNames []string) ([]string, error)
}
