// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import (
	stdctx "context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/validate"
)

// permissionRegex matches the canonical "module_scope" shape plus the
// wildcard. Modules are lowercase identifiers; scopes are read/write/delete.
var permissionRegex = regexp.MustCompile(`^([a-z][a-z0-9]*_(read|write|delete)|all_access)$`)

// Service contains the business logic for role administration.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a role service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

/*
List returns the full role catalog.

# Returns
  - []Role: All roles ordered by name.
  - error: Wrapped storage error.
*/
func (service *Service) List(context stdctx.Context) ([]Role, error) {
	return service.repo.List(context)
}

/*
Get returns a single role by ID.

# Parameters
  - context: Request context.
  - id: Role UUID.
*/
func (service *Service) Get(context stdctx.Context, id string) (*Role, error) {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, id)
}

/*
Create registers a new role with the given permission set.

# Description
Role names are normalized to lowercase. Every permission must match the
"module_scope" shape (or the wildcard) so the access resolver can rely on
exact string comparison.

# Parameters
  - context: Request context.
  - name: Unique role name.
  - permissions: Permission strings granted to the role.

# Returns
  - *Role: The created role with generated ID and timestamps.
  - error: Validation error or a conflict when the name is taken.
*/
func (service *Service) Create(context stdctx.Context, name string, permissions []string) (*Role, error) {
	name = strings.ToLower(strings.TrimSpace(name))

	v := &validate.Validator{}
	v.Required("name", name).MinLen("name", name, 3).MaxLen("name", name, 32).Slug("name", name)
	validatePermissions(v, permissions)
	if err := v.Err(); err != nil {
		return nil, err
	}

	created, err := service.repo.Create(context, name, permissions)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "role_created",
		slog.String("role_id", created.ID),
		slog.String("name", created.Name),
		slog.Int("permission_count", len(created.Permissions)),
	)
	return created, nil
}

/*
UpdatePermissions replaces a role's permission set.

# Description
This is the supported way to change what a role grants: the role keeps its
identity and every account referencing it picks up the new set on the next
permission lookup. Renaming roles is intentionally unsupported.
*/
func (service *Service) UpdatePermissions(context stdctx.Context, id string, permissions []string) (*Role, error) {
	v := &validate.Validator{}
	v.UUID("id", id)
	validatePermissions(v, permissions)
	if err := v.Err(); err != nil {
		return nil, err
	}

	updated, err := service.repo.UpdatePermissions(context, id, permissions)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "role_permissions_updated",
		slog.String("role_id", updated.ID),
		slog.String("name", updated.Name),
		slog.Int("permission_count", len(updated.Permissions)),
	)
	return updated, nil
}

/*
Delete removes a role from the catalog.

# Description
Built-in roles are protected: the subscription lifecycle depends on guest
and user existing, and staff tiers must not disappear by accident.
*/
func (service *Service) Delete(context stdctx.Context, id string) error {
	v := &validate.Validator{}
	if err := v.UUID("id", id).Err(); err != nil {
		return err
	}

	existing, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}

	switch existing.Name {
	case Guest, User, Admin, SuperAdmin:
		return apperr.Conflict("Built-in roles cannot be deleted")
	}

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "role_deleted",
		slog.String("role_id", id),
		slog.String("name", existing.Name),
	)
	return nil
}

// validatePermissions appends a field error for every malformed permission.
func validatePermissions(v *validate.Validator, permissions []string) {
	if len(permissions) == 0 {
		v.Custom("permissions", true, "At least one permission is required")
		return
	}
	for _, permission := range permissions {
		if !permissionRegex.MatchString(permission) {
			v.Custom("permissions", true, "Invalid permission format: "+permission)
		}
	}
}
