// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package access implements permission resolution for the membership API.

Every protected request is reduced to a single required permission of the
form "module_scope", where the module is derived from the URL and the scope
from the HTTP method. The caller's effective permission set is then checked
for that exact string.

Resolution Pipeline:

 1. Derive: method + path -> required permission ("products_write").
 2. Collect: merge the caller's role permission sets (cached in Redis).
 3. Override: a non-empty per-user permission list replaces the merged set.
 4. Decide: exact string membership, allow or deny.

The wildcard permission "all_access" short-circuits the check and grants
every operation.
*/
package access

import (
	stdctx "context"
	"strings"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
)

// Permission scopes derived from HTTP methods.
const (
	ScopeRead   = "read"
	ScopeWrite  = "write"
	ScopeDelete = "delete"
)

// AllAccess grants every operation regardless of module or scope.
const AllAccess = "all_access"

// ScopeForMethod maps an HTTP method to its permission scope.
//
//	GET, HEAD          -> read
//	POST, PUT, PATCH   -> write
//	DELETE             -> delete
//
// Unknown methods return an empty scope, which never matches a permission.
func ScopeForMethod(method string) string {
	switch method {
	case "GET", "HEAD":
		return ScopeRead
	case "POST", "PUT", "PATCH":
		return ScopeWrite
	case "DELETE":
		return ScopeDelete
	default:
		return ""
	}
}

// ModuleFromPath extracts the module name from a request path: the first
// segment after the API prefix.
//
//	/api/v1/products/42 -> "products"
//	/api/v1/roles       -> "roles"
//
// Paths outside the prefix, or the bare prefix itself, yield an empty module.
func ModuleFromPath(path string) string {
	rest, found := strings.CutPrefix(path, constants.APIPrefix)
	if !found {
		return ""
	}

	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return ""
	}

	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}

// Required builds the permission string a request needs.
func Required(module, scope string) string {
	return module + "_" + scope
}

// PermissionSource resolves a set of role names into the union of their
// permission strings. Implemented by the role repository (Redis-cached).
type PermissionSource interface {
	PermissionsForRoles(context stdctx.Context, roleNames []string) ([]string, error)
}

// Resolver decides whether an authenticated caller may perform a request.
// It satisfies the middleware's AccessDecider interface.
type Resolver struct {
	source PermissionSource
}

// NewResolver creates a Resolver backed by the given permission source.
func NewResolver(source PermissionSource) *Resolver {
	return &Resolver{source: source}
}

/*
Decide checks whether the caller may perform method+path.

# Description
Derives the required "module_scope" permission and checks it against the
caller's effective permission set. A non-empty per-user override in the
claims fully replaces the merged role permissions.

# Parameters
  - context: Request context (bounds the role permission lookup).
  - claims: The verified JWT claims of the caller.
  - method: HTTP method of the request.
  - path: URL path of the request.

# Returns
  - error: nil when allowed, 403 [apperr.AppError] when denied, or the
    lookup error when role permissions could not be loaded.
*/
func (resolver *Resolver) Decide(context stdctx.Context, claims *sec.AuthClaims, method, path string) error {

	// 1. Derive the required permission from the request shape
	module := ModuleFromPath(path)
	scope := ScopeForMethod(method)
	if module == "" || scope == "" {
		return apperr.Forbidden("Request does not map to a permission")
	}
	required := Required(module, scope)

	// 2. Build the effective permission set
	effective, err := resolver.effectivePermissions(context, claims)
	if err != nil {
		return err
	}

	// 3. Exact membership check (wildcard wins)
	for _, permission := range effective {
		if permission == AllAccess || permission == required {
			return nil
		}
	}

	return apperr.Forbidden("Missing permission: " + required)
}

// effectivePermissions returns the permission set that governs this caller.
// The per-user override replaces role permissions entirely when present.
func (resolver *Resolver) effectivePermissions(context stdctx.Context, claims *sec.AuthClaims) ([]string, error) {
	if len(claims.Permissions) > 0 {
		return claims.Permissions, nil
	}

	merged, err := resolver.source.PermissionsForRoles(context, claims.Roles)
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// MergePermissions deduplicates the union of several permission sets while
// preserving first-seen order. Used by permission sources when combining
// multiple roles.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, set := range sets {
		for _, permission := range set {
			if _, duplicate := seen[permission]; duplicate {
				continue
			}
			seen[permission] = struct{}{}
			merged = append(merged, permission)
		}
	}
	return merged
}
