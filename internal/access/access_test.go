// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
)

// fakeSource is an in-memory PermissionSource keyed by role name.
type fakeSource struct {
	perms map[string][]string
	err   error
}

func (f *fakeSource) PermissionsForRoles(_ context.Context, roleNames []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	sets := make([][]string, 0, len(roleNames))
	for _, name := range roleNames {
		sets = append(sets, f.perms[name])
	}
	return MergePermissions(sets...), nil
}

func TestScopeForMethod(t *testing.T) {
	testCases := []struct {
		method string
		want   string
	}{
		{"GET", ScopeRead},
		{"HEAD", ScopeRead},
		{"POST", ScopeWrite},
		{"PUT", ScopeWrite},
		{"PATCH", ScopeWrite},
		{"DELETE", ScopeDelete},
		{"OPTIONS", ""},
		{"TRACE", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.method, func(t *testing.T) {
			assert.Equal(t, testCase.want, ScopeForMethod(testCase.method))
		})
	}
}

func TestModuleFromPath(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want string
	}{
		{"collection route", "/api/v1/products", "products"},
		{"item route", "/api/v1/products/42", "products"},
		{"nested route", "/api/v1/subscriptions/coupon", "subscriptions"},
		{"bare prefix", "/api/v1", ""},
		{"bare prefix with slash", "/api/v1/", ""},
		{"outside prefix", "/health", ""},
		{"wrong version", "/api/v2/products", ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, ModuleFromPath(testCase.path))
		})
	}
}

func TestResolverDecide(t *testing.T) {
	source := &fakeSource{perms: map[string][]string{
		"guest":      {"products_read"},
		"user":       {"products_read", "products_write"},
		"superadmin": {AllAccess},
	}}
	resolver := NewResolver(source)

	testCases := []struct {
		name    string
		claims  *sec.AuthClaims
		method  string
		path    string
		allowed bool
	}{
		{
			name:    "role grants read",
			claims:  &sec.AuthClaims{Roles: []string{"guest"}},
			method:  "GET",
			path:    "/api/v1/products",
			allowed: true,
		},
		{
			name:    "role denies write",
			claims:  &sec.AuthClaims{Roles: []string{"guest"}},
			method:  "POST",
			path:    "/api/v1/products",
			allowed: false,
		},
		{
			name:    "merged roles grant write",
			claims:  &sec.AuthClaims{Roles: []string{"guest", "user"}},
			method:  "PUT",
			path:    "/api/v1/products/42",
			allowed: true,
		},
		{
			name:    "delete requires delete scope",
			claims:  &sec.AuthClaims{Roles: []string{"user"}},
			method:  "DELETE",
			path:    "/api/v1/products/42",
			allowed: false,
		},
		{
			name:    "wildcard grants everything",
			claims:  &sec.AuthClaims{Roles: []string{"superadmin"}},
			method:  "DELETE",
			path:    "/api/v1/roles/7",
			allowed: true,
		},
		{
			name:    "override replaces role permissions",
			claims:  &sec.AuthClaims{Roles: []string{"user"}, Permissions: []string{"roles_read"}},
			method:  "POST",
			path:    "/api/v1/products",
			allowed: false,
		},
		{
			name:    "override grants its own entries",
			claims:  &sec.AuthClaims{Roles: []string{"guest"}, Permissions: []string{"roles_read"}},
			method:  "GET",
			path:    "/api/v1/roles",
			allowed: true,
		},
		{
			name:    "unroutable path is denied",
			claims:  &sec.AuthClaims{Roles: []string{"superadmin"}},
			method:  "GET",
			path:    "/metrics",
			allowed: false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			err := resolver.Decide(context.Background(), testCase.claims, testCase.method, testCase.path)
			if testCase.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, "FORBIDDEN", appError.Code)
		})
	}
}

func TestResolverDecidePropagatesLookupError(t *testing.T) {
	resolver := NewResolver(&fakeSource{err: assert.AnError})
	claims := &sec.AuthClaims{Roles: []string{"user"}}

	err := resolver.Decide(context.Background(), claims, "GET", "/api/v1/products")

	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMergePermissions(t *testing.T) {
	merged := MergePermissions(
		[]string{"products_read", "products_write"},
		[]string{"products_read", "roles_read"},
		nil,
	)

	assert.Equal(t, []string{"products_read", "products_write", "roles_read"}, merged)
}
