// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales-dev/lienzo/internal/access"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
)

// memoryRepository is an in-memory [Repository] for service tests.
type memoryRepository struct {
	roles map[string]*Role
}

func newMemoryRepository(seed ...Role) *memoryRepository {
	repo := &memoryRepository{roles: make(map[string]*Role)}
	for i := range seed {
		r := seed[i]
		repo.roles[r.ID] = &r
	}
	return repo
}

func (m *memoryRepository) FindByID(_ context.Context, id string) (*Role, error) {
	if r, ok := m.roles[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, apperr.NotFound("Role")
}

func (m *memoryRepository) FindByName(_ context.Context, name string) (*Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			copied := *r
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (m *memoryRepository) List(_ context.Context) ([]Role, error) {
	out := make([]Role, 0, len(m.roles))
	for _, r := range m.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryRepository) Create(_ context.Context, name string, permissions []string) (*Role, error) {
	for _, r := range m.roles {
		if r.Name == name {
			return nil, apperr.Conflict("Role already exists")
		}
	}
	created := &Role{
		ID:          uuid.NewString(),
		Name:        name,
		Permissions: permissions,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.roles[created.ID] = created
	copied := *created
	return &copied, nil
}

func (m *memoryRepository) UpdatePermissions(_ context.Context, id string, permissions []string) (*Role, error) {
	r, ok := m.roles[id]
	if !ok {
		return nil, apperr.NotFound("Role")
	}
	r.Permissions = permissions
	r.UpdatedAt = time.Now()
	copied := *r
	return &copied, nil
}

func (m *memoryRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.roles[id]; !ok {
		return apperr.NotFound("Role")
	}
	delete(m.roles, id)
	return nil
}

func (m *memoryRepository) PermissionsForRoles(_ context.Context, roleNames []string) ([]string, error) {
	var sets [][]string
	for _, name := range roleNames {
		for _, r := range m.roles {
			if r.Name == name {
				sets = append(sets, r.Permissions)
			}
		}
	}
	return access.MergePermissions(sets...), nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestServiceCreate(t *testing.T) {
	testCases := []struct {
		name        string
		roleName    string
		permissions []string
		wantCode    string
	}{
		{
			name:        "valid role",
			roleName:    "editor",
			permissions: []string{"products_read", "products_write"},
		},
		{
			name:        "wildcard permission accepted",
			roleName:    "owner",
			permissions: []string{"all_access"},
		},
		{
			name:        "name normalized to lowercase",
			roleName:    "Editor",
			permissions: []string{"products_read"},
		},
		{
			name:        "malformed permission rejected",
			roleName:    "editor",
			permissions: []string{"products-admin"},
			wantCode:    "VALIDATION_ERROR",
		},
		{
			name:        "empty permissions rejected",
			roleName:    "editor",
			permissions: nil,
			wantCode:    "VALIDATION_ERROR",
		},
		{
			name:        "too short name rejected",
			roleName:    "ed",
			permissions: []string{"products_read"},
			wantCode:    "VALIDATION_ERROR",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			service := newTestService(newMemoryRepository())

			created, err := service.Create(context.Background(), testCase.roleName, testCase.permissions)

			if testCase.wantCode != "" {
				require.Error(t, err)
				appError := apperr.As(err)
				require.NotNil(t, appError)
				assert.Equal(t, testCase.wantCode, appError.Code)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, created.ID)
			assert.Equal(t, testCase.permissions, created.Permissions)
			assert.Equal(t, strings.ToLower(testCase.roleName), created.Name)
		})
	}
}

func TestServiceCreateDuplicateName(t *testing.T) {
	service := newTestService(newMemoryRepository(Role{ID: uuid.NewString(), Name: "editor"}))

	_, err := service.Create(context.Background(), "editor", []string{"products_read"})

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func TestServiceDeleteProtectsBuiltinRoles(t *testing.T) {
	for _, builtin := range []string{Guest, User, Admin, SuperAdmin} {
		t.Run(builtin, func(t *testing.T) {
			id := uuid.NewString()
			service := newTestService(newMemoryRepository(Role{ID: id, Name: builtin}))

			err := service.Delete(context.Background(), id)

			require.Error(t, err)
			assert.Equal(t, "CONFLICT", apperr.As(err).Code)
		})
	}
}

func TestServiceDeleteCustomRole(t *testing.T) {
	id := uuid.NewString()
	repo := newMemoryRepository(Role{ID: id, Name: "editor"})
	service := newTestService(repo)

	require.NoError(t, service.Delete(context.Background(), id))

	_, err := repo.FindByID(context.Background(), id)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

func TestServiceUpdatePermissions(t *testing.T) {
	id := uuid.NewString()
	service := newTestService(newMemoryRepository(Role{
		ID:          id,
		Name:        "editor",
		Permissions: []string{"products_read"},
	}))

	updated, err := service.UpdatePermissions(context.Background(), id, []string{"products_read", "roles_read"})

	require.NoError(t, err)
	assert.Equal(t, []string{"products_read", "roles_read"}, updated.Permissions)
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, Role{Name: Admin}.IsStaff())
	assert.True(t, Role{Name: SuperAdmin}.IsStaff())
	assert.False(t, Role{Name: User}.IsStaff())
	assert.False(t, Role{Name: Guest}.IsStaff())
}
