// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import (
	stdctx "context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmorales-dev/lienzo/internal/platform/constants"
)

// permissionCacheTTL bounds staleness after a role edit. Admin mutations also
// invalidate eagerly, so the TTL only covers out-of-band database changes.
const permissionCacheTTL = 5 * time.Minute

// CachedRepository decorates a [Repository] with a Redis read-through cache
// for permission-set lookups, the hot path hit on every authorized request.
//
// All other operations pass through to the inner repository; mutations
// invalidate the whole permission cache keyspace-by-convention (one key per
// role-name combination).
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	logger *slog.Logger
}

// NewCachedRepository wraps repo with a Redis permission cache.
func NewCachedRepository(inner Repository, client *redis.Client, logger *slog.Logger) *CachedRepository {
	return &CachedRepository{inner: inner, client: client, logger: logger}
}

// FindByID implements [Repository].
func (repo *CachedRepository) FindByID(context stdctx.Context, id string) (*Role, error) {
	return repo.inner.FindByID(context, id)
}

// FindByName implements [Repository].
func (repo *CachedRepository) FindByName(context stdctx.Context, name string) (*Role, error) {
	return repo.inner.FindByName(context, name)
}

// List implements [Repository].
func (repo *CachedRepository) List(context stdctx.Context) ([]Role, error) {
	return repo.inner.List(context)
}

// Create implements [Repository].
func (repo *CachedRepository) Create(context stdctx.Context, name string, permissions []string) (*Role, error) {
	created, err := repo.inner.Create(context, name, permissions)
	if err != nil {
		return nil, err
	}
	repo.invalidate(context)
	return created, nil
}

// UpdatePermissions implements [Repository].
func (repo *CachedRepository) UpdatePermissions(context stdctx.Context, id string, permissions []string) (*Role, error) {
	updated, err := repo.inner.UpdatePermissions(context, id, permissions)
	if err != nil {
		return nil, err
	}
	repo.invalidate(context)
	return updated, nil
}

// Delete implements [Repository].
func (repo *CachedRepository) Delete(context stdctx.Context, id string) error {
	if err := repo.inner.Delete(context, id); err != nil {
		return err
	}
	repo.invalidate(context)
	return nil
}

// PermissionsForRoles implements [Repository] with a read-through cache.
//
// Cache failures are logged and fall back to the database: authorization
// must keep working when Redis is down.
func (repo *CachedRepository) PermissionsForRoles(context stdctx.Context, roleNames []string) ([]string, error) {
	if len(roleNames) == 0 {
		return nil, nil
	}

	key := repo.cacheKey(roleNames)

	// 1. Cache hit path
	cached, err := repo.client.Get(context, key).Result()
	if err == nil {
		var permissions []string
		if err := json.Unmarshal([]byte(cached), &permissions); err == nil {
			return permissions, nil
		}
		// Corrupt entry: drop it and fall through to the database.
		repo.client.Del(context, key)
	} else if err != redis.Nil {
		repo.logger.Warn("role_permission_cache_read_failed", slog.Any("error", err))
	}

	// 2. Miss: load from the database
	permissions, err := repo.inner.PermissionsForRoles(context, roleNames)
	if err != nil {
		return nil, err
	}

	// 3. Populate the cache (best effort)
	encoded, err := json.Marshal(permissions)
	if err == nil {
		if err := repo.client.Set(context, key, encoded, permissionCacheTTL).Err(); err != nil {
			repo.logger.Warn("role_permission_cache_write_failed", slog.Any("error", err))
		}
	}

	return permissions, nil
}

// cacheKey builds a deterministic key for a set of role names.
func (repo *CachedRepository) cacheKey(roleNames []string) string {
	sorted := make([]string, len(roleNames))
	copy(sorted, roleNames)
	sort.Strings(sorted)
	return constants.RedisPrefixRolePerms + strings.Join(sorted, ",")
}

// invalidate drops every cached permission set. Role mutations are rare, so
// a full SCAN+DEL over the prefix is acceptable.
func (repo *CachedRepository) invalidate(context stdctx.Context) {
	iterator := repo.client.Scan(context, 0, constants.RedisPrefixRolePerms+"*", 100).Iterator()
	for iterator.Next(context) {
		repo.client.Del(context, iterator.Val())
	}
	if err := iterator.Err(); err != nil {
		repo.logger.Warn("role_permission_cache_invalidate_failed", slog.Any("error", err))
	}
}
