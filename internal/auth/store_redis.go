// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package auth

import (
	stdctx "context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/constants"
)

// SessionRepository stores refresh-token sessions. Sessions are opaque
// random tokens mapped to a user ID with a TTL; rotating or revoking a
// session is a single key operation.
type SessionRepository interface {
	Save(context stdctx.Context, token, userID string) error
	Resolve(context stdctx.Context, token string) (string, error)
	Revoke(context stdctx.Context, token string) error
}

// RedisSessionRepository is the Redis-backed [SessionRepository].
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a session store on the given client.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Save implements [SessionRepository].
func (repo *RedisSessionRepository) Save(context stdctx.Context, token, userID string) error {
	key := constants.RedisPrefixSession + token
	if err := repo.client.Set(context, key, userID, refreshTokenTTL).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("auth: failed to save session: %w", err))
	}
	return nil
}

// Resolve implements [SessionRepository]. An unknown or expired token is an
// authentication failure, not an internal error.
func (repo *RedisSessionRepository) Resolve(context stdctx.Context, token string) (string, error) {
	key := constants.RedisPrefixSession + token

	userID, err := repo.client.Get(context, key).Result()
	if err == redis.Nil {
		return "", apperr.Unauthorized("Session has expired")
	}
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("auth: failed to resolve session: %w", err))
	}
	return userID, nil
}

// Revoke implements [SessionRepository].
func (repo *RedisSessionRepository) Revoke(context stdctx.Context, token string) error {
	key := constants.RedisPrefixSession + token
	if err := repo.client.Del(context, key).Err(); err != nil {
		return apperr.Internal(fmt.Errorf("auth: failed to revoke session: %w", err))
	}
	return nil
}
