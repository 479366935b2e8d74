// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package role

import (
	stdctx "context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/dberr"
)

// PostgresRepository is the pgx-backed implementation of [Repository].
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a role repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const roleColumns = `id, name, permissions, created_at, updated_at`

// FindByID implements [Repository].
func (repo *PostgresRepository) FindByID(context stdctx.Context, id string) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE id = $1`

	var r Role
	err := repo.pool.QueryRow(context, query, id).
		Scan(&r.ID, &r.Name, &r.Permissions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	return &r, nil
}

// FindByName implements [Repository].
func (repo *PostgresRepository) FindByName(context stdctx.Context, name string) (*Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles WHERE name = $1`

	var r Role
	err := repo.pool.QueryRow(context, query, name).
		Scan(&r.ID, &r.Name, &r.Permissions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	return &r, nil
}

// List implements [Repository].
func (repo *PostgresRepository) List(context stdctx.Context) ([]Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles ORDER BY name`

	rows, err := repo.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name, &r.Permissions, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, dberr.Wrap(err, "Role")
		}
		roles = append(roles, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Role")
	}

	return roles, nil
}

// Create implements [Repository].
func (repo *PostgresRepository) Create(context stdctx.Context, name string, permissions []string) (*Role, error) {
	query := `
		INSERT INTO roles (name, permissions)
		VALUES ($1, $2)
		RETURNING ` + roleColumns

	var r Role
	err := repo.pool.QueryRow(context, query, name, permissions).
		Scan(&r.ID, &r.Name, &r.Permissions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	return &r, nil
}

// UpdatePermissions implements [Repository].
func (repo *PostgresRepository) UpdatePermissions(context stdctx.Context, id string, permissions []string) (*Role, error) {
	query := `
		UPDATE roles
		SET permissions = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + roleColumns

	var r Role
	err := repo.pool.QueryRow(context, query, id, permissions).
		Scan(&r.ID, &r.Name, &r.Permissions, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	return &r, nil
}

// Delete implements [Repository].
func (repo *PostgresRepository) Delete(context stdctx.Context, id string) error {
	result, err := repo.pool.Exec(context, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		// Accounts still referencing this role block the deletion.
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.ForeignKeyViolation {
			return apperr.Conflict("Role is still assigned to one or more accounts")
		}
		return dberr.Wrap(err, "Role")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}
	return nil
}

// PermissionsForRoles implements [Repository].
//
// The union is computed in SQL: unnest every matching role's permission
// array and deduplicate. Ordering is stable so downstream callers can cache
// the result verbatim.
func (repo *PostgresRepository) PermissionsForRoles(context stdctx.Context, roleNames []string) ([]string, error) {
	if len(roleNames) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT permission
		FROM roles, unnest(permissions) AS permission
		WHERE name = ANY($1)
		ORDER BY permission`

	rows, err := repo.pool.Query(context, query, roleNames)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var permission string
		if err := rows.Scan(&permission); err != nil {
			return nil, dberr.Wrap(err, "Role")
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "Role")
	}

	return permissions, nil
}
