// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package member

import (
	stdctx "context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/dberr"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// PostgresRepository is the pgx-backed implementation of [UserRepository].
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates an account repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const accountColumns = `
	a.id, a.email, a.username, a.password_hash, a.permissions, a.coupon_used,
	a.sub_transaction_id, a.sub_payment_date, a.sub_expiration_date, a.sub_method,
	a.created_at, a.updated_at`

// FindByID implements [UserRepository].
func (repo *PostgresRepository) FindByID(context stdctx.Context, id string) (*User, error) {
	return repo.findOne(context, `a.id = $1`, id)
}

// FindByEmail implements [UserRepository].
func (repo *PostgresRepository) FindByEmail(context stdctx.Context, email string) (*User, error) {
	return repo.findOne(context, `a.email = $1`, email)
}

// FindByUsername implements [UserRepository].
func (repo *PostgresRepository) FindByUsername(context stdctx.Context, username string) (*User, error) {
	return repo.findOne(context, `a.username = $1`, username)
}

// findOne loads a single account plus its ordered role list.
func (repo *PostgresRepository) findOne(context stdctx.Context, where string, arg any) (*User, error) {
	query := `SELECT ` + accountColumns + ` FROM account a WHERE ` + where

	var (
		u              User
		transactionID  *string
		paymentDate    *time.Time
		expirationDate *time.Time
		method         *string
	)
	err := repo.pool.QueryRow(context, query, arg).Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Permissions, &u.CouponUsed,
		&transactionID, &paymentDate, &expirationDate, &method,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	if transactionID != nil && paymentDate != nil && expirationDate != nil {
		u.Subscription = &Subscription{
			TransactionID:  *transactionID,
			PaymentDate:    *paymentDate,
			ExpirationDate: *expirationDate,
		}
		if method != nil {
			u.Subscription.Method = *method
		}
	}

	roles, err := repo.loadRoles(context, u.ID)
	if err != nil {
		return nil, err
	}
	u.Roles = roles

	return &u, nil
}

// loadRoles returns the account's roles ordered by position.
func (repo *PostgresRepository) loadRoles(context stdctx.Context, userID string) ([]role.Role, error) {
	query := `
		SELECT r.id, r.name, r.permissions, r.created_at, r.updated_at
		FROM account_roles ar
		JOIN roles r ON r.id = ar.role_id
		WHERE ar.account_id = $1
		ORDER BY ar.position`

	rows, err := repo.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "Role")
	}
	defer rows.Close()

	var roles []role.Role
	for rows.Next() {
		var r role.Role
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

// Create implements [UserRepository].
func (repo *PostgresRepository) Create(context stdctx.Context, email, username, passwordHash string, initialRoleID string) (*User, error) {
	transaction, err := repo.pool.Begin(context)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}
	defer func() { _ = transaction.Rollback(context) }()

	var userID string
	err = transaction.QueryRow(context, `
		INSERT INTO account (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		email, username, passwordHash,
	).Scan(&userID)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	_, err = transaction.Exec(context, `
		INSERT INTO account_roles (account_id, role_id, position)
		VALUES ($1, $2, 0)`,
		userID, initialRoleID,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	if err := transaction.Commit(context); err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return repo.FindByID(context, userID)
}

// ReplaceRoles implements [UserRepository].
func (repo *PostgresRepository) ReplaceRoles(context stdctx.Context, userID string, roleIDs []string) error {
	transaction, err := repo.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	defer func() { _ = transaction.Rollback(context) }()

	if err := replaceRolesTx(context, transaction, userID, roleIDs); err != nil {
		return err
	}

	return dberr.Wrap(transaction.Commit(context), "User")
}

// replaceRolesTx swaps role references inside an open transaction.
func replaceRolesTx(context stdctx.Context, transaction pgx.Tx, userID string, roleIDs []string) error {
	if _, err := transaction.Exec(context, `DELETE FROM account_roles WHERE account_id = $1`, userID); err != nil {
		return dberr.Wrap(err, "User")
	}

	for position, roleID := range roleIDs {
		_, err := transaction.Exec(context, `
			INSERT INTO account_roles (account_id, role_id, position)
			VALUES ($1, $2, $3)`,
			userID, roleID, position,
		)
		if err != nil {
			return dberr.Wrap(err, "User")
		}
	}

	return nil
}

// GrantSubscription implements [UserRepository].
//
// The subscription write is a conditional UPDATE: it only matches when the
// account has no subscription or the existing one has already expired. A
// concurrent activation therefore loses the race at the database and
// surfaces as a 409 instead of overwriting paid time.
func (repo *PostgresRepository) GrantSubscription(context stdctx.Context, userID string, sub Subscription, roleIDs []string, now time.Time) error {
	transaction, err := repo.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	defer func() { _ = transaction.Rollback(context) }()

	result, err := transaction.Exec(context, `
		UPDATE account
		SET sub_transaction_id = $2,
		    sub_payment_date = $3,
		    sub_expiration_date = $4,
		    sub_method = $5,
		    updated_at = now()
		WHERE id = $1
		  AND (sub_expiration_date IS NULL OR sub_expiration_date <= $6)`,
		userID, sub.TransactionID, sub.PaymentDate, sub.ExpirationDate, sub.Method, now,
	)
	if err != nil {
		return dberr.Wrap(err, "Subscription")
	}

	if result.RowsAffected() == 0 {
		// Distinguish "already active" from "no such account".
		var exists bool
		if err := transaction.QueryRow(context, `SELECT EXISTS(SELECT 1 FROM account WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return dberr.Wrap(err, "User")
		}
		if !exists {
			return apperr.NotFound("User")
		}
		return apperr.Conflict("User already has an active subscription")
	}

	if err := replaceRolesTx(context, transaction, userID, roleIDs); err != nil {
		return err
	}

	return dberr.Wrap(transaction.Commit(context), "Subscription")
}

// SetSubscription implements [UserRepository].
func (repo *PostgresRepository) SetSubscription(context stdctx.Context, userID string, sub Subscription) error {
	result, err := repo.pool.Exec(context, `
		UPDATE account
		SET sub_transaction_id = $2,
		    sub_payment_date = $3,
		    sub_expiration_date = $4,
		    sub_method = $5,
		    updated_at = now()
		WHERE id = $1`,
		userID, sub.TransactionID, sub.PaymentDate, sub.ExpirationDate, sub.Method,
	)
	if err != nil {
		return dberr.Wrap(err, "Subscription")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// MarkCouponUsed implements [UserRepository].
func (repo *PostgresRepository) MarkCouponUsed(context stdctx.Context, userID string) error {
	result, err := repo.pool.Exec(context, `
		UPDATE account
		SET coupon_used = true, updated_at = now()
		WHERE id = $1 AND coupon_used = false`,
		userID,
	)
	if err != nil {
		return dberr.Wrap(err, "User")
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := repo.pool.QueryRow(context, `SELECT EXISTS(SELECT 1 FROM account WHERE id = $1)`, userID).Scan(&exists); err != nil {
			return dberr.Wrap(err, "User")
		}
		if !exists {
			return apperr.NotFound("User")
		}
		return apperr.Conflict("Coupon has already been redeemed")
	}
	return nil
}

// SetPermissions implements [UserRepository].
func (repo *PostgresRepository) SetPermissions(context stdctx.Context, userID string, permissions []string) error {
	result, err := repo.pool.Exec(context, `
		UPDATE account
		SET permissions = $2, updated_at = now()
		WHERE id = $1`,
		userID, permissions,
	)
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// ListExpired implements [UserRepository].
func (repo *PostgresRepository) ListExpired(context stdctx.Context, paidRoleName string, now time.Time) ([]User, error) {
	query := `
		SELECT a.id
		FROM account a
		JOIN account_roles ar ON ar.account_id = a.id
		JOIN roles r ON r.id = ar.role_id
		WHERE r.name = $1
		  AND a.sub_expiration_date IS NOT NULL
		  AND a.sub_expiration_date <= $2
		ORDER BY a.sub_expiration_date`

	rows, err := repo.pool.Query(context, query, paidRoleName, now)
	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, dberr.Wrap(err, "User")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	// Load each account fully (roles included). The expired set is small on
	// any given day, so the N+1 stays cheap and keeps one loading path.
	users := make([]User, 0, len(ids))
	for _, id := range ids {
		u, err := repo.FindByID(context, id)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, nil
}
