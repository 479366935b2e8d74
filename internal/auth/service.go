// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package auth implements account registration and the token lifecycle.

Identity is carried in short-lived HS256 access tokens; longevity comes
from opaque refresh sessions stored in Redis. Refreshing always reloads the
account from the database, so role changes (a downgrade, an admin grant)
reach the client within one access-token lifetime at worst.
*/
package auth

import (
	stdctx "context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/constants"
	"github.com/dmorales-dev/lienzo/internal/platform/sec"
	"github.com/dmorales-dev/lienzo/internal/platform/validate"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// refreshTokenTTL is how long a refresh session stays valid without use.
const refreshTokenTTL = 7 * 24 * time.Hour

// TokenProvider issues signed access tokens. Implemented by [sec.TokenService].
type TokenProvider interface {
	GenerateAccessToken(userID, email, username string, roles, permissions []string, timeToLive time.Duration) (string, error)
}

// Credentials is what a successful login or refresh returns.
type Credentials struct {
	AccessToken  string       `json:"accessToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	RefreshToken string       `json:"-"`
	User         *member.User `json:"user"`
}

// Service contains the authentication business logic.
type Service struct {
	users    member.UserRepository
	roles    role.Repository
	sessions SessionRepository
	tokens   TokenProvider
	logger   *slog.Logger
}

// NewService creates the auth service.
func NewService(
	users member.UserRepository,
	roles role.Repository,
	sessions SessionRepository,
	tokens TokenProvider,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    users,
		roles:    roles,
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
	}
}

/*
Register creates a new account on the free tier.

# Description
Validates the input, hashes the password with bcrypt, and creates the
account holding the guest role. New accounts never have a subscription.

# Parameters
  - context: Request context.
  - email, username, password: Raw registration input.

# Returns
  - *member.User: The created account.
  - error: Validation error or a conflict when email/username is taken.
*/
func (service *Service) Register(context stdctx.Context, email, username, password string) (*member.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	v := &validate.Validator{}
	v.Required("email", email).Email("email", email)
	v.Required("username", username).MinLen("username", username, 3).MaxLen("username", username, 32)
	v.Required("password", password).MinLen("password", password, 8).MaxLen("password", password, 72)
	if err := v.Err(); err != nil {
		return nil, err
	}

	passwordHash, err := sec.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	guestRole, err := service.roles.FindByName(context, role.Guest)
	if err != nil {
		return nil, err
	}

	created, err := service.users.Create(context, email, username, passwordHash, guestRole.ID)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "account_registered",
		slog.String("user_id", created.ID),
		slog.String("email", created.Email),
	)
	return created, nil
}

/*
Login verifies credentials and opens a session.

# Description
The identifier may be an email or a username. On success a 3-hour access
token is issued together with an opaque refresh token stored in Redis.
Both lookup failure and password mismatch return the same 401 so the
endpoint cannot be used to enumerate accounts.
*/
func (service *Service) Login(context stdctx.Context, identifier, password string) (*Credentials, error) {
	identifier = strings.TrimSpace(identifier)

	v := &validate.Validator{}
	v.Required("identifier", identifier)
	v.Required("password", password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := service.findByIdentifier(context, identifier)
	if err != nil {
		if apperr.As(err) != nil && apperr.As(err).Code == "NOT_FOUND" {
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	credentials, err := service.issue(context, user)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "login_succeeded",
		slog.String("user_id", user.ID),
		slog.String("active_role", user.ActiveRole().Name),
	)
	return credentials, nil
}

/*
Refresh rotates a session and re-issues an access token.

# Description
Resolves the refresh token in Redis, reloads the account from the database
so the new token reflects current roles and permissions, then rotates the
session: the old refresh token is revoked and a new one returned.
*/
func (service *Service) Refresh(context stdctx.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, apperr.Unauthorized("Missing refresh token")
	}

	userID, err := service.sessions.Resolve(context, refreshToken)
	if err != nil {
		return nil, err
	}

	// Always re-issue from persisted state, never from the old token.
	user, err := service.users.FindByID(context, userID)
	if err != nil {
		if apperr.As(err) != nil && apperr.As(err).Code == "NOT_FOUND" {
			return nil, apperr.Unauthorized("Account no longer exists")
		}
		return nil, err
	}

	if err := service.sessions.Revoke(context, refreshToken); err != nil {
		return nil, err
	}

	return service.issue(context, user)
}

// Logout revokes the refresh session. Missing tokens are a no-op: logout
// must always succeed from the client's perspective.
func (service *Service) Logout(context stdctx.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return service.sessions.Revoke(context, refreshToken)
}

// issue builds credentials for an account: signed access token plus a fresh
// refresh session.
func (service *Service) issue(context stdctx.Context, user *member.User) (*Credentials, error) {
	accessToken, err := service.tokens.GenerateAccessToken(
		user.ID, user.Email, user.Username,
		user.RoleNames(), user.Permissions,
		constants.AccessTokenTTL,
	)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	refreshToken := uuid.NewString()
	if err := service.sessions.Save(context, refreshToken, user.ID); err != nil {
		return nil, err
	}

	return &Credentials{
		AccessToken:  accessToken,
		ExpiresIn:    int64(constants.AccessTokenTTL.Seconds()),
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// findByIdentifier resolves an email or username to an account.
func (service *Service) findByIdentifier(context stdctx.Context, identifier string) (*member.User, error) {
	if strings.Contains(identifier, "@") {
		return service.users.FindByEmail(context, strings.ToLower(identifier))
	}
	return service.users.FindByUsername(context, identifier)
}
