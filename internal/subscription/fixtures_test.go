// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/payments"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// frozenNow is the reference instant for every lifecycle test.
var frozenNow = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const testCoupon = "LIENZO30"

// Pre-built role fixtures shared by the fakes.
var (
	guestRole = role.Role{ID: "role-guest", Name: role.Guest, Permissions: []string{"products_read"}}
	paidRole  = role.Role{ID: "role-user", Name: role.User, Permissions: []string{"products_read", "products_write"}}
	adminRole = role.Role{ID: "role-admin", Name: role.Admin, Permissions: []string{"all_access"}}
)

// fakeRoleRepository serves the fixture roles by ID or name.
type fakeRoleRepository struct{}

func (fakeRoleRepository) lookup(match func(role.Role) bool) (*role.Role, error) {
	for _, r := range []role.Role{guestRole, paidRole, adminRole} {
		if match(r) {
			copied := r
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Role")
}

func (f fakeRoleRepository) FindByID(_ context.Context, id string) (*role.Role, error) {
	return f.lookup(func(r role.Role) bool { return r.ID == id })
}

func (f fakeRoleRepository) FindByName(_ context.Context, name string) (*role.Role, error) {
	return f.lookup(func(r role.Role) bool { return r.Name == name })
}

func (fakeRoleRepository) List(_ context.Context) ([]role.Role, error) {
	return []role.Role{guestRole, paidRole, adminRole}, nil
}

func (fakeRoleRepository) Create(_ context.Context, _ string, _ []string) (*role.Role, error) {
	return nil, errors.New("not implemented")
}

func (fakeRoleRepository) UpdatePermissions(_ context.Context, _ string, _ []string) (*role.Role, error) {
	return nil, errors.New("not implemented")
}

func (fakeRoleRepository) Delete(_ context.Context, _ string) error {
	return errors.New("not implemented")
}

func (f fakeRoleRepository) PermissionsForRoles(_ context.Context, names []string) ([]string, error) {
	var merged []string
	for _, name := range names {
		found, err := f.lookup(func(r role.Role) bool { return r.Name == name })
		if err != nil {
			continue
		}
		merged = append(merged, found.Permissions...)
	}
	return merged, nil
}

// fakeUserRepository is an in-memory [member.UserRepository] mirroring the
// conditional-write semantics of the real store.
type fakeUserRepository struct {
	users map[string]*member.User

	// failReplaceRolesFor simulates a persistence failure for specific users.
	failReplaceRolesFor map[string]bool

	replaceRolesCalls int
}

func newFakeUserRepository(seed ...*member.User) *fakeUserRepository {
	repo := &fakeUserRepository{
		users:               make(map[string]*member.User),
		failReplaceRolesFor: make(map[string]bool),
	}
	for _, u := range seed {
		repo.users[u.ID] = u
	}
	return repo
}

func (f *fakeUserRepository) FindByID(_ context.Context, id string) (*member.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepository) FindByEmail(_ context.Context, email string) (*member.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) FindByUsername(_ context.Context, username string) (*member.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (f *fakeUserRepository) Create(_ context.Context, email, username, passwordHash string, initialRoleID string) (*member.User, error) {
	created := &member.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        []role.Role{guestRole},
	}
	f.users[created.ID] = created
	copied := *created
	return &copied, nil
}

func (f *fakeUserRepository) ReplaceRoles(_ context.Context, userID string, roleIDs []string) error {
	f.replaceRolesCalls++
	if f.failReplaceRolesFor[userID] {
		return apperr.Internal(errors.New("simulated write failure"))
	}
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	return f.assignRoles(u, roleIDs)
}

func (f *fakeUserRepository) assignRoles(u *member.User, roleIDs []string) error {
	roles := make([]role.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		found, err := fakeRoleRepository{}.FindByID(context.Background(), id)
		if err != nil {
			return err
		}
		roles = append(roles, *found)
	}
	u.Roles = roles
	return nil
}

func (f *fakeUserRepository) GrantSubscription(_ context.Context, userID string, sub member.Subscription, roleIDs []string, now time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	if u.Subscription.IsActive(now) {
		return apperr.Conflict("User already has an active subscription")
	}
	copied := sub
	u.Subscription = &copied
	return f.assignRoles(u, roleIDs)
}

func (f *fakeUserRepository) SetSubscription(_ context.Context, userID string, sub member.Subscription) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	copied := sub
	u.Subscription = &copied
	return nil
}

func (f *fakeUserRepository) MarkCouponUsed(_ context.Context, userID string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	if u.CouponUsed {
		return apperr.Conflict("Coupon has already been redeemed")
	}
	u.CouponUsed = true
	return nil
}

func (f *fakeUserRepository) SetPermissions(_ context.Context, userID string, permissions []string) error {
	u, ok := f.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.Permissions = permissions
	return nil
}

func (f *fakeUserRepository) ListExpired(_ context.Context, paidRoleName string, now time.Time) ([]member.User, error) {
	var expired []member.User
	for _, u := range f.users {
		if !u.HasRole(paidRoleName) {
			continue
		}
		if u.Subscription != nil && !u.Subscription.IsActive(now) {
			expired = append(expired, *u)
		}
	}
	return expired, nil
}

// fakeVerifier returns a canned capture result or error.
type fakeVerifier struct {
	result *payments.CaptureResult
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, _ string) (*payments.CaptureResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// Seed helpers.

func newGuestUser(id, email string) *member.User {
	return &member.User{
		ID:       id,
		Email:    email,
		Username: email[:len(email)-len("@lienzo.test")],
		Roles:    []role.Role{guestRole},
	}
}

func newPaidUser(id, email string, expiration time.Time) *member.User {
	u := newGuestUser(id, email)
	u.Roles = []role.Role{paidRole}
	u.Subscription = &member.Subscription{
		TransactionID:  "PAY-" + id,
		PaymentDate:    expiration.AddDate(0, 0, -30),
		ExpirationDate: expiration,
		Method:         member.MethodPayPal,
	}
	return u
}

func newTestActivator(users *fakeUserRepository, paypal, mercadopago payments.Verifier) *Activator {
	activator := NewActivator(users, fakeRoleRepository{}, paypal, mercadopago, testCoupon, slog.New(slog.NewTextHandler(io.Discard, nil)))
	activator.now = func() time.Time { return frozenNow }
	return activator
}
