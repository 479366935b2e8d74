// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/payments"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/role"
)

func TestActivateFromPayPal(t *testing.T) {
	captureTime := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	paypal := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "PAY-CAPTURE-1",
		PayerEmail:    "ana@lienzo.test",
		Status:        "COMPLETED",
		CaptureTime:   captureTime,
	}}
	activator := newTestActivator(users, paypal, nil)

	activation, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-1"})

	require.NoError(t, err)
	assert.Equal(t, "PAY-CAPTURE-1", activation.TransactionID)
	assert.Equal(t, member.MethodPayPal, activation.Method)
	assert.Equal(t, captureTime.AddDate(0, 0, 30), activation.ExpirationDate)

	// The account is promoted to the paid role and carries the record.
	updated, err := users.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{role.User}, updated.RoleNames())
	require.NotNil(t, updated.Subscription)
	assert.Equal(t, "2024-01-01", updated.Subscription.PaymentDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-31", updated.Subscription.ExpirationDate.Format("2006-01-02"))
}

func TestActivateFromPayPalIncompleteCapture(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	paypal := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "PAY-CAPTURE-1",
		Status:        "PENDING",
	}}
	activator := newTestActivator(users, paypal, nil)

	_, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-1"})

	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_ERROR", apperr.As(err).Code)

	// No mutation happened.
	unchanged, _ := users.FindByID(context.Background(), "u1")
	assert.Nil(t, unchanged.Subscription)
	assert.Equal(t, []string{role.Guest}, unchanged.RoleNames())
}

func TestActivateRejectsIncompleteProviderPayload(t *testing.T) {
	testCases := []struct {
		name   string
		result *payments.CaptureResult
	}{
		{
			name: "missing payer email",
			result: &payments.CaptureResult{
				TransactionID: "PAY-CAPTURE-1",
				Status:        "COMPLETED",
				CaptureTime:   frozenNow,
			},
		},
		{
			name: "missing capture time",
			result: &payments.CaptureResult{
				TransactionID: "PAY-CAPTURE-1",
				PayerEmail:    "ana@lienzo.test",
				Status:        "COMPLETED",
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
			paypal := &fakeVerifier{result: testCase.result}
			activator := newTestActivator(users, paypal, nil)

			_, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-1"})

			require.Error(t, err)
			assert.Equal(t, "UPSTREAM_ERROR", apperr.As(err).Code)

			// The incomplete payload must not buy any access.
			unchanged, _ := users.FindByID(context.Background(), "u1")
			assert.Nil(t, unchanged.Subscription)
			assert.Equal(t, []string{role.Guest}, unchanged.RoleNames())
		})
	}
}

func TestActivateFromMercadoPago(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	mercadopago := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "58392017465",
		PayerEmail:    "ana@lienzo.test",
		Status:        "APPROVED",
		CaptureTime:   frozenNow,
	}}
	activator := newTestActivator(users, nil, mercadopago)

	activation, err := activator.Activate(context.Background(), MercadoPagoCapture{UserID: "u1", PaymentID: "58392017465"})

	require.NoError(t, err)
	assert.Equal(t, member.MethodMercadoPago, activation.Method)
	assert.Equal(t, frozenNow.AddDate(0, 0, 30), activation.ExpirationDate)
}

func TestActivateDuplicateSubscriptionConflicts(t *testing.T) {
	active := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, 10))
	users := newFakeUserRepository(active)
	paypal := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "PAY-SECOND",
		PayerEmail:    "ana@lienzo.test",
		Status:        "COMPLETED",
		CaptureTime:   frozenNow,
	}}
	activator := newTestActivator(users, paypal, nil)

	_, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-2"})

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// The original paid window is untouched.
	unchanged, _ := users.FindByID(context.Background(), "u1")
	assert.Equal(t, "PAY-u1", unchanged.Subscription.TransactionID)
}

func TestActivateExpiredSubscriptionCanRenew(t *testing.T) {
	expired := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, -5))
	users := newFakeUserRepository(expired)
	paypal := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "PAY-RENEWAL",
		PayerEmail:    "ana@lienzo.test",
		Status:        "COMPLETED",
		CaptureTime:   frozenNow,
	}}
	activator := newTestActivator(users, paypal, nil)

	activation, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-3"})

	require.NoError(t, err)
	assert.Equal(t, "PAY-RENEWAL", activation.TransactionID)
}

func TestActivateFromCoupon(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	activator := newTestActivator(users, nil, nil)

	activation, err := activator.Activate(context.Background(), Coupon{UserID: "u1", Code: testCoupon})

	require.NoError(t, err)
	assert.Equal(t, member.MethodCoupon, activation.Method)
	assert.Equal(t, testCoupon, activation.TransactionID)
	assert.Equal(t, couponExpiration, activation.ExpirationDate)

	updated, _ := users.FindByID(context.Background(), "u1")
	assert.True(t, updated.CouponUsed)
	assert.Equal(t, []string{role.User}, updated.RoleNames())
}

func TestActivateFromCouponRejections(t *testing.T) {
	testCases := []struct {
		name     string
		seed     *member.User
		code     string
		wantCode string
	}{
		{
			name:     "wrong code",
			seed:     newGuestUser("u1", "ana@lienzo.test"),
			code:     "NOT-A-CODE",
			wantCode: "VALIDATION_ERROR",
		},
		{
			name: "second redemption",
			seed: func() *member.User {
				u := newGuestUser("u1", "ana@lienzo.test")
				u.CouponUsed = true
				return u
			}(),
			code:     testCoupon,
			wantCode: "CONFLICT",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			users := newFakeUserRepository(testCase.seed)
			activator := newTestActivator(users, nil, nil)

			_, err := activator.Activate(context.Background(), Coupon{UserID: "u1", Code: testCase.code})

			require.Error(t, err)
			assert.Equal(t, testCase.wantCode, apperr.As(err).Code)
		})
	}
}

func TestActivateFromAdminExtend(t *testing.T) {
	active := newPaidUser("u1", "ana@lienzo.test", frozenNow.AddDate(0, 0, 10))
	users := newFakeUserRepository(active)
	activator := newTestActivator(users, nil, nil)

	activation, err := activator.Activate(context.Background(), AdminOverride{
		Email:      "ana@lienzo.test",
		ExtendDays: 30,
	})

	require.NoError(t, err)

	// Extension stacks on the remaining active window.
	assert.Equal(t, frozenNow.AddDate(0, 0, 40), activation.ExpirationDate)

	// The original payment trail is preserved.
	assert.Equal(t, "PAY-u1", activation.TransactionID)
	require.NotNil(t, activation.Before)
	assert.Equal(t, frozenNow.AddDate(0, 0, 10), activation.Before.ExpirationDate)
}

func TestActivateFromAdminCreatesPlaceholderRecord(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	activator := newTestActivator(users, nil, nil)

	activation, err := activator.Activate(context.Background(), AdminOverride{
		Email:      "ana@lienzo.test",
		ExtendDays: 30,
	})

	require.NoError(t, err)
	assert.Equal(t, "UPDATE_BY_ADMIN_2024", activation.TransactionID)
	assert.Nil(t, activation.Before)

	updated, _ := users.FindByID(context.Background(), "u1")
	assert.Equal(t, []string{role.User}, updated.RoleNames())
}

func TestActivateFromAdminExplicitDate(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	activator := newTestActivator(users, nil, nil)

	target := frozenNow.AddDate(0, 6, 0)
	activation, err := activator.Activate(context.Background(), AdminOverride{
		Email:          "ana@lienzo.test",
		ExpirationDate: target,
	})

	require.NoError(t, err)
	assert.Equal(t, target, activation.ExpirationDate)
}

func TestActivateFromAdminRejectsPastDate(t *testing.T) {
	users := newFakeUserRepository(newGuestUser("u1", "ana@lienzo.test"))
	activator := newTestActivator(users, nil, nil)

	_, err := activator.Activate(context.Background(), AdminOverride{
		Email:          "ana@lienzo.test",
		ExpirationDate: frozenNow.AddDate(0, 0, -1),
	})

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperr.As(err).Code)

	unchanged, _ := users.FindByID(context.Background(), "u1")
	assert.Nil(t, unchanged.Subscription)
}

func TestActivateFromAdminPreservesStaffRoles(t *testing.T) {
	staff := newGuestUser("u1", "ana@lienzo.test")
	staff.Roles = []role.Role{adminRole}
	users := newFakeUserRepository(staff)
	activator := newTestActivator(users, nil, nil)

	_, err := activator.Activate(context.Background(), AdminOverride{
		Email:      "ana@lienzo.test",
		ExtendDays: 30,
	})

	require.NoError(t, err)
	updated, _ := users.FindByID(context.Background(), "u1")
	assert.Equal(t, []string{role.Admin}, updated.RoleNames())
}

func TestActivateFromProviderPreservesStaffRoles(t *testing.T) {
	staff := newGuestUser("u1", "ana@lienzo.test")
	staff.Roles = []role.Role{adminRole}
	users := newFakeUserRepository(staff)
	paypal := &fakeVerifier{result: &payments.CaptureResult{
		TransactionID: "PAY-STAFF",
		PayerEmail:    "ana@lienzo.test",
		Status:        "COMPLETED",
		CaptureTime:   frozenNow,
	}}
	activator := newTestActivator(users, paypal, nil)

	_, err := activator.Activate(context.Background(), PayPalCapture{UserID: "u1", OrderID: "ORDER-1"})

	require.NoError(t, err)
	updated, _ := users.FindByID(context.Background(), "u1")
	assert.Equal(t, []string{role.Admin}, updated.RoleNames())
	require.NotNil(t, updated.Subscription)
}

func TestActivateUnknownUser(t *testing.T) {
	activator := newTestActivator(newFakeUserRepository(), nil, nil)

	_, err := activator.Activate(context.Background(), Coupon{UserID: "ghost", Code: testCoupon})

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
