// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package subscription implements the paid-membership lifecycle.

Three components cooperate around the account aggregate:

  - Activator: the single entry point for granting paid access. Every path
    (PayPal, Mercado Pago, coupon, admin) is a typed activation source fed
    into the same Activate call, so duplicate prevention, role promotion and
    audit logging exist exactly once.
  - Guard: HTTP middleware that lazily downgrades expired members on their
    next authenticated request. It decides, persists, and always lets the
    request continue.
  - Sweeper: a daily background pass that downgrades expired members who
    never came back, keeping the role table honest for reporting.

Downgrading never mutates role rows: the account's reference to the paid
role is swapped for a reference to the guest role.
*/
package subscription

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/payments"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	"github.com/dmorales-dev/lienzo/internal/platform/metrics"
	"github.com/dmorales-dev/lienzo/internal/role"
)

// providerAccessDuration is the paid window granted per provider payment.
const providerAccessDuration = 30 * 24 * time.Hour

// couponExpiration is the fixed end date of the promotional campaign. Every
// coupon redemption expires at this instant regardless of redemption date.
var couponExpiration = time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC)

// Source is a typed activation request. Exactly one concrete type exists
// per activation path; the unexported marker keeps the set closed.
type Source interface {
	sourceName() string
}

// PayPalCapture activates from an approved PayPal order.
type PayPalCapture struct {
	UserID  string
	OrderID string
}

// MercadoPagoCapture activates from an approved Mercado Pago payment.
type MercadoPagoCapture struct {
	UserID    string
	PaymentID string
}

// Coupon activates from a promotional coupon code.
type Coupon struct {
	UserID string
	Code   string
}

// AdminOverride activates or extends a membership on behalf of a member.
// Exactly one of ExpirationDate or ExtendDays must be set.
type AdminOverride struct {
	Email          string
	ExpirationDate time.Time
	ExtendDays     int
}

func (PayPalCapture) sourceName() string      { return "paypal" }
func (MercadoPagoCapture) sourceName() string { return "mercadopago" }
func (Coupon) sourceName() string             { return "coupon" }
func (AdminOverride) sourceName() string      { return "admin" }

// Activation reports what an Activate call did.
type Activation struct {
	UserID         string               `json:"userId"`
	Email          string               `json:"email"`
	Method         string               `json:"method"`
	TransactionID  string               `json:"transactionId"`
	ExpirationDate time.Time            `json:"expirationDate"`
	Before         *member.Subscription `json:"before,omitempty"`
	After          *member.Subscription `json:"after"`
}

// Activator grants paid access. It is the only component allowed to write
// subscription records.
type Activator struct {
	users       member.UserRepository
	roles       role.Repository
	paypal      payments.Verifier
	mercadopago payments.Verifier
	couponCode  string
	logger      *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewActivator creates the subscription activator.
func NewActivator(
	users member.UserRepository,
	roles role.Repository,
	paypal payments.Verifier,
	mercadopago payments.Verifier,
	couponCode string,
	logger *slog.Logger,
) *Activator {
	return &Activator{
		users:       users,
		roles:       roles,
		paypal:      paypal,
		mercadopago: mercadopago,
		couponCode:  couponCode,
		logger:      logger,
		now:         time.Now,
	}
}

/*
Activate grants paid access from the given source.

# Description
Dispatches on the concrete source type, verifies the payment where a
provider is involved, writes the subscription record, promotes the account
to the paid role, and emits one audit log line. Duplicate activations are
rejected with 409 by a conditional database write, so concurrent callbacks
for the same account cannot stack paid windows.

# Parameters
  - context: Request context.
  - source: One of [PayPalCapture], [MercadoPagoCapture], [Coupon], [AdminOverride].

# Returns
  - *Activation: What was granted, including before/after for admin paths.
  - error: Validation, conflict, upstream or storage error.
*/
func (activator *Activator) Activate(context stdctx.Context, source Source) (*Activation, error) {
	activation, err := activator.dispatch(context, source)

	outcome := "success"
	if err != nil {
		outcome = "failure"
		if appError := apperr.As(err); appError != nil && appError.Code == "CONFLICT" {
			outcome = "duplicate"
		}
	}
	metrics.SubscriptionActivations.WithLabelValues(source.sourceName(), outcome).Inc()

	if err != nil {
		return nil, err
	}

	// One audit line per successful activation, same shape for every path.
	activator.logger.InfoContext(context, "subscription_activated",
		slog.String("user_id", activation.UserID),
		slog.String("email", activation.Email),
		slog.String("method", activation.Method),
		slog.String("transaction_id", activation.TransactionID),
		slog.Time("expiration_date", activation.ExpirationDate),
	)

	return activation, nil
}

func (activator *Activator) dispatch(context stdctx.Context, source Source) (*Activation, error) {
	switch s := source.(type) {
	case PayPalCapture:
		return activator.activateFromProvider(context, s.UserID, activator.paypal, "PayPal", s.OrderID, member.MethodPayPal)
	case MercadoPagoCapture:
		return activator.activateFromProvider(context, s.UserID, activator.mercadopago, "Mercado Pago", s.PaymentID, member.MethodMercadoPago)
	case Coupon:
		return activator.activateFromCoupon(context, s)
	case AdminOverride:
		return activator.activateFromAdmin(context, s)
	default:
		return nil, apperr.Internal(fmt.Errorf("subscription: unknown activation source %T", source))
	}
}

// activateFromProvider handles both payment providers: verify the payment,
// require a completed status, then grant 30 days from the capture time.
func (activator *Activator) activateFromProvider(
	context stdctx.Context,
	userID string,
	verifier payments.Verifier,
	providerName string,
	paymentID string,
	method string,
) (*Activation, error) {
	if verifier == nil {
		return nil, apperr.ServiceUnavailable(providerName + " payments are not configured")
	}
	if strings.TrimSpace(paymentID) == "" {
		return nil, apperr.ValidationError("Missing payment identifier")
	}

	user, err := activator.users.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// 1. Re-fetch the payment from the provider
	capture, err := verifier.Verify(context, paymentID)
	if err != nil {
		return nil, err
	}
	if !capture.Completed() {
		return nil, apperr.Upstream(providerName, fmt.Errorf("payment %s has status %s", paymentID, capture.Status))
	}

	// A completed payment without a payer email or capture time is an
	// incomplete provider payload. Activating from it would fabricate the
	// paid window, so the caller has to re-drive the checkout instead.
	if capture.PayerEmail == "" || capture.CaptureTime.IsZero() {
		return nil, apperr.Upstream(providerName, fmt.Errorf("payment %s payload is missing payer email or capture time", paymentID))
	}

	// 2. Build the subscription record: 30 days from the capture
	sub := member.Subscription{
		TransactionID:  capture.TransactionID,
		PaymentDate:    capture.CaptureTime,
		ExpirationDate: capture.CaptureTime.Add(providerAccessDuration),
		Method:         method,
	}

	return activator.grant(context, user, sub)
}

// activateFromCoupon validates the code and grants access until the fixed
// campaign end date. Each account may redeem the coupon once, ever.
func (activator *Activator) activateFromCoupon(context stdctx.Context, source Coupon) (*Activation, error) {
	if activator.couponCode == "" || source.Code != activator.couponCode {
		return nil, apperr.ValidationError("Invalid coupon code")
	}

	user, err := activator.users.FindByID(context, source.UserID)
	if err != nil {
		return nil, err
	}
	if user.CouponUsed {
		return nil, apperr.Conflict("Coupon has already been redeemed")
	}

	now := activator.now()
	if !now.Before(couponExpiration) {
		return nil, apperr.ValidationError("The coupon campaign has ended")
	}

	sub := member.Subscription{
		TransactionID:  source.Code,
		PaymentDate:    now,
		ExpirationDate: couponExpiration,
		Method:         member.MethodCoupon,
	}

	activation, err := activator.grant(context, user, sub)
	if err != nil {
		return nil, err
	}

	// The grant's conditional write already lost any race, so flipping the
	// flag afterwards cannot double-redeem.
	if err := activator.users.MarkCouponUsed(context, user.ID); err != nil {
		activator.logger.ErrorContext(context, "coupon_flag_update_failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	return activation, nil
}

// activateFromAdmin writes the subscription unconditionally: staff may
// extend, shorten, or create paid windows at will. The response carries the
// previous record so the change is reviewable.
func (activator *Activator) activateFromAdmin(context stdctx.Context, source AdminOverride) (*Activation, error) {
	if source.ExpirationDate.IsZero() && source.ExtendDays == 0 {
		return nil, apperr.ValidationError("Either an expiration date or a number of days is required")
	}

	user, err := activator.users.FindByEmail(context, source.Email)
	if err != nil {
		return nil, err
	}

	now := activator.now()
	before := user.Subscription

	// 1. Resolve the new expiration date
	expiration := source.ExpirationDate
	if expiration.IsZero() {
		base := now
		if before.IsActive(now) {
			base = before.ExpirationDate
		}
		expiration = base.AddDate(0, 0, source.ExtendDays)
	}
	if !expiration.After(now) {
		return nil, apperr.ValidationError("Expiration date must be in the future")
	}

	// 2. Keep the original payment trail when one exists; otherwise record
	//    an explicit admin placeholder.
	sub := member.Subscription{
		TransactionID:  fmt.Sprintf("UPDATE_BY_ADMIN_%d", now.Year()),
		PaymentDate:    now,
		ExpirationDate: expiration,
		Method:         member.MethodAdmin,
	}
	if before != nil {
		sub.TransactionID = before.TransactionID
		sub.PaymentDate = before.PaymentDate
		sub.Method = before.Method
	}

	if err := activator.users.SetSubscription(context, user.ID, sub); err != nil {
		return nil, err
	}

	// 3. Promote to the paid tier unless the account is staff
	if !user.IsStaff() && !user.HasRole(role.User) {
		paidRole, err := activator.roles.FindByName(context, role.User)
		if err != nil {
			return nil, err
		}
		if err := activator.users.ReplaceRoles(context, user.ID, []string{paidRole.ID}); err != nil {
			return nil, err
		}
	}

	after := sub
	return &Activation{
		UserID:         user.ID,
		Email:          user.Email,
		Method:         member.MethodAdmin,
		TransactionID:  sub.TransactionID,
		ExpirationDate: sub.ExpirationDate,
		Before:         before,
		After:          &after,
	}, nil
}

// grant performs the shared conditional write + role promotion. Staff keep
// their existing roles; everyone else is swapped onto the paid role.
func (activator *Activator) grant(context stdctx.Context, user *member.User, sub member.Subscription) (*Activation, error) {
	roleIDs := make([]string, 0, 1)
	if user.IsStaff() {
		for _, held := range user.Roles {
			roleIDs = append(roleIDs, held.ID)
		}
	} else {
		paidRole, err := activator.roles.FindByName(context, role.User)
		if err != nil {
			return nil, err
		}
		roleIDs = append(roleIDs, paidRole.ID)
	}

	if err := activator.users.GrantSubscription(context, user.ID, sub, roleIDs, activator.now()); err != nil {
		return nil, err
	}

	after := sub
	return &Activation{
		UserID:         user.ID,
		Email:          user.Email,
		Method:         sub.Method,
		TransactionID:  sub.TransactionID,
		ExpirationDate: sub.ExpirationDate,
		Before:         user.Subscription,
		After:          &after,
	}, nil
}
