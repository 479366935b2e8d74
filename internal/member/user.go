// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package member defines the account aggregate of the membership system.

An account carries an ordered list of role references, an optional per-user
permission override, and at most one subscription record. The subscription
is a value object embedded in the account: activation writes it atomically,
and expiration handling swaps the account's paid role reference back to the
free tier without ever touching the role rows themselves.

Subscription States (derived, never stored):

  - Activa: the expiration date is in the future.
  - Por expirar: active, but seven days or fewer remain.
  - Expirada: the expiration date has passed.
*/
package member

import (
	"strings"
	"time"

	"github.com/dmorales-dev/lienzo/internal/role"
)

// Payment methods recorded on a subscription.
const (
	MethodPayPal      = "paypal"
	MethodMercadoPago = "mercadopago"
	MethodCoupon      = "coupon"
	MethodAdmin       = "admin"
)

// Subscription status labels shown to members.
const (
	StatusActive   = "Activa"
	StatusExpiring = "Por expirar"
	StatusExpired  = "Expirada"
)

// expiringThreshold is the remaining-time window that flips an active
// subscription to the "Por expirar" label.
const expiringThreshold = 7 * 24 * time.Hour

// Subscription is the payment record attached to an account.
//
// It is immutable once written: renewals and admin extensions replace the
// whole record rather than patching fields.
type Subscription struct {
	// TransactionID is the provider's capture/payment identifier, the coupon
	// code, or an admin placeholder. It is unique across all accounts.
	TransactionID string `json:"transactionId"`

	// PaymentDate is when the payment was captured (or the grant applied).
	PaymentDate time.Time `json:"paymentDate"`

	// ExpirationDate is when paid access ends.
	ExpirationDate time.Time `json:"expirationDate"`

	// Method is the payment channel. Legacy rows may have it empty, in which
	// case [Subscription.PaymentMethod] infers it from the transaction ID.
	Method string `json:"method,omitempty"`
}

// IsActive reports whether the subscription grants access at the given time.
func (s *Subscription) IsActive(now time.Time) bool {
	return s != nil && now.Before(s.ExpirationDate)
}

// DaysRemaining returns whole days of access left, never negative.
func (s *Subscription) DaysRemaining(now time.Time) int {
	if s == nil {
		return 0
	}
	remaining := s.ExpirationDate.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// DaysSincePayment returns whole days elapsed since the payment date,
// never negative.
func (s *Subscription) DaysSincePayment(now time.Time) int {
	if s == nil {
		return 0
	}
	elapsed := now.Sub(s.PaymentDate)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed.Hours() / 24)
}

// StatusLabel derives the member-facing status string.
func (s *Subscription) StatusLabel(now time.Time) string {
	if !s.IsActive(now) {
		return StatusExpired
	}
	if s.ExpirationDate.Sub(now) <= expiringThreshold {
		return StatusExpiring
	}
	return StatusActive
}

// PaymentMethod returns the stored method, falling back to inference from
// the transaction ID shape for rows written before the method column
// existed.
func (s *Subscription) PaymentMethod(couponCode string) string {
	if s == nil {
		return ""
	}
	if s.Method != "" {
		return s.Method
	}

	switch {
	case strings.HasPrefix(s.TransactionID, "PAY-"):
		return MethodPayPal
	case couponCode != "" && s.TransactionID == couponCode:
		return MethodCoupon
	case strings.HasPrefix(s.TransactionID, "UPDATE_BY_ADMIN"):
		return MethodAdmin
	default:
		return MethodMercadoPago
	}
}

// User is the account aggregate.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`

	// Roles is the ordered list of role references held by the account.
	// The first entry is the account's active tier.
	Roles []role.Role `json:"roles"`

	// Permissions is the per-user override. When non-empty it fully replaces
	// the merged role permissions during authorization.
	Permissions []string `json:"permissions,omitempty"`

	// CouponUsed records whether the one-time promotional coupon was ever
	// redeemed by this account. It is never reset.
	CouponUsed bool `json:"couponUsed"`

	// Subscription is the current payment record, nil for free-tier accounts
	// that never subscribed.
	Subscription *Subscription `json:"subscription,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActiveRole returns the account's primary role. Accounts always hold at
// least one role; an empty slice yields a zero Role as a safety net.
func (u *User) ActiveRole() role.Role {
	if len(u.Roles) == 0 {
		return role.Role{}
	}
	return u.Roles[0]
}

// HasRole reports whether the account holds a role with the given name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// IsStaff reports whether any held role is an administrative tier. Staff
// accounts are exempt from subscription downgrades.
func (u *User) IsStaff() bool {
	for _, r := range u.Roles {
		if r.IsStaff() {
			return true
		}
	}
	return false
}

// RoleNames returns the names of all held roles in order.
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = r.Name
	}
	return names
}

// HasActiveSubscription reports whether the account has paid access now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.Subscription.IsActive(now)
}
