// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package subscription

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmorales-dev/lienzo/internal/member"
	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
	requestutil "github.com/dmorales-dev/lienzo/internal/platform/request"
	"github.com/dmorales-dev/lienzo/internal/platform/respond"
	"github.com/dmorales-dev/lienzo/internal/platform/validate"
)

// adminExtendDays is the window added by POST /subscriptions/admin/extend.
const adminExtendDays = 30

// Handler exposes the subscription endpoints.
type Handler struct {
	activator  *Activator
	users      member.UserRepository
	couponCode string
}

// NewHandler creates the subscription HTTP handler.
func NewHandler(activator *Activator, users member.UserRepository, couponCode string) *Handler {
	return &Handler{activator: activator, users: users, couponCode: couponCode}
}

// RegisterRoutes mounts the member-facing subscription endpoints. The
// provider capture routes identify the member through the checkout state
// parameter because provider redirects carry no Authorization header.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/paypal/capture", handler.capturePayPal)
	router.Get("/mercadopago/capture", handler.captureMercadoPago)
	router.Post("/coupon", handler.redeemCoupon)
	router.Get("/me", handler.me)
}

// RegisterAdminRoutes mounts the staff-only subscription endpoints. The
// caller wraps this group in admin role middleware.
func (handler *Handler) RegisterAdminRoutes(router chi.Router) {
	router.Post("/extend", handler.adminExtend)
	router.Post("/expiration", handler.adminExpiration)
}

// capturePayPal handles GET /api/v1/subscriptions/paypal/capture
//
// Query: token (PayPal order ID), state (our member ID from checkout start).
func (handler *Handler) capturePayPal(writer http.ResponseWriter, request *http.Request) {
	orderID := request.URL.Query().Get("token")
	userID := request.URL.Query().Get("state")

	v := &validate.Validator{}
	v.Required("token", orderID)
	v.Required("state", userID).UUID("state", userID)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	activation, err := handler.activator.Activate(request.Context(), PayPalCapture{
		UserID:  userID,
		OrderID: orderID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activation)
}

// captureMercadoPago handles GET /api/v1/subscriptions/mercadopago/capture
//
// Query: payment_id, status, state (our member ID). Only status=approved
// proceeds to provider verification; everything else is rejected up front.
func (handler *Handler) captureMercadoPago(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	paymentID := query.Get("payment_id")
	status := strings.ToLower(query.Get("status"))
	userID := query.Get("state")

	v := &validate.Validator{}
	v.Required("payment_id", paymentID)
	v.Required("state", userID).UUID("state", userID)
	v.OneOf("status", status, "approved")
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	activation, err := handler.activator.Activate(request.Context(), MercadoPagoCapture{
		UserID:    userID,
		PaymentID: paymentID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activation)
}

type redeemCouponRequest struct {
	Coupon string `json:"coupon"`
}

// redeemCoupon handles POST /api/v1/subscriptions/coupon
func (handler *Handler) redeemCoupon(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload redeemCouponRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	activation, err := handler.activator.Activate(request.Context(), Coupon{
		UserID: userID,
		Code:   strings.TrimSpace(payload.Coupon),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activation)
}

// membershipStatus is the member-facing view of their subscription.
type membershipStatus struct {
	Status           string     `json:"status"`
	DaysRemaining    int        `json:"daysRemaining"`
	DaysSincePayment int        `json:"daysSincePayment"`
	PaymentMethod    string     `json:"paymentMethod,omitempty"`
	ExpirationDate   *time.Time `json:"expirationDate,omitempty"`
}

// me handles GET /api/v1/subscriptions/me
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.users.FindByID(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	now := time.Now()
	status := membershipStatus{
		Status:           member.StatusExpired,
		DaysRemaining:    user.Subscription.DaysRemaining(now),
		DaysSincePayment: user.Subscription.DaysSincePayment(now),
		PaymentMethod:    user.Subscription.PaymentMethod(handler.couponCode),
	}
	if user.Subscription != nil {
		status.Status = user.Subscription.StatusLabel(now)
		expiration := user.Subscription.ExpirationDate
		status.ExpirationDate = &expiration
	}

	respond.OK(writer, status)
}

type adminExtendRequest struct {
	Email string `json:"email"`
}

// adminExtend handles POST /api/v1/subscriptions/admin/extend
func (handler *Handler) adminExtend(writer http.ResponseWriter, request *http.Request) {
	var payload adminExtendRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required("email", payload.Email).Email("email", payload.Email)
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	activation, err := handler.activator.Activate(request.Context(), AdminOverride{
		Email:      payload.Email,
		ExtendDays: adminExtendDays,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activation)
}

type adminExpirationRequest struct {
	Email          string `json:"email"`
	ExpirationDate string `json:"expirationDate"`
}

// adminExpiration handles POST /api/v1/subscriptions/admin/expiration
func (handler *Handler) adminExpiration(writer http.ResponseWriter, request *http.Request) {
	var payload adminExpirationRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Past or present dates are rejected before anything is written.
	v := &validate.Validator{}
	v.Required("email", payload.Email).Email("email", payload.Email)
	v.Required("expirationDate", payload.ExpirationDate).
		Date("expirationDate", payload.ExpirationDate).
		FutureDate("expirationDate", payload.ExpirationDate, time.Now())
	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	expiration, err := time.Parse(validate.DateLayout, payload.ExpirationDate)
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("Invalid expiration date"))
		return
	}
	// Grant the whole final day.
	expiration = expiration.Add(24*time.Hour - time.Second)

	activation, err := handler.activator.Activate(request.Context(), AdminOverride{
		Email:          payload.Email,
		ExpirationDate: expiration,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, activation)
}
