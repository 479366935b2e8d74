// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

/*
Package payments contains thin verification clients for the payment
providers behind subscription activation.

The web client completes the checkout flow against the provider directly;
the API's only job is to re-fetch the payment by ID from the provider and
confirm it is real and completed before granting access. No amounts or
payment instruments are handled here.

Environments:

Both providers run against sandbox or production hosts depending on
configuration. The selection happens once at startup via [NewEnvironment];
the clients never branch on environment afterwards.
*/
package payments

import (
	stdctx "context"
	"net/http"
	"time"
)

// CaptureResult is the provider-agnostic view of a verified payment.
type CaptureResult struct {
	// TransactionID is the provider's unique identifier for this payment.
	TransactionID string

	// PayerEmail is the email the payer used at the provider. A payment
	// whose payload omits it is treated as incomplete and never activates.
	PayerEmail string

	// Status is the provider's payment status, normalized to upper case.
	Status string

	// CaptureTime is when the provider captured the payment.
	CaptureTime time.Time
}

// Completed reports whether the provider considers the payment final.
func (r CaptureResult) Completed() bool {
	return r.Status == "COMPLETED" || r.Status == "APPROVED"
}

// Environment holds the provider base URLs for the configured deployment.
type Environment struct {
	PayPalBaseURL      string
	MercadoPagoBaseURL string
}

// NewEnvironment selects provider hosts. Sandbox is the default everywhere
// except production deployments.
func NewEnvironment(sandbox bool) Environment {
	if sandbox {
		return Environment{
			PayPalBaseURL:      "https://api-m.sandbox.paypal.com",
			MercadoPagoBaseURL: "https://api.mercadopago.com",
		}
	}
	return Environment{
		PayPalBaseURL:      "https://api-m.paypal.com",
		MercadoPagoBaseURL: "https://api.mercadopago.com",
	}
}

// Verifier re-fetches a payment from its provider and returns the verified
// capture details. Implemented by [PayPalClient] and [MercadoPagoClient].
type Verifier interface {
	Verify(context stdctx.Context, paymentID string) (*CaptureResult, error)
}

// httpTimeout bounds every provider round trip.
const httpTimeout = 10 * time.Second

// newHTTPClient returns the shared client configuration for provider calls.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
