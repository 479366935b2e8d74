// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package payments

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
)

// MercadoPagoClient verifies payments via the Mercado Pago Payments API.
// Authentication is a long-lived bearer token, no OAuth dance required.
type MercadoPagoClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewMercadoPagoClient creates a Mercado Pago verification client.
func NewMercadoPagoClient(env Environment, accessToken string) *MercadoPagoClient {
	return &MercadoPagoClient{
		baseURL:     env.MercadoPagoBaseURL,
		accessToken: accessToken,
		httpClient:  newHTTPClient(),
	}
}

type mercadoPagoPaymentResponse struct {
	ID           int64     `json:"id"`
	Status       string    `json:"status"`
	DateApproved time.Time `json:"date_approved"`
	Payer        struct {
		Email string `json:"email"`
	} `json:"payer"`
}

/*
Verify fetches a Mercado Pago payment by ID and returns its details.

# Parameters
  - context: Request context bounding the provider round trip.
  - paymentID: The numeric payment ID from the checkout redirect.

# Returns
  - *CaptureResult: Verified payment, status normalized ("approved" -> "APPROVED").
  - error: [apperr.Upstream] when the provider response is malformed.
*/
func (client *MercadoPagoClient) Verify(context stdctx.Context, paymentID string) (*CaptureResult, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", client.baseURL, url.PathEscape(paymentID))

	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Upstream("Mercado Pago", err)
	}
	request.Header.Set("Authorization", "Bearer "+client.accessToken)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.Upstream("Mercado Pago", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound("Mercado Pago payment")
	}
	if response.StatusCode != http.StatusOK {
		return nil, apperr.Upstream("Mercado Pago", fmt.Errorf("payment lookup returned status %d", response.StatusCode))
	}

	var payment mercadoPagoPaymentResponse
	if err := json.NewDecoder(response.Body).Decode(&payment); err != nil {
		return nil, apperr.Upstream("Mercado Pago", err)
	}
	if payment.ID == 0 {
		return nil, apperr.Upstream("Mercado Pago", fmt.Errorf("payment response missing id"))
	}
	if payment.Payer.Email == "" {
		return nil, apperr.Upstream("Mercado Pago", fmt.Errorf("payment %d response missing payer email", payment.ID))
	}
	if payment.DateApproved.IsZero() {
		return nil, apperr.Upstream("Mercado Pago", fmt.Errorf("payment %d response missing date_approved", payment.ID))
	}

	return &CaptureResult{
		TransactionID: strconv.FormatInt(payment.ID, 10),
		PayerEmail:    payment.Payer.Email,
		Status:        strings.ToUpper(payment.Status),
		CaptureTime:   payment.DateApproved,
	}, nil
}
