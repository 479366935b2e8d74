// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package payments

import (
	stdctx "context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
)

// PayPalClient verifies captured PayPal orders via the Orders v2 API.
//
// Access tokens from the client-credentials grant are cached until shortly
// before expiry.
type PayPalClient struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewPayPalClient creates a PayPal verification client.
func NewPayPalClient(env Environment, clientID, secret string) *PayPalClient {
	return &PayPalClient{
		baseURL:    env.PayPalBaseURL,
		clientID:   clientID,
		secret:     secret,
		httpClient: newHTTPClient(),
	}
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type paypalOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID         string    `json:"id"`
				Status     string    `json:"status"`
				CreateTime time.Time `json:"create_time"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

/*
Verify fetches a PayPal order by ID and returns its capture details.

# Parameters
  - context: Request context bounding the provider round trips.
  - orderID: The order token the web client received after approval.

# Returns
  - *CaptureResult: Verified capture with the capture ID as transaction ID.
  - error: [apperr.Upstream] when the provider response is malformed or the
    order has no captures.
*/
func (client *PayPalClient) Verify(context stdctx.Context, orderID string) (*CaptureResult, error) {

	// 1. Obtain (or reuse) an OAuth access token
	token, err := client.token(context)
	if err != nil {
		return nil, err
	}

	// 2. Fetch the order
	endpoint := fmt.Sprintf("%s/v2/checkout/orders/%s", client.baseURL, url.PathEscape(orderID))
	request, err := http.NewRequestWithContext(context, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, apperr.Upstream("PayPal", err)
	}
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, apperr.Upstream("PayPal", err)
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, apperr.NotFound("PayPal order")
	}
	if response.StatusCode != http.StatusOK {
		return nil, apperr.Upstream("PayPal", fmt.Errorf("order lookup returned status %d", response.StatusCode))
	}

	var order paypalOrderResponse
	if err := json.NewDecoder(response.Body).Decode(&order); err != nil {
		return nil, apperr.Upstream("PayPal", err)
	}

	// 3. Extract the capture record
	if len(order.PurchaseUnits) == 0 || len(order.PurchaseUnits[0].Payments.Captures) == 0 {
		return nil, apperr.Upstream("PayPal", fmt.Errorf("order %s has no captures", orderID))
	}
	capture := order.PurchaseUnits[0].Payments.Captures[0]
	if capture.ID == "" {
		return nil, apperr.Upstream("PayPal", fmt.Errorf("order %s capture has no ID", orderID))
	}
	if order.Payer.EmailAddress == "" {
		return nil, apperr.Upstream("PayPal", fmt.Errorf("order %s is missing the payer email", orderID))
	}
	if capture.CreateTime.IsZero() {
		return nil, apperr.Upstream("PayPal", fmt.Errorf("order %s capture is missing its timestamp", orderID))
	}

	return &CaptureResult{
		TransactionID: capture.ID,
		PayerEmail:    order.Payer.EmailAddress,
		Status:        strings.ToUpper(capture.Status),
		CaptureTime:   capture.CreateTime,
	}, nil
}

// token returns a valid OAuth access token, refreshing when needed.
func (client *PayPalClient) token(context stdctx.Context) (string, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.accessToken != "" && time.Now().Before(client.tokenExpiry) {
		return client.accessToken, nil
	}

	body := strings.NewReader("grant_type=client_credentials")
	request, err := http.NewRequestWithContext(context, http.MethodPost, client.baseURL+"/v1/oauth2/token", body)
	if err != nil {
		return "", apperr.Upstream("PayPal", err)
	}
	request.SetBasicAuth(client.clientID, client.secret)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return "", apperr.Upstream("PayPal", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", apperr.Upstream("PayPal", fmt.Errorf("token request returned status %d", response.StatusCode))
	}

	var tokenResponse paypalTokenResponse
	if err := json.NewDecoder(response.Body).Decode(&tokenResponse); err != nil {
		return "", apperr.Upstream("PayPal", err)
	}
	if tokenResponse.AccessToken == "" {
		return "", apperr.Upstream("PayPal", fmt.Errorf("token response missing access_token"))
	}

	// Refresh one minute early to avoid using a token mid-expiry.
	client.accessToken = tokenResponse.AccessToken
	client.tokenExpiry = time.Now().Add(time.Duration(tokenResponse.ExpiresIn)*time.Second - time.Minute)

	return client.accessToken, nil
}
