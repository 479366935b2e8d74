// Copyright (c) 2026 Lienzo Studio. All rights reserved.
// Author: d.morales.v@gmail.com

package payments

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales-dev/lienzo/internal/platform/apperr"
)

// newPayPalTestServer serves a canned token plus the given order response.
func newPayPalTestServer(t *testing.T, orderStatus int, orderJSON string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(writer http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(writer, `{"access_token":"test-token","expires_in":3600}`)
	})
	mux.HandleFunc("/v2/checkout/orders/", func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(orderStatus)
		fmt.Fprint(writer, orderJSON)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestPayPalVerify(t *testing.T) {
	server := newPayPalTestServer(t, http.StatusOK, `{
		"id": "ORDER-1",
		"status": "COMPLETED",
		"payer": {"email_address": "ana@lienzo.test"},
		"purchase_units": [{"payments": {"captures": [
			{"id": "PAY-CAPTURE-1", "status": "completed", "create_time": "2024-01-01T10:00:00Z"}
		]}}]
	}`)
	client := NewPayPalClient(Environment{PayPalBaseURL: server.URL}, "client-id", "client-secret")

	result, err := client.Verify(context.Background(), "ORDER-1")

	require.NoError(t, err)
	assert.Equal(t, "PAY-CAPTURE-1", result.TransactionID)
	assert.Equal(t, "ana@lienzo.test", result.PayerEmail)
	assert.Equal(t, "COMPLETED", result.Status)
	assert.Equal(t, time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), result.CaptureTime)
	assert.True(t, result.Completed())
}

func TestPayPalVerifyRejectsIncompletePayloads(t *testing.T) {
	testCases := []struct {
		name      string
		orderJSON string
	}{
		{
			name:      "no captures",
			orderJSON: `{"id": "ORDER-1", "status": "COMPLETED", "purchase_units": [{"payments": {"captures": []}}]}`,
		},
		{
			name: "missing payer email",
			orderJSON: `{
				"id": "ORDER-1",
				"status": "COMPLETED",
				"purchase_units": [{"payments": {"captures": [
					{"id": "PAY-CAPTURE-1", "status": "COMPLETED", "create_time": "2024-01-01T10:00:00Z"}
				]}}]
			}`,
		},
		{
			name: "missing capture timestamp",
			orderJSON: `{
				"id": "ORDER-1",
				"status": "COMPLETED",
				"payer": {"email_address": "ana@lienzo.test"},
				"purchase_units": [{"payments": {"captures": [
					{"id": "PAY-CAPTURE-1", "status": "COMPLETED"}
				]}}]
			}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newPayPalTestServer(t, http.StatusOK, testCase.orderJSON)
			client := NewPayPalClient(Environment{PayPalBaseURL: server.URL}, "client-id", "client-secret")

			_, err := client.Verify(context.Background(), "ORDER-1")

			require.Error(t, err)
			assert.Equal(t, "UPSTREAM_ERROR", apperr.As(err).Code)
		})
	}
}

func TestPayPalVerifyUnknownOrder(t *testing.T) {
	server := newPayPalTestServer(t, http.StatusNotFound, `{}`)
	client := NewPayPalClient(Environment{PayPalBaseURL: server.URL}, "client-id", "client-secret")

	_, err := client.Verify(context.Background(), "ORDER-MISSING")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}
