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

func newMercadoPagoTestServer(t *testing.T, paymentJSON string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/payments/", func(writer http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(writer, paymentJSON)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestMercadoPagoVerify(t *testing.T) {
	server := newMercadoPagoTestServer(t, `{
		"id": 58392017465,
		"status": "approved",
		"date_approved": "2024-01-01T10:00:00Z",
		"payer": {"email": "ana@lienzo.test"}
	}`)
	client := NewMercadoPagoClient(Environment{MercadoPagoBaseURL: server.URL}, "access-token")

	result, err := client.Verify(context.Background(), "58392017465")

	require.NoError(t, err)
	assert.Equal(t, "58392017465", result.TransactionID)
	assert.Equal(t, "APPROVED", result.Status)
	assert.Equal(t, time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC), result.CaptureTime)
	assert.True(t, result.Completed())
}

func TestMercadoPagoVerifyRejectsIncompletePayloads(t *testing.T) {
	testCases := []struct {
		name        string
		paymentJSON string
	}{
		{
			name:        "missing id",
			paymentJSON: `{"status": "approved"}`,
		},
		{
			name:        "missing payer email",
			paymentJSON: `{"id": 58392017465, "status": "approved", "date_approved": "2024-01-01T10:00:00Z"}`,
		},
		{
			name:        "missing approval date",
			paymentJSON: `{"id": 58392017465, "status": "approved", "payer": {"email": "ana@lienzo.test"}}`,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			server := newMercadoPagoTestServer(t, testCase.paymentJSON)
			client := NewMercadoPagoClient(Environment{MercadoPagoBaseURL: server.URL}, "access-token")

			_, err := client.Verify(context.Background(), "58392017465")

			require.Error(t, err)
			assert.Equal(t, "UPSTREAM_ERROR", apperr.As(err).Code)
		})
	}
}
