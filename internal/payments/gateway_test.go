package payments

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializePayment(t *testing.T) {
	var got initializeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"data": {
				"authorization_url": "https://pay.example/abc",
				"access_code": "abc",
				"reference": "TRX-00042"
			}
		}`))
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, "sk_test_123", time.Second, testLogger())
	auth, err := g.InitializePayment(context.Background(), InitializeInput{
		Amount:      1250.5,
		Reference:   "TRX-00042",
		CustomerRef: "08030000001",
	})
	require.NoError(t, err)

	// Amounts travel in subunits.
	require.Equal(t, int64(125050), got.AmountSubunits)
	require.Equal(t, "TRX-00042", got.Reference)
	require.Equal(t, "https://pay.example/abc", auth.CheckoutURL)
	require.Equal(t, "TRX-00042", auth.Reference)
}

func TestInitializePaymentDeclined(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status": false, "message": "invalid amount"}`))
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, "sk_test_123", time.Second, testLogger())
	_, err := g.InitializePayment(context.Background(), InitializeInput{Amount: 0, Reference: "TRX-1"})
	require.ErrorIs(t, err, ErrPaymentDeclined)
	require.Contains(t, err.Error(), "invalid amount")
}

func TestInitializePaymentGatewayDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	g := NewHTTPGateway(server.URL, "sk_test_123", time.Second, testLogger())
	_, err := g.InitializePayment(context.Background(), InitializeInput{Amount: 10, Reference: "TRX-2"})
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}
