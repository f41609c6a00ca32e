package paymentprovider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quick-stock/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Payment{
		APIURL:    srv.URL + "/v1/",
		SecretKey: "sk_test",
		Timeout:   time.Second,
	})
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[]"))
		assert.Equal(t, "owner@shop.com", r.PostForm.Get("metadata[owner_email]"))
		assert.Equal(t, "basic", r.PostForm.Get("metadata[tier]"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Intent{
			ID: "pi_1", Status: StatusRequiresPayment, Amount: 1999, Currency: "usd", ClientSecret: "pi_1_secret",
		})
	})

	intent, err := client.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		AmountMinor:    1999,
		Currency:       "usd",
		Metadata:       map[string]string{"owner_email": "owner@shop.com", "tier": "basic"},
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret", intent.ClientSecret)
}

func TestClient_GetPaymentIntent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Intent{ID: "pi_7", Status: StatusSucceeded})
	})

	intent, err := client.GetPaymentIntent(context.Background(), "pi_7")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, intent.Status)
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"type":"card_error","message":"Your card was declined."}}`))
	})

	_, err := client.GetPaymentIntent(context.Background(), "pi_1")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, "Your card was declined.", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(config.Payment{APIURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.GetPaymentIntent(context.Background(), "pi_1")
	assert.Error(t, err)
}
