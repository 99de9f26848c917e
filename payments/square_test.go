package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestChargeSuccess(t *testing.T) {
	var gotAuth string
	var gotBody chargeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v2/payments", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"payment":{"id":"pay-abc","status":"COMPLETED"}}`))
	}))
	defer srv.Close()

	g := NewSquareGateway(srv.URL, "secret-token", 5*time.Second, zap.NewNop())

	paymentID, err := g.Charge(context.Background(), 728, "USD", "order-1", "cnon:card-nonce")
	require.NoError(t, err)
	assert.Equal(t, "pay-abc", paymentID)

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "order-1", gotBody.IdempotencyKey)
	assert.Equal(t, "cnon:card-nonce", gotBody.SourceID)
	assert.Equal(t, int64(728), gotBody.AmountMoney.Amount)
	assert.Equal(t, "USD", gotBody.AmountMoney.Currency)
}

func TestChargeDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"errors":[{"code":"CARD_DECLINED","detail":"Card declined."}]}`))
	}))
	defer srv.Close()

	g := NewSquareGateway(srv.URL, "secret-token", 5*time.Second, zap.NewNop())

	_, err := g.Charge(context.Background(), 100, "USD", "order-2", "cnon:bad-card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CARD_DECLINED")
	assert.Contains(t, err.Error(), "Card declined.")
}

func TestChargeMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>gateway timeout</html>"))
	}))
	defer srv.Close()

	g := NewSquareGateway(srv.URL, "secret-token", 5*time.Second, zap.NewNop())

	_, err := g.Charge(context.Background(), 100, "USD", "order-3", "cnon:card")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "square payments response")
}

func TestBuildPOSDeepLink(t *testing.T) {
	link := BuildPOSDeepLink(DeepLinkParams{
		ApplicationID: "sq-app-id",
		AmountCents:   1850,
		CurrencyCode:  "USD",
		OrderNumber:   12,
		CheckoutID:    "checkout-o1-1700000000000",
		CallbackURL:   "http://localhost:3000/cashier",
	})

	require.True(t, strings.HasPrefix(link, "square-commerce-v1://payment/create?data="))

	raw, err := url.QueryUnescape(strings.TrimPrefix(link, "square-commerce-v1://payment/create?data="))
	require.NoError(t, err)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	assert.Equal(t, "sq-app-id", data["client_id"])
	assert.Equal(t, float64(1850), data["amount"])
	assert.Equal(t, "USD", data["currency_code"])
	assert.Equal(t, "Order 12", data["note"])
	assert.Equal(t, "checkout-o1-1700000000000", data["client_transaction_id"])
	assert.Equal(t, "http://localhost:3000/cashier", data["callback_url"])
}
