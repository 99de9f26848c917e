// Package payments talks to the Square card-processing API. The gateway is
// an interface so the order service can be tested against a fake.
package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Gateway charges a tokenized card. Implementations must honor the
// idempotency key: charging twice with the same key must not double-charge.
type Gateway interface {
	Charge(ctx context.Context, amountCents int64, currency, idempotencyKey, sourceToken string) (paymentID string, err error)
}

const (
	SandboxBaseURL    = "https://connect.squareupsandbox.com"
	ProductionBaseURL = "https://connect.squareup.com"
)

// SquareGateway calls Square's Payments API over HTTP with a bounded
// timeout. A timeout is reported as a failure; the order is left unchanged
// and the caller decides whether to retry.
type SquareGateway struct {
	baseURL     string
	accessToken string
	client      *http.Client
	logger      *zap.Logger
}

func NewSquareGateway(baseURL, accessToken string, timeout time.Duration, logger *zap.Logger) *SquareGateway {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SquareGateway{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type chargeRequest struct {
	IdempotencyKey string      `json:"idempotency_key"`
	SourceID       string      `json:"source_id"`
	AmountMoney    amountMoney `json:"amount_money"`
}

type amountMoney struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type chargeResponse struct {
	Payment struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"payment"`
	Errors []struct {
		Code   string `json:"code"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func (g *SquareGateway) Charge(ctx context.Context, amountCents int64, currency, idempotencyKey, sourceToken string) (string, error) {
	body, err := json.Marshal(chargeRequest{
		IdempotencyKey: idempotencyKey,
		SourceID:       sourceToken,
		AmountMoney:    amountMoney{Amount: amountCents, Currency: currency},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v2/payments", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("square payments request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed chargeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("square payments response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.logger.Warn("square charge rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("idempotency_key", idempotencyKey))
		if len(parsed.Errors) > 0 {
			return "", fmt.Errorf("square charge rejected: %s (%s)", parsed.Errors[0].Detail, parsed.Errors[0].Code)
		}
		return "", fmt.Errorf("square charge rejected: status %d", resp.StatusCode)
	}

	return parsed.Payment.ID, nil
}

// DeepLinkParams feeds BuildPOSDeepLink for terminal (tap to pay)
// checkouts handled by the Square POS app on the cashier's device.
type DeepLinkParams struct {
	ApplicationID string
	AmountCents   int64
	CurrencyCode  string
	OrderNumber   int
	CheckoutID    string
	CallbackURL   string
}

// BuildPOSDeepLink builds the square-commerce-v1 deep link that opens the
// Square POS app preloaded with the order total. Only the total is passed;
// Square does not need the individual line items.
func BuildPOSDeepLink(p DeepLinkParams) string {
	data := map[string]interface{}{
		"client_id":             p.ApplicationID,
		"amount":                p.AmountCents,
		"currency_code":         p.CurrencyCode,
		"note":                  fmt.Sprintf("Order %d", p.OrderNumber),
		"client_transaction_id": p.CheckoutID,
		"callback_url":          p.CallbackURL,
		"ios_callback_url":      p.CallbackURL,
	}
	encoded, _ := json.Marshal(data)
	return "square-commerce-v1://payment/create?data=" + url.QueryEscape(string(encoded))
}
