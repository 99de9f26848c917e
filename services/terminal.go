package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/payments"
)

// Terminal checkout states reported to the cashier UI while it polls.
const (
	TerminalStatusNotFound  = "NOT_FOUND"
	TerminalStatusPending   = "PENDING"
	TerminalStatusCompleted = "COMPLETED"
)

type TerminalCheckoutResult struct {
	CheckoutID string `json:"checkout_id"`
	Deeplink   string `json:"deeplink"`
}

type TerminalStatusResult struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
}

// TerminalCheckout associates a tap-to-pay session with the order and
// returns the Square POS deep link the cashier's device opens. The payment
// itself completes out of band; TerminalStatus polls for it.
func (s *OrderService) TerminalCheckout(ctx context.Context, orderID string) (*TerminalCheckoutResult, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.cfg.SquareApplicationID == "" {
		return nil, fmt.Errorf("square application id is not configured")
	}

	checkoutID := fmt.Sprintf("checkout-%s-%d", order.ID, time.Now().UnixMilli())
	if _, err := s.store.SetTerminalCheckout(ctx, orderID, checkoutID); err != nil {
		return nil, err
	}

	deeplink := payments.BuildPOSDeepLink(payments.DeepLinkParams{
		ApplicationID: s.cfg.SquareApplicationID,
		AmountCents:   order.Total.Shift(2).IntPart(),
		CurrencyCode:  s.cfg.Currency,
		OrderNumber:   order.OrderNumber,
		CheckoutID:    checkoutID,
		CallbackURL:   s.cfg.TerminalCallbackURL,
	})

	s.logger.Info("terminal checkout created",
		zap.String("order_id", orderID),
		zap.String("checkout_id", checkoutID))

	return &TerminalCheckoutResult{CheckoutID: checkoutID, Deeplink: deeplink}, nil
}

// TerminalStatus reports whether the tap-to-pay session has settled. The
// order counts as paid once a payment reference landed or the status moved
// past PENDING.
func (s *OrderService) TerminalStatus(ctx context.Context, orderID string) (TerminalStatusResult, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return TerminalStatusResult{Status: TerminalStatusNotFound}, err
	}
	if order.TerminalCheckoutID == "" {
		return TerminalStatusResult{Status: TerminalStatusNotFound}, nil
	}
	if order.PaymentID != "" || order.Status != models.OrderStatusPending {
		return TerminalStatusResult{Status: TerminalStatusCompleted, PaymentID: order.PaymentID}, nil
	}
	return TerminalStatusResult{Status: TerminalStatusPending}, nil
}

// SimulatePaymentComplete marks the order paid without a gateway call, for
// sandbox use until the physical terminal integration is wired up.
func (s *OrderService) SimulatePaymentComplete(ctx context.Context, caller Identity, orderID string) (*models.Order, error) {
	paymentID := fmt.Sprintf("simulated-payment-%d", time.Now().UnixMilli())
	order, err := s.store.SetPayment(ctx, orderID, paymentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("simulated payment recorded",
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID))

	s.publish(events.TypeOrderStatusChanged, order)
	s.cachePut(ctx, order)
	return order, nil
}
