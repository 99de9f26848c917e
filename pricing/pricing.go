// Package pricing computes order money totals. It is pure: no I/O, no
// clock, no database.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

// Square's card fee: 2.6% + $0.10 per transaction. Defaults only; the
// engine takes its constants from config so tests can pin them.
const (
	DefaultCardRate = 0.026
	DefaultCardFee  = 0.10
)

type Customization struct {
	PriceDelta decimal.Decimal
}

type Item struct {
	UnitPrice      decimal.Decimal
	Quantity       int64
	Customizations []Customization
}

type Totals struct {
	Subtotal  decimal.Decimal
	Surcharge decimal.Decimal
	Total     decimal.Decimal
}

// Engine holds the surcharge constants for electronic payment methods.
type Engine struct {
	cardRate decimal.Decimal
	cardFee  decimal.Decimal
}

func NewEngine(cardRate, cardFee float64) Engine {
	return Engine{
		cardRate: decimal.NewFromFloat(cardRate),
		cardFee:  decimal.NewFromFloat(cardFee),
	}
}

func DefaultEngine() Engine {
	return NewEngine(DefaultCardRate, DefaultCardFee)
}

// ComputeTotals returns subtotal, surcharge and total for the given line
// items and payment method.
//
// Subtotal is the sum over items of (unit price + customization deltas) x
// quantity. Nothing is rounded mid-computation; the surcharge is rounded to
// cents once at the end. CASH orders carry no surcharge; CARD and SQUARE
// pay subtotal*rate + fee.
func (e Engine) ComputeTotals(items []Item, method models.PaymentMethod) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}
	if !models.ValidPaymentMethod(method) {
		return Totals{}, fmt.Errorf("%w: unknown payment method %q", models.ErrValidation, method)
	}

	subtotal := decimal.Zero
	for i, item := range items {
		if item.Quantity < 1 {
			return Totals{}, fmt.Errorf("%w: item %d has quantity %d", models.ErrValidation, i, item.Quantity)
		}
		if item.UnitPrice.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d has negative price", models.ErrValidation, i)
		}

		unit := item.UnitPrice
		for _, c := range item.Customizations {
			unit = unit.Add(c.PriceDelta)
		}
		if unit.IsNegative() {
			return Totals{}, fmt.Errorf("%w: item %d customizations drive price below zero", models.ErrValidation, i)
		}
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(item.Quantity)))
	}

	surcharge := decimal.Zero
	if method.Electronic() {
		surcharge = subtotal.Mul(e.cardRate).Add(e.cardFee).Round(2)
	}

	subtotal = subtotal.Round(2)
	return Totals{
		Subtotal:  subtotal,
		Surcharge: surcharge,
		Total:     subtotal.Add(surcharge),
	}, nil
}
