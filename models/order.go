package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ActiveStatuses are the statuses shown on the kitchen display.
var ActiveStatuses = []OrderStatus{OrderStatusPending, OrderStatusPreparing, OrderStatusReady}

// statusFlow is the forward-only order state machine. COMPLETED and
// CANCELLED are terminal.
var statusFlow = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// ValidOrderStatus reports whether s is a known status value.
func ValidOrderStatus(s OrderStatus) bool {
	_, ok := statusFlow[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows moving from the
// current status to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusFlow[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return len(statusFlow[s]) == 0
}

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodSquare PaymentMethod = "SQUARE"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodSquare:
		return true
	}
	return false
}

// Electronic reports whether the method carries the card processing fee.
func (m PaymentMethod) Electronic() bool {
	return m == PaymentMethodCard || m == PaymentMethodSquare
}

type OrderType string

const (
	OrderTypeInStore OrderType = "IN_STORE"
	OrderTypeOnline  OrderType = "ONLINE"
)

func ValidOrderType(t OrderType) bool {
	return t == OrderTypeInStore || t == OrderTypeOnline
}

type Order struct {
	ID          string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderNumber int         `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerID  *uint       `json:"customer_id,omitempty" gorm:"index"`
	// CustomerName is free text for walk-ins; resolved from the account
	// name when the caller leaves it empty.
	CustomerName       string          `json:"customer_name,omitempty"`
	Status             OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index;default:'PENDING'"`
	PaymentMethod      PaymentMethod   `json:"payment_method" gorm:"type:varchar(20);not null"`
	OrderType          OrderType       `json:"order_type" gorm:"type:varchar(20);not null"`
	Subtotal           decimal.Decimal `json:"subtotal" gorm:"type:decimal(10,2);not null"`
	// Tax is the card processing fee, not a sales tax. The column name is
	// kept for compatibility with existing clients.
	Tax                decimal.Decimal `json:"tax" gorm:"type:decimal(10,2);not null"`
	Total              decimal.Decimal `json:"total" gorm:"type:decimal(10,2);not null"`
	PaymentID          string          `json:"payment_id,omitempty"`
	TerminalCheckoutID string          `json:"terminal_checkout_id,omitempty"`
	Items              []OrderItem     `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt          time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt          time.Time       `json:"updated_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

type OrderItem struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID    string   `json:"order_id" gorm:"type:varchar(36);not null;index"`
	MenuItemID string   `json:"menu_item_id" gorm:"type:varchar(36);not null"`
	MenuItem   MenuItem `json:"menu_item,omitempty" gorm:"foreignKey:MenuItemID"`
	Quantity   int64    `json:"quantity" gorm:"not null"`
	// Price is the menu price snapshot taken when the item was added;
	// later menu edits don't change it.
	Price          decimal.Decimal          `json:"price" gorm:"type:decimal(10,2);not null"`
	Customizations []OrderItemCustomization `json:"customizations" gorm:"foreignKey:OrderItemID"`
}

type OrderItemCustomization struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderItemID string          `json:"order_item_id" gorm:"type:varchar(36);not null;index"`
	Type        string          `json:"type" gorm:"not null"`
	Name        string          `json:"name" gorm:"not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
}
