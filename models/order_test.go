package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusPreparing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusReady, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPreparing, OrderStatusReady, true},
		{OrderStatusPreparing, OrderStatusCancelled, true},
		{OrderStatusPreparing, OrderStatusCompleted, false},
		{OrderStatusPreparing, OrderStatusPending, false},
		{OrderStatusReady, OrderStatusCompleted, true},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusReady, OrderStatusPending, false},
		{OrderStatusCompleted, OrderStatusPreparing, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		got := tt.from.CanTransitionTo(tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, OrderStatusCompleted.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusPending.Terminal())
	assert.False(t, OrderStatusPreparing.Terminal())
	assert.False(t, OrderStatusReady.Terminal())
}

func TestPaymentMethodElectronic(t *testing.T) {
	assert.False(t, PaymentMethodCash.Electronic())
	assert.True(t, PaymentMethodCard.Electronic())
	assert.True(t, PaymentMethodSquare.Electronic())
}

func TestValidRole(t *testing.T) {
	for _, role := range []Role{RoleCustomer, RoleCashier, RoleKitchen, RoleAdmin} {
		assert.True(t, ValidRole(role))
	}
	assert.False(t, ValidRole("MANAGER"))
}
