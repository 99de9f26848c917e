package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

// numbersByID reloads every given order and maps id to its current number.
func numbersByID(t *testing.T, s *OrderStore, orders []*models.Order) map[string]int {
	t.Helper()

	got := make(map[string]int, len(orders))
	for _, order := range orders {
		loaded, err := s.FindByID(context.Background(), order.ID)
		require.NoError(t, err)
		got[loaded.ID] = loaded.OrderNumber
	}
	return got
}

func TestRenumberShiftUpPreservesTheNumberSet(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 5) // numbers 1..5

	// Move #2 to slot 4: the old 3 and 4 each step down into the gap.
	updated, err := s.Renumber(context.Background(), orders[1].ID, 4, true)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.OrderNumber)

	got := numbersByID(t, s, orders)
	assert.Equal(t, 1, got[orders[0].ID])
	assert.Equal(t, 4, got[orders[1].ID])
	assert.Equal(t, 2, got[orders[2].ID])
	assert.Equal(t, 3, got[orders[3].ID])
	assert.Equal(t, 5, got[orders[4].ID])
}

func TestRenumberShiftDownPreservesTheNumberSet(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 5) // numbers 1..5

	// Move #4 to slot 2: the old 2 and 3 each step up out of the way.
	updated, err := s.Renumber(context.Background(), orders[3].ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.OrderNumber)

	got := numbersByID(t, s, orders)
	assert.Equal(t, 1, got[orders[0].ID])
	assert.Equal(t, 3, got[orders[1].ID])
	assert.Equal(t, 4, got[orders[2].ID])
	assert.Equal(t, 2, got[orders[3].ID])
	assert.Equal(t, 5, got[orders[4].ID])
}

func TestRenumberSameNumberIsANoOp(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 3)

	updated, err := s.Renumber(context.Background(), orders[1].ID, 2, true)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.OrderNumber)

	got := numbersByID(t, s, orders)
	assert.Equal(t, map[string]int{
		orders[0].ID: 1,
		orders[1].ID: 2,
		orders[2].ID: 3,
	}, got)
}

func TestRenumberWithoutAdjustRejectsOccupiedSlot(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 3)

	_, err := s.Renumber(context.Background(), orders[0].ID, 3, false)
	assert.ErrorIs(t, err, models.ErrConstraint)

	// Nothing moved.
	got := numbersByID(t, s, orders)
	assert.Equal(t, 1, got[orders[0].ID])
	assert.Equal(t, 3, got[orders[2].ID])
}

func TestRenumberWithoutAdjustTakesAFreeSlot(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 2)

	updated, err := s.Renumber(context.Background(), orders[0].ID, 10, false)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.OrderNumber)

	// The vacated slot stays empty; nothing else shifted.
	got := numbersByID(t, s, orders)
	assert.Equal(t, 2, got[orders[1].ID])
}

func TestRenumberAllocatorContinuesPastTheHighestNumber(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 2)

	_, err := s.Renumber(context.Background(), orders[1].ID, 9, false)
	require.NoError(t, err)

	// New orders pick up after the highest live number, renumbered or not.
	next, err := s.CreateOrder(context.Background(), cashDraft("3.00"))
	require.NoError(t, err)
	assert.Equal(t, 10, next.OrderNumber)
}

func TestRenumberValidation(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 1)

	_, err := s.Renumber(context.Background(), orders[0].ID, 0, true)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Renumber(context.Background(), orders[0].ID, -3, true)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = s.Renumber(context.Background(), "no-such-order", 2, true)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
