package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

func newTestStore(t *testing.T) *OrderStore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A fresh pool connection would see a fresh empty database; pin the
	// in-memory database to a single connection.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MenuItem{},
		&models.CustomizationTemplate{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemCustomization{},
	))
	return NewOrderStore(db, zap.NewNop())
}

func cashDraft(total string) OrderDraft {
	amount := decimal.RequireFromString(total)
	return OrderDraft{
		CustomerName:  "Walk In",
		PaymentMethod: models.PaymentMethodCash,
		OrderType:     models.OrderTypeInStore,
		Subtotal:      amount,
		Tax:           decimal.Zero,
		Total:         amount,
		Items: []models.OrderItem{
			{MenuItemID: "menu-1", Quantity: 1, Price: amount},
		},
	}
}

// createOrders inserts n orders and returns them in creation order. The
// pause keeps created_at strictly increasing so FIFO reads are stable.
func createOrders(t *testing.T, s *OrderStore, n int) []*models.Order {
	t.Helper()

	orders := make([]*models.Order, n)
	for i := range orders {
		order, err := s.CreateOrder(context.Background(), cashDraft("10.00"))
		require.NoError(t, err)
		orders[i] = order
		time.Sleep(2 * time.Millisecond)
	}
	return orders
}

func TestCreateOrderAssignsSequentialNumbers(t *testing.T) {
	s := newTestStore(t)

	orders := createOrders(t, s, 3)
	for i, order := range orders {
		assert.Equal(t, i+1, order.OrderNumber)
		assert.Equal(t, models.OrderStatusPending, order.Status)
		assert.NotEmpty(t, order.ID)
	}
}

func TestCreateOrderConcurrentNumbersAreUnique(t *testing.T) {
	s := newTestStore(t)

	const n = 10
	results := make(chan *models.Order, n)
	errs := make(chan error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order, err := s.CreateOrder(context.Background(), cashDraft("10.00"))
			if err != nil {
				errs <- err
				return
			}
			results <- order
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent create failed: %v", err)
	}

	seen := make(map[int]bool, n)
	for order := range results {
		assert.False(t, seen[order.OrderNumber], "duplicate order number %d", order.OrderNumber)
		seen[order.OrderNumber] = true
		assert.GreaterOrEqual(t, order.OrderNumber, 1)
		assert.LessOrEqual(t, order.OrderNumber, n)
	}
	assert.Len(t, seen, n)
}

func TestCreateOrderRetriesOnNumberClash(t *testing.T) {
	s := newTestStore(t)

	first, err := s.CreateOrder(context.Background(), cashDraft("10.00"))
	require.NoError(t, err)
	require.Equal(t, 1, first.OrderNumber)

	// Sabotage exactly one insert: override the allocated number with one
	// already taken, the way a concurrent checkout that committed between
	// the max read and the insert would. The unique index rejects it, the
	// transaction rolls back, and the retry re-reads the max.
	clashed := false
	err = s.db.Callback().Create().Before("gorm:create").Register("force_number_clash", func(tx *gorm.DB) {
		if clashed {
			return
		}
		if order, ok := tx.Statement.Dest.(*models.Order); ok {
			clashed = true
			order.OrderNumber = first.OrderNumber
		}
	})
	require.NoError(t, err)
	defer s.db.Callback().Create().Remove("force_number_clash")

	second, err := s.CreateOrder(context.Background(), cashDraft("5.00"))
	require.NoError(t, err)
	assert.True(t, clashed, "the clash hook never fired")
	assert.Equal(t, 2, second.OrderNumber)

	// The failed first attempt left nothing behind.
	var orderCount, itemCount int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&orderCount).Error)
	require.NoError(t, s.db.Model(&models.OrderItem{}).Count(&itemCount).Error)
	assert.Equal(t, int64(2), orderCount)
	assert.Equal(t, int64(2), itemCount)
}

func TestCreateOrderPersistsNestedItems(t *testing.T) {
	s := newTestStore(t)

	draft := cashDraft("12.50")
	draft.Items = []models.OrderItem{
		{
			MenuItemID: "menu-1",
			Quantity:   2,
			Price:      decimal.RequireFromString("5.00"),
			Customizations: []models.OrderItemCustomization{
				{Type: "size", Name: "Large", Price: decimal.RequireFromString("1.25")},
			},
		},
	}

	created, err := s.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	loaded, err := s.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(2), loaded.Items[0].Quantity)
	require.Len(t, loaded.Items[0].Customizations, 1)
	assert.Equal(t, "Large", loaded.Items[0].Customizations[0].Name)
	assert.Equal(t, "1.25", loaded.Items[0].Customizations[0].Price.StringFixed(2))
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	s := newTestStore(t)

	draft := cashDraft("10.00")
	draft.Items = nil

	_, err := s.CreateOrder(context.Background(), draft)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestReplaceItemsSwapsTheWholeSet(t *testing.T) {
	s := newTestStore(t)
	order := createOrders(t, s, 1)[0]

	newItems := []models.OrderItem{
		{MenuItemID: "menu-2", Quantity: 3, Price: decimal.RequireFromString("4.00")},
		{MenuItemID: "menu-3", Quantity: 1, Price: decimal.RequireFromString("6.00")},
	}
	updated, err := s.ReplaceItems(context.Background(), order.ID, newItems,
		decimal.RequireFromString("18.00"), decimal.Zero, decimal.RequireFromString("18.00"), "Dana")
	require.NoError(t, err)

	assert.Len(t, updated.Items, 2)
	assert.Equal(t, "18.00", updated.Total.StringFixed(2))
	assert.Equal(t, "Dana", updated.CustomerName)

	// The original item row is gone, not orphaned.
	var count int64
	require.NoError(t, s.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestReplaceItemsRejectsEmptySet(t *testing.T) {
	s := newTestStore(t)
	order := createOrders(t, s, 1)[0]

	_, err := s.ReplaceItems(context.Background(), order.ID, nil,
		decimal.Zero, decimal.Zero, decimal.Zero, "")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUpdateStatusEnforcesTheStateMachine(t *testing.T) {
	tests := []struct {
		name    string
		path    []models.OrderStatus
		then    models.OrderStatus
		wantErr error
	}{
		{
			name: "pending to preparing",
			then: models.OrderStatusPreparing,
		},
		{
			name:    "pending cannot skip to ready",
			then:    models.OrderStatusReady,
			wantErr: models.ErrInvalidTransition,
		},
		{
			name: "preparing to ready",
			path: []models.OrderStatus{models.OrderStatusPreparing},
			then: models.OrderStatusReady,
		},
		{
			name: "ready to completed",
			path: []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady},
			then: models.OrderStatusCompleted,
		},
		{
			name: "pending to cancelled",
			then: models.OrderStatusCancelled,
		},
		{
			name: "preparing to cancelled",
			path: []models.OrderStatus{models.OrderStatusPreparing},
			then: models.OrderStatusCancelled,
		},
		{
			name:    "ready cannot be cancelled",
			path:    []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady},
			then:    models.OrderStatusCancelled,
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "completed is terminal",
			path:    []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCompleted},
			then:    models.OrderStatusPreparing,
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "cancelled is terminal",
			path:    []models.OrderStatus{models.OrderStatusCancelled},
			then:    models.OrderStatusPreparing,
			wantErr: models.ErrInvalidTransition,
		},
		{
			name:    "unknown status",
			then:    "MISPLACED",
			wantErr: models.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			order := createOrders(t, s, 1)[0]

			for _, step := range tt.path {
				_, err := s.UpdateStatus(context.Background(), order.ID, step)
				require.NoError(t, err)
			}

			updated, err := s.UpdateStatus(context.Background(), order.ID, tt.then)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.then, updated.Status)
		})
	}
}

func TestUpdateStatusStampsCompletedAt(t *testing.T) {
	s := newTestStore(t)
	order := createOrders(t, s, 1)[0]

	for _, step := range []models.OrderStatus{
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	} {
		updated, err := s.UpdateStatus(context.Background(), order.ID, step)
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	}

	updated, err := s.UpdateStatus(context.Background(), order.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.WithinDuration(t, time.Now(), *updated.CompletedAt, 5*time.Second)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateStatus(context.Background(), "no-such-order", models.OrderStatusPreparing)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSetPaymentAdvancesToPreparing(t *testing.T) {
	s := newTestStore(t)
	order := createOrders(t, s, 1)[0]

	updated, err := s.SetPayment(context.Background(), order.ID, "pay-123")
	require.NoError(t, err)
	assert.Equal(t, "pay-123", updated.PaymentID)
	assert.Equal(t, models.OrderStatusPreparing, updated.Status)
}

func TestSetPaymentRejectsTerminalOrders(t *testing.T) {
	s := newTestStore(t)
	order := createOrders(t, s, 1)[0]

	_, err := s.UpdateStatus(context.Background(), order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = s.SetPayment(context.Background(), order.ID, "pay-123")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestFindActiveIsFIFOAndExcludesTerminal(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 4)

	// Cancel the second order; it must drop out of the queue.
	_, err := s.UpdateStatus(context.Background(), orders[1].ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	active, err := s.FindActive(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, orders[0].ID, active[0].ID)
	assert.Equal(t, orders[2].ID, active[1].ID)
	assert.Equal(t, orders[3].ID, active[2].ID)
}

func TestFindActiveRespectsLimit(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 5)

	active, err := s.FindActive(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, orders[0].ID, active[0].ID)
	assert.Equal(t, orders[1].ID, active[1].ID)
}

func TestFindManyFiltersByStatus(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 3)

	_, err := s.UpdateStatus(context.Background(), orders[0].ID, models.OrderStatusPreparing)
	require.NoError(t, err)

	preparing := models.OrderStatusPreparing
	got, err := s.FindMany(context.Background(), OrderFilter{Status: &preparing})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, orders[0].ID, got[0].ID)

	all, err := s.FindMany(context.Background(), OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Newest first.
	assert.Equal(t, orders[2].ID, all[0].ID)
}

func TestFindByCustomer(t *testing.T) {
	s := newTestStore(t)

	customer := uint(42)
	draft := cashDraft("10.00")
	draft.CustomerID = &customer
	mine, err := s.CreateOrder(context.Background(), draft)
	require.NoError(t, err)

	_, err = s.CreateOrder(context.Background(), cashDraft("5.00"))
	require.NoError(t, err)

	got, err := s.FindByCustomer(context.Background(), customer)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestFindByIDUnknownOrder(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindByID(context.Background(), "no-such-order")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSummarizeCountsAndRevenue(t *testing.T) {
	s := newTestStore(t)
	orders := createOrders(t, s, 3)

	// Walk the first two to COMPLETED; the third stays PENDING.
	for _, order := range orders[:2] {
		for _, step := range []models.OrderStatus{
			models.OrderStatusPreparing,
			models.OrderStatusReady,
			models.OrderStatusCompleted,
		} {
			_, err := s.UpdateStatus(context.Background(), order.ID, step)
			require.NoError(t, err)
		}
	}

	summary, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20.00", summary.Revenue.StringFixed(2))

	counts := map[models.OrderStatus]int64{}
	for _, row := range summary.ByStatus {
		counts[row.Status] = row.Count
	}
	assert.Equal(t, int64(2), counts[models.OrderStatusCompleted])
	assert.Equal(t, int64(1), counts[models.OrderStatusPending])
}

func TestSummarizeEmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	summary, err := s.Summarize(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Revenue.IsZero())
	assert.Empty(t, summary.ByStatus)
}
