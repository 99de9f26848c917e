// Package store is the persistence boundary: transactional CRUD over the
// order aggregate and the menu catalog, plus order number allocation and
// renumbering. Database transactions are the only concurrency control; the
// unique index on orders.order_number is the backstop for races the
// allocator cannot see.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

const (
	// DefaultListLimit bounds order listings when the caller gives none.
	DefaultListLimit = 50
	// MaxListLimit is the hard cap on a single listing.
	MaxListLimit = 100
)

type OrderStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewOrderStore(db *gorm.DB, logger *zap.Logger) *OrderStore {
	return &OrderStore{db: db, logger: logger}
}

// OrderDraft is everything CreateOrder needs. The order number is assigned
// inside the insert transaction, never by the caller.
type OrderDraft struct {
	CustomerID    *uint
	CustomerName  string
	PaymentMethod models.PaymentMethod
	OrderType     models.OrderType
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	Items         []models.OrderItem
}

// CreateOrder inserts the order and its nested items and customizations as
// one transaction. The next order number is read and consumed inside that
// same transaction; if a concurrent checkout still wins the number, the
// unique index rejects the insert and the whole transaction is retried once
// with a fresh read of the max.
func (s *OrderStore) CreateOrder(ctx context.Context, draft OrderDraft) (*models.Order, error) {
	if len(draft.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}

	var created *models.Order
	insert := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			next, err := nextOrderNumber(tx)
			if err != nil {
				return err
			}

			order := &models.Order{
				ID:            uuid.NewString(),
				OrderNumber:   next,
				CustomerID:    draft.CustomerID,
				CustomerName:  draft.CustomerName,
				Status:        models.OrderStatusPending,
				PaymentMethod: draft.PaymentMethod,
				OrderType:     draft.OrderType,
				Subtotal:      draft.Subtotal,
				Tax:           draft.Tax,
				Total:         draft.Total,
				Items:         make([]models.OrderItem, len(draft.Items)),
			}
			for i, item := range draft.Items {
				item.ID = uuid.NewString()
				item.OrderID = order.ID
				for j := range item.Customizations {
					item.Customizations[j].ID = uuid.NewString()
					item.Customizations[j].OrderItemID = item.ID
				}
				order.Items[i] = item
			}

			if err := tx.Create(order).Error; err != nil {
				return err
			}
			created = order
			return nil
		})
	}

	err := insert()
	if isDuplicateOrderNumber(err) {
		s.logger.Warn("order number clash on insert, retrying once", zap.Error(err))
		err = insert()
	}
	if err != nil {
		if isDuplicateOrderNumber(err) {
			return nil, fmt.Errorf("%w: %v", models.ErrConstraint, err)
		}
		return nil, err
	}
	return s.FindByID(ctx, created.ID)
}

// ReplaceItems swaps the order's item set wholesale and updates the cached
// totals, all in one transaction. Old items and their customizations are
// deleted, never patched. An empty replacement set is rejected: an order
// always has at least one item.
func (s *OrderStore) ReplaceItems(ctx context.Context, orderID string, items []models.OrderItem, subtotal, tax, total decimal.Decimal, customerName string) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: replacement item set is empty", models.ErrValidation)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return translateNotFound(err, orderID)
		}

		var oldItemIDs []string
		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", orderID).Pluck("id", &oldItemIDs).Error; err != nil {
			return err
		}
		if len(oldItemIDs) > 0 {
			if err := tx.Where("order_item_id IN ?", oldItemIDs).Delete(&models.OrderItemCustomization{}).Error; err != nil {
				return err
			}
			if err := tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
		}

		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].OrderID = orderID
			for j := range items[i].Customizations {
				items[i].Customizations[j].ID = uuid.NewString()
				items[i].Customizations[j].OrderItemID = items[i].ID
			}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"subtotal": subtotal,
			"tax":      tax,
			"total":    total,
		}
		if customerName != "" {
			updates["customer_name"] = customerName
		}
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, orderID)
}

// UpdateStatus validates the transition against the current status re-read
// inside the write transaction, never against a stale caller-side read.
// CompletedAt is stamped when the order moves to COMPLETED.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID string, newStatus models.OrderStatus) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrValidation, newStatus)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return translateNotFound(err, orderID)
		}
		if !order.Status.CanTransitionTo(newStatus) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, newStatus)
		}

		updates := map[string]interface{}{"status": newStatus}
		if newStatus == models.OrderStatusCompleted {
			now := time.Now()
			updates["completed_at"] = &now
		}
		return tx.Model(&order).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, orderID)
}

// SetPayment records the gateway's payment reference and advances the order
// to PREPARING, validating the transition inside the same transaction.
func (s *OrderStore) SetPayment(ctx context.Context, orderID, paymentID string) (*models.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, "id = ?", orderID).Error; err != nil {
			return translateNotFound(err, orderID)
		}
		if !order.Status.CanTransitionTo(models.OrderStatusPreparing) {
			return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, order.Status, models.OrderStatusPreparing)
		}
		return tx.Model(&order).Updates(map[string]interface{}{
			"payment_id": paymentID,
			"status":     models.OrderStatusPreparing,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, orderID)
}

// SetTerminalCheckout stores the terminal checkout reference on the order.
func (s *OrderStore) SetTerminalCheckout(ctx context.Context, orderID, checkoutID string) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("terminal_checkout_id", checkoutID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	return s.FindByID(ctx, orderID)
}

// FindByID loads the full aggregate: items, their customizations, and the
// referenced menu items for display.
func (s *OrderStore) FindByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items.Customizations").
		Preload("Items.MenuItem").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, translateNotFound(err, orderID)
	}
	return &order, nil
}

// OrderFilter narrows FindMany. A nil Status means all statuses.
type OrderFilter struct {
	Status *models.OrderStatus
	Limit  int
}

// FindMany lists orders newest first.
func (s *OrderStore) FindMany(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	query := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var orders []models.Order
	err := query.
		Preload("Items.Customizations").
		Preload("Items.MenuItem").
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// FindActive lists PENDING/PREPARING/READY orders oldest first: the kitchen
// works the queue FIFO. The batch is bounded to keep the display page small
// under load.
func (s *OrderStore) FindActive(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("status IN ?", models.ActiveStatuses).
		Preload("Items.Customizations").
		Preload("Items.MenuItem").
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// FindByCustomer lists a customer's own order history, newest first.
func (s *OrderStore) FindByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Preload("Items.Customizations").
		Preload("Items.MenuItem").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// StatusCount is one row of the revenue summary.
type StatusCount struct {
	Status models.OrderStatus `json:"status"`
	Count  int64              `json:"count"`
}

// Summary is a simple revenue roll-up: completed revenue plus order counts
// per status.
type Summary struct {
	Revenue  decimal.Decimal `json:"revenue"`
	ByStatus []StatusCount   `json:"by_status"`
}

// Summarize sums the totals of COMPLETED orders and counts orders per
// status.
func (s *OrderStore) Summarize(ctx context.Context) (*Summary, error) {
	summary := &Summary{Revenue: decimal.Zero}

	var revenue *decimal.Decimal
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("status = ?", models.OrderStatusCompleted).
		Select("SUM(total)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	if revenue != nil {
		summary.Revenue = *revenue
	}

	err = s.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status").
		Scan(&summary.ByStatus).Error
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// nextOrderNumber reads max(order_number)+1 within the caller's
// transaction. Numbering starts at 1.
func nextOrderNumber(tx *gorm.DB) (int, error) {
	var max *int
	if err := tx.Model(&models.Order{}).Select("MAX(order_number)").Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func translateNotFound(err error, orderID string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: order %s", models.ErrNotFound, orderID)
	}
	return err
}

func isDuplicateOrderNumber(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite and postgres don't agree on error types; fall back to text.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key")
}
