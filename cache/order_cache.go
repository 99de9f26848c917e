// Package cache keeps a compact per-order summary in Redis so dashboards
// can poll order state without hitting the database. It is best-effort: a
// cache failure is logged, never surfaced to the checkout path.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

const orderTTL = 30 * time.Minute

type OrderSummary struct {
	ID          string             `json:"id"`
	OrderNumber int                `json:"order_number"`
	Status      models.OrderStatus `json:"status"`
	Total       string             `json:"total"`
}

// NewOrderSummary projects the order aggregate down to the cached shape.
func NewOrderSummary(order *models.Order) OrderSummary {
	return OrderSummary{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		Total:       order.Total.StringFixed(2),
	}
}

type OrderCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewOrderCache(addr, password string, db int, logger *zap.Logger) *OrderCache {
	return &OrderCache{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		logger: logger,
	}
}

func (c *OrderCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Put caches the order's summary. Called after create and after any status
// change.
func (c *OrderCache) Put(ctx context.Context, order *models.Order) {
	data, err := json.Marshal(NewOrderSummary(order))
	if err != nil {
		c.logger.Warn("failed to marshal order summary", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, orderKey(order.ID), data, orderTTL).Err(); err != nil {
		c.logger.Warn("failed to cache order", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// Get returns the cached summary, or nil on miss.
func (c *OrderCache) Get(ctx context.Context, orderID string) *OrderSummary {
	data, err := c.client.Get(ctx, orderKey(orderID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("order cache read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		return nil
	}
	var summary OrderSummary
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		return nil
	}
	return &summary
}

// Invalidate drops the cached summary after an edit or renumber.
func (c *OrderCache) Invalidate(ctx context.Context, orderID string) {
	if err := c.client.Del(ctx, orderKey(orderID)).Err(); err != nil {
		c.logger.Warn("order cache invalidation failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

func (c *OrderCache) Close() error {
	return c.client.Close()
}

func orderKey(id string) string {
	return fmt.Sprintf("order:%s", id)
}
