// Package services holds the order lifecycle manager: every order write
// goes through here, and every successful write publishes an event for the
// kitchen display stream.
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/OmarShahwanGitHub/POS-App/audit"
	"github.com/OmarShahwanGitHub/POS-App/cache"
	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/metrics"
	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/payments"
	"github.com/OmarShahwanGitHub/POS-App/pricing"
	"github.com/OmarShahwanGitHub/POS-App/store"

	"go.mongodb.org/mongo-driver/bson"
)

// Identity is the authenticated caller, resolved from JWT claims before any
// service call.
type Identity struct {
	UserID uint
	Name   string
	Role   models.Role
}

// MenuCatalog is the menu lookup the service needs when snapshotting
// prices.
type MenuCatalog interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.MenuItem, error)
}

type CustomizationRequest struct {
	Type  string          `json:"type" binding:"required"`
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

type OrderItemRequest struct {
	MenuItemID     string                 `json:"menu_item_id" binding:"required"`
	Quantity       int64                  `json:"quantity" binding:"required,gt=0"`
	Customizations []CustomizationRequest `json:"customizations"`
}

type PlaceOrderRequest struct {
	Items         []OrderItemRequest   `json:"items" binding:"required,min=1"`
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
	OrderType     models.OrderType     `json:"order_type" binding:"required"`
	CustomerName  string               `json:"customer_name"`
}

type EditOrderRequest struct {
	Items        []OrderItemRequest `json:"items" binding:"required,min=1"`
	CustomerName string             `json:"customer_name"`
}

// Config carries the service's tunables; see config.Load for the sources.
type Config struct {
	KitchenLimit        int
	Currency            string
	SquareApplicationID string
	TerminalCallbackURL string
}

type OrderService struct {
	store   *store.OrderStore
	menu    MenuCatalog
	pricer  pricing.Engine
	gateway payments.Gateway
	broker  *events.Broker
	cache   *cache.OrderCache // optional
	trail   *audit.Trail      // optional
	logger  *zap.Logger
	cfg     Config
}

func NewOrderService(
	orderStore *store.OrderStore,
	menu MenuCatalog,
	pricer pricing.Engine,
	gateway payments.Gateway,
	broker *events.Broker,
	orderCache *cache.OrderCache,
	trail *audit.Trail,
	logger *zap.Logger,
	cfg Config,
) *OrderService {
	if cfg.KitchenLimit <= 0 {
		cfg.KitchenLimit = store.DefaultListLimit
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &OrderService{
		store:   orderStore,
		menu:    menu,
		pricer:  pricer,
		gateway: gateway,
		broker:  broker,
		cache:   orderCache,
		trail:   trail,
		logger:  logger,
		cfg:     cfg,
	}
}

// PlaceOrder prices the cart against the current menu, snapshots the unit
// prices, persists the aggregate (order number assigned inside the insert
// transaction) and publishes order.created.
func (s *OrderService) PlaceOrder(ctx context.Context, caller Identity, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unknown payment method %q", models.ErrValidation, req.PaymentMethod)
	}
	if !models.ValidOrderType(req.OrderType) {
		return nil, fmt.Errorf("%w: unknown order type %q", models.ErrValidation, req.OrderType)
	}

	orderItems, priceItems, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	totals, err := s.pricer.ComputeTotals(priceItems, req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	// Walk-ins type a name at the register; account orders fall back to
	// the account's display name.
	customerName := req.CustomerName
	if customerName == "" {
		customerName = caller.Name
	}

	var customerID *uint
	if caller.UserID != 0 {
		id := caller.UserID
		customerID = &id
	}

	order, err := s.store.CreateOrder(ctx, store.OrderDraft{
		CustomerID:    customerID,
		CustomerName:  customerName,
		PaymentMethod: req.PaymentMethod,
		OrderType:     req.OrderType,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Surcharge,
		Total:         totals.Total,
		Items:         orderItems,
	})
	if err != nil {
		s.logger.Error("failed to create order", zap.Error(err))
		return nil, err
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID),
		zap.Int("order_number", order.OrderNumber),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("total", order.Total.StringFixed(2)))

	metrics.OrdersCreated.WithLabelValues(string(order.PaymentMethod)).Inc()
	s.publish(events.TypeOrderCreated, order)
	s.cachePut(ctx, order)
	s.record("order.create", order.ID, caller.UserID, bson.M{
		"order_number": order.OrderNumber,
		"total":        order.Total.StringFixed(2),
	})
	return order, nil
}

// EditOrder replaces the order's items wholesale. Prices are re-resolved
// from the current menu rather than reusing the original snapshots, so a
// menu price change is picked up by the edit. Totals are recomputed with
// the order's existing payment method.
func (s *OrderService) EditOrder(ctx context.Context, orderID string, req EditOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	}

	existing, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	orderItems, priceItems, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	totals, err := s.pricer.ComputeTotals(priceItems, existing.PaymentMethod)
	if err != nil {
		return nil, err
	}

	order, err := s.store.ReplaceItems(ctx, orderID, orderItems, totals.Subtotal, totals.Surcharge, totals.Total, req.CustomerName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order edited",
		zap.String("order_id", order.ID),
		zap.Int("item_count", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)))

	s.publish(events.TypeOrderUpdated, order)
	s.cacheInvalidate(ctx, orderID)
	return order, nil
}

// TransitionStatus advances the order through the state machine and
// publishes both order.status.changed and order.updated.
func (s *OrderService) TransitionStatus(ctx context.Context, caller Identity, orderID string, newStatus models.OrderStatus) (*models.Order, error) {
	order, err := s.store.UpdateStatus(ctx, orderID, newStatus)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", order.ID),
		zap.Int("order_number", order.OrderNumber),
		zap.String("status", string(order.Status)))

	metrics.OrderStatusChanges.WithLabelValues(string(order.Status)).Inc()
	s.publish(events.TypeOrderStatusChanged, order)
	s.publish(events.TypeOrderUpdated, order)
	s.cachePut(ctx, order)
	s.record("order.status", order.ID, caller.UserID, bson.M{"status": string(order.Status)})
	return order, nil
}

// CapturePayment charges the order total through the gateway using the
// order id as the idempotency key, so a retried capture cannot
// double-charge. An already-captured order is a no-op. On gateway failure
// the order is left unchanged and a PaymentError is surfaced; retrying is
// the caller's call, since a card decline is not transient.
func (s *OrderService) CapturePayment(ctx context.Context, caller Identity, orderID, sourceToken string) (*models.Order, error) {
	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentID != "" {
		s.logger.Info("payment already captured", zap.String("order_id", orderID), zap.String("payment_id", order.PaymentID))
		return order, nil
	}

	amountCents := order.Total.Shift(2).IntPart()
	paymentID, err := s.gateway.Charge(ctx, amountCents, s.cfg.Currency, order.ID, sourceToken)
	if err != nil {
		metrics.PaymentFailures.Inc()
		s.logger.Warn("payment capture failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, &models.PaymentError{OrderID: orderID, Err: err}
	}

	order, err = s.store.SetPayment(ctx, orderID, paymentID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment captured",
		zap.String("order_id", order.ID),
		zap.String("payment_id", paymentID),
		zap.Int64("amount_cents", amountCents))

	metrics.PaymentsCaptured.Inc()
	s.publish(events.TypeOrderStatusChanged, order)
	s.cachePut(ctx, order)
	s.record("order.payment", order.ID, caller.UserID, bson.M{
		"payment_id":   paymentID,
		"amount_cents": amountCents,
	})
	return order, nil
}

// CorrectOrderNumber renumbers an order, optionally shifting the orders in
// between so the set of numbers stays gapless.
func (s *OrderService) CorrectOrderNumber(ctx context.Context, caller Identity, orderID string, newNumber int, adjustSubsequent bool) (*models.Order, error) {
	order, err := s.store.Renumber(ctx, orderID, newNumber, adjustSubsequent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("order renumbered",
		zap.String("order_id", order.ID),
		zap.Int("order_number", order.OrderNumber),
		zap.Bool("adjust_subsequent", adjustSubsequent))

	s.publish(events.TypeOrderUpdated, order)
	s.cacheInvalidate(ctx, orderID)
	s.record("order.renumber", order.ID, caller.UserID, bson.M{
		"order_number": order.OrderNumber,
		"adjusted":     adjustSubsequent,
	})
	return order, nil
}

// KitchenOrders is the kitchen display read path: active orders oldest
// first, bounded.
func (s *OrderService) KitchenOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.FindActive(ctx, s.cfg.KitchenLimit)
}

// Orders lists orders newest first with an optional status filter.
func (s *OrderService) Orders(ctx context.Context, status *models.OrderStatus, limit int) ([]models.Order, error) {
	return s.store.FindMany(ctx, store.OrderFilter{Status: status, Limit: limit})
}

func (s *OrderService) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	return s.store.FindByID(ctx, orderID)
}

// OrderSummaryByID is the polling read path for status screens: the cached
// summary when Redis has it, otherwise the database, warming the cache on
// the way out.
func (s *OrderService) OrderSummaryByID(ctx context.Context, orderID string) (*cache.OrderSummary, error) {
	if s.cache != nil {
		if summary := s.cache.Get(ctx, orderID); summary != nil {
			return summary, nil
		}
	}

	order, err := s.store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, order)

	summary := cache.NewOrderSummary(order)
	return &summary, nil
}

func (s *OrderService) OrdersForCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	return s.store.FindByCustomer(ctx, customerID)
}

// Summary is the simple revenue roll-up for the admin dashboard.
func (s *OrderService) Summary(ctx context.Context) (*store.Summary, error) {
	return s.store.Summarize(ctx)
}

func (s *OrderService) resolveItems(ctx context.Context, reqs []OrderItemRequest) ([]models.OrderItem, []pricing.Item, error) {
	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.MenuItemID
	}
	menuItems, err := s.menu.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	orderItems := make([]models.OrderItem, len(reqs))
	priceItems := make([]pricing.Item, len(reqs))
	for i, r := range reqs {
		menuItem, ok := menuItems[r.MenuItemID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: menu item %s", models.ErrNotFound, r.MenuItemID)
		}

		customizations := make([]models.OrderItemCustomization, len(r.Customizations))
		priceCustomizations := make([]pricing.Customization, len(r.Customizations))
		for j, c := range r.Customizations {
			customizations[j] = models.OrderItemCustomization{
				Type:  c.Type,
				Name:  c.Name,
				Price: c.Price,
			}
			priceCustomizations[j] = pricing.Customization{PriceDelta: c.Price}
		}

		orderItems[i] = models.OrderItem{
			MenuItemID:     r.MenuItemID,
			Quantity:       r.Quantity,
			Price:          menuItem.Price,
			Customizations: customizations,
		}
		priceItems[i] = pricing.Item{
			UnitPrice:      menuItem.Price,
			Quantity:       r.Quantity,
			Customizations: priceCustomizations,
		}
	}
	return orderItems, priceItems, nil
}

func (s *OrderService) publish(t events.Type, order *models.Order) {
	s.broker.Publish(events.Event{
		Type:        t,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
}

func (s *OrderService) cachePut(ctx context.Context, order *models.Order) {
	if s.cache != nil {
		s.cache.Put(ctx, order)
	}
}

func (s *OrderService) cacheInvalidate(ctx context.Context, orderID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, orderID)
	}
}

func (s *OrderService) record(action, orderID string, actorID uint, data bson.M) {
	if s.trail != nil {
		s.trail.Record(audit.Entry{
			Action:  action,
			OrderID: orderID,
			ActorID: actorID,
			Data:    data,
		})
	}
}
