package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/pricing"
	"github.com/OmarShahwanGitHub/POS-App/services"
	"github.com/OmarShahwanGitHub/POS-App/store"
)

func newOrderServer(t *testing.T) (*httptest.Server, *services.OrderService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

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
	require.NoError(t, db.Create(&models.MenuItem{
		ID:        "burger",
		Name:      "Burger",
		Price:     decimal.RequireFromString("7.00"),
		Available: true,
	}).Error)

	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	service := services.NewOrderService(
		store.NewOrderStore(db, zap.NewNop()),
		store.NewMenuStore(db),
		pricing.DefaultEngine(),
		nil,
		broker,
		nil,
		nil,
		zap.NewNop(),
		services.Config{KitchenLimit: 50, Currency: "USD"},
	)

	h := &Handlers{Orders: service, Broker: broker, Logger: zap.NewNop()}
	router := gin.New()
	router.GET("/orders/:order_id/status", h.GetOrderStatus)
	router.GET("/payments/terminal/:order_id/status", h.TerminalStatus)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, service
}

func placeCashOrder(t *testing.T, service *services.OrderService) *models.Order {
	t.Helper()
	order, err := service.PlaceOrder(context.Background(),
		services.Identity{Name: "Register One", Role: models.RoleCashier},
		services.PlaceOrderRequest{
			PaymentMethod: models.PaymentMethodCash,
			OrderType:     models.OrderTypeInStore,
			CustomerName:  "Sam",
			Items:         []services.OrderItemRequest{{MenuItemID: "burger", Quantity: 1}},
		})
	require.NoError(t, err)
	return order
}

func TestGetOrderStatus(t *testing.T) {
	srv, service := newOrderServer(t)
	order := placeCashOrder(t, service)

	resp, err := http.Get(srv.URL + "/orders/" + order.ID + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID          string `json:"id"`
		OrderNumber int    `json:"order_number"`
		Status      string `json:"status"`
		Total       string `json:"total"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, order.ID, body.ID)
	assert.Equal(t, order.OrderNumber, body.OrderNumber)
	assert.Equal(t, string(models.OrderStatusPending), body.Status)
	assert.Equal(t, "7.00", body.Total)
}

func TestGetOrderStatusUnknownOrder(t *testing.T) {
	srv, _ := newOrderServer(t)

	resp, err := http.Get(srv.URL + "/orders/no-such-order/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTerminalStatusUnknownOrderIsNotFound(t *testing.T) {
	srv, service := newOrderServer(t)

	resp, err := http.Get(srv.URL + "/payments/terminal/no-such-order/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// An order that exists but has no checkout still answers 200.
	order := placeCashOrder(t, service)
	resp, err = http.Get(srv.URL + "/payments/terminal/" + order.ID + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Status)
}
