package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/services"
)

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

type CapturePaymentRequest struct {
	SourceID string `json:"source_id" binding:"required"`
}

type RenumberRequest struct {
	NewNumber        int  `json:"new_number" binding:"required,gt=0"`
	AdjustSubsequent bool `json:"adjust_subsequent"`
}

// PlaceOrder handles checkout for both the cashier register and customer
// self-ordering.
func (h *Handlers) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.PlaceOrder(c.Request.Context(), identityFrom(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// EditOrder replaces an order's items before the kitchen picks it up.
func (h *Handlers) EditOrder(c *gin.Context) {
	var req services.EditOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.EditOrder(c.Request.Context(), c.Param("order_id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders returns orders newest first, optionally filtered by status
// via ?status=, bounded by ?limit=.
func (h *Handlers) ListOrders(c *gin.Context) {
	var status *models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		s := models.OrderStatus(raw)
		if !models.ValidOrderStatus(s) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
			return
		}
		status = &s
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit value"})
			return
		}
		limit = parsed
	}

	orders, err := h.Orders.Orders(c.Request.Context(), status, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderStatus is the lightweight poll for order status screens; it
// reads the cached summary when one is available.
func (h *Handlers) GetOrderStatus(c *gin.Context) {
	summary, err := h.Orders.OrderSummaryByID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handlers) GetOrder(c *gin.Context) {
	order, err := h.Orders.OrderByID(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// MyOrders returns the authenticated customer's own order history.
func (h *Handlers) MyOrders(c *gin.Context) {
	claims := claimsFrom(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User isn't authorized"})
		return
	}

	orders, err := h.Orders.OrdersForCustomer(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// KitchenOrders is the kitchen display read path: active orders oldest
// first.
func (h *Handlers) KitchenOrders(c *gin.Context) {
	orders, err := h.Orders.KitchenOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handlers) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		return
	}

	order, err := h.Orders.TransitionStatus(c.Request.Context(), identityFrom(c), c.Param("order_id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CapturePayment charges the order's card token through the gateway.
func (h *Handlers) CapturePayment(c *gin.Context) {
	var req CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.CapturePayment(c.Request.Context(), identityFrom(c), c.Param("order_id"), req.SourceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// RenumberOrder corrects an order's number, optionally shifting the orders
// in between.
func (h *Handlers) RenumberOrder(c *gin.Context) {
	var req RenumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.Orders.CorrectOrderNumber(c.Request.Context(), identityFrom(c), c.Param("order_id"), req.NewNumber, req.AdjustSubsequent)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CompleteThrough bulk-completes the active queue up to and including the
// target order. Partial results come back with a 207 so the display can
// reconcile.
func (h *Handlers) CompleteThrough(c *gin.Context) {
	result, err := h.Orders.CompleteThrough(c.Request.Context(), identityFrom(c), c.Param("order_id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) && len(result.CompletedIDs) == 0 {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusMultiStatus, gin.H{"error": err.Error(), "completed_ids": result.CompletedIDs})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) TerminalCheckout(c *gin.Context) {
	result, err := h.Orders.TerminalCheckout(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handlers) TerminalStatus(c *gin.Context) {
	result, err := h.Orders.TerminalStatus(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SimulatePayment marks an order paid without a gateway call; sandbox only.
func (h *Handlers) SimulatePayment(c *gin.Context) {
	order, err := h.Orders.SimulatePaymentComplete(c.Request.Context(), identityFrom(c), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// Summary is the admin revenue roll-up.
func (h *Handlers) Summary(c *gin.Context) {
	summary, err := h.Orders.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
