// Package handlers wires the HTTP surface: request binding, role gating,
// and mapping domain errors to status codes. Business rules live in the
// services and store packages.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/OmarShahwanGitHub/POS-App/events"
	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/services"
	"github.com/OmarShahwanGitHub/POS-App/store"
	"github.com/OmarShahwanGitHub/POS-App/utils"
)

type Handlers struct {
	DB        *gorm.DB
	Orders    *services.OrderService
	Menu      *store.MenuStore
	Broker    *events.Broker
	Tokens    *utils.TokenIssuer
	Logger    *zap.Logger
	Keepalive time.Duration
}

func respondError(c *gin.Context, err error) {
	var paymentErr *models.PaymentError
	switch {
	case errors.Is(err, models.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrConstraint):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &paymentErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
