package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/OmarShahwanGitHub/POS-App/models"
	"github.com/OmarShahwanGitHub/POS-App/store"
)

type CreateMenuItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Category    string          `json:"category" binding:"required"`
}

type UpdateMenuItemRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Available   *bool            `json:"available"`
}

type CustomizationTemplateRequest struct {
	Type  string          `json:"type" binding:"required"`
	Name  string          `json:"name" binding:"required"`
	Price decimal.Decimal `json:"price"`
}

type UpdateCustomizationRequest struct {
	Type  *string          `json:"type"`
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
}

// ListMenu returns the public menu: available items with their
// customization templates.
func (h *Handlers) ListMenu(c *gin.Context) {
	items, err := h.Menu.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListMenuAdmin includes unavailable items.
func (h *Handlers) ListMenuAdmin(c *gin.Context) {
	items, err := h.Menu.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) GetMenuItem(c *gin.Context) {
	item, err := h.Menu.Get(c.Request.Context(), c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handlers) CreateMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   true,
	}
	if err := h.Menu.Create(c.Request.Context(), &item); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handlers) UpdateMenuItem(c *gin.Context) {
	var req UpdateMenuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.Menu.Update(c.Request.Context(), c.Param("item_id"), store.MenuItemUpdate{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Available:   req.Available,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handlers) DeleteMenuItem(c *gin.Context) {
	if err := h.Menu.Delete(c.Request.Context(), c.Param("item_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) ListCustomizations(c *gin.Context) {
	templates, err := h.Menu.ListCustomizations(c.Request.Context(), c.Param("item_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handlers) AddCustomization(c *gin.Context) {
	var req CustomizationTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl := models.CustomizationTemplate{
		MenuItemID: c.Param("item_id"),
		Type:       req.Type,
		Name:       req.Name,
		Price:      req.Price,
	}
	if err := h.Menu.AddCustomization(c.Request.Context(), &tmpl); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (h *Handlers) UpdateCustomization(c *gin.Context) {
	var req UpdateCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tmpl, err := h.Menu.UpdateCustomization(c.Request.Context(), c.Param("customization_id"), store.CustomizationUpdate{
		Type:  req.Type,
		Name:  req.Name,
		Price: req.Price,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *Handlers) DeleteCustomization(c *gin.Context) {
	if err := h.Menu.DeleteCustomization(c.Request.Context(), c.Param("customization_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
