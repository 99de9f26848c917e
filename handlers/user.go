package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OmarShahwanGitHub/POS-App/models"
)

type UpdateUserRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

// ListUsers returns all accounts for the admin user management page.
func (h *Handlers) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// UpdateUserRole promotes or demotes an account.
func (h *Handlers) UpdateUserRole(c *gin.Context) {
	var req UpdateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role value"})
		return
	}

	res := h.DB.Model(&models.User{}).Where("id = ?", c.Param("user_id")).Update("role", req.Role)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var user models.User
	if err := h.DB.First(&user, c.Param("user_id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account. Orders keep their customer name snapshot,
// so history survives the deletion.
func (h *Handlers) DeleteUser(c *gin.Context) {
	claims := claimsFrom(c)
	if claims != nil && c.Param("user_id") == strconv.FormatUint(uint64(claims.UserID), 10) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete your own account"})
		return
	}

	res := h.DB.Delete(&models.User{}, "id = ?", c.Param("user_id"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
