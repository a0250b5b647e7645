// server/internal/api/handlers/admin_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	Users  repository.UserStore
	Logger *slog.Logger
}

type RegisterUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=shipper carrier admin"`
}

// RegisterUser creates an operator account with a bcrypt-hashed password.
func (h *AdminHandler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, h.Logger, err, "User not found")
		return
	}
	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       "active",
	}
	err = h.Users.CreateUser(c.Request.Context(), user)
	if errors.Is(err, repository.ErrConflict) {
		c.JSON(http.StatusConflict, gin.H{"error": "User " + req.Email + " already exists"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err, "User not found")
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, users)
}
