// server/internal/api/handlers/user_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"coldchain-freight-api-server/internal/api/middleware"
	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	Users  repository.UserStore
	Tokens *auth.TokenIssuer
	Logger *slog.Logger
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !auth.CheckPasswordHash(req.Password, user.PasswordHash)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err, "User not found")
		return
	}
	if user.Status != "" && user.Status != "active" {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is not active"})
		return
	}

	token, err := h.Tokens.Generate(user.Email, user.Role)
	if err != nil {
		respondError(c, h.Logger, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me returns the identity carried by the caller's token.
func (h *UserHandler) Me(c *gin.Context) {
	caller, ok := middleware.Caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": caller.Email, "role": caller.Role})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
}
