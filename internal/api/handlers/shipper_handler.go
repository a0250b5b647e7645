package handlers

import (
	"log/slog"
	"net/http"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShipperHandler struct {
	Shippers repository.ShipperStore
	Clock    clock.Clock
	Logger   *slog.Logger
}

type CreateShipperRequest struct {
	CompanyName        string          `json:"companyName" binding:"required"`
	ContactName        string          `json:"contactName"`
	Email              string          `json:"email" binding:"omitempty,email"`
	Phone              string          `json:"phone"`
	Address            models.Location `json:"address"`
	BusinessLicense    string          `json:"businessLicense"`
	FoodHandlingPermit string          `json:"foodHandlingPermit"`
}

func (h *ShipperHandler) CreateShipper(c *gin.Context) {
	var req CreateShipperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shipper := models.Shipper{
		ID:                 uuid.NewString(),
		CompanyName:        req.CompanyName,
		ContactName:        req.ContactName,
		Email:              req.Email,
		Phone:              req.Phone,
		Address:            req.Address,
		BusinessLicense:    req.BusinessLicense,
		FoodHandlingPermit: req.FoodHandlingPermit,
		RegistrationDate:   h.Clock.Now(),
	}
	if err := h.Shippers.CreateShipper(c.Request.Context(), shipper); err != nil {
		respondError(c, h.Logger, err, "Shipper not found")
		return
	}
	c.JSON(http.StatusCreated, shipper)
}

func (h *ShipperHandler) GetAllShippers(c *gin.Context) {
	shippers, err := h.Shippers.ListShippers(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err, "Shipper not found")
		return
	}
	c.JSON(http.StatusOK, shippers)
}

func (h *ShipperHandler) GetShipperByID(c *gin.Context) {
	shipper, err := h.Shippers.GetShipper(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Shipper not found")
		return
	}
	c.JSON(http.StatusOK, shipper)
}
