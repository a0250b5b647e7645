// server/internal/api/handlers/carrier_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
	"coldchain-freight-api-server/internal/vetting"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CarrierHandler struct {
	Carriers repository.CarrierStore
	Vetting  *vetting.Engine
	Clock    clock.Clock
	Logger   *slog.Logger
}

type EquipmentRequest struct {
	ID                 string                  `json:"id"`
	Type               models.EquipmentType    `json:"type" binding:"required,oneof=reefer_truck dry_van refrigerated_container frozen_truck"`
	Make               string                  `json:"make"`
	Model              string                  `json:"model"`
	Year               int                     `json:"year"`
	Capacity           float64                 `json:"capacity" binding:"gte=0"`
	TemperatureRange   models.TemperatureRange `json:"temperatureRange"`
	Certifications     []string                `json:"certifications"`
	LastInspectionDate time.Time               `json:"lastInspectionDate"`
}

type CreateCarrierRequest struct {
	CompanyName            string              `json:"companyName" binding:"required"`
	ContactName            string              `json:"contactName"`
	Email                  string              `json:"email" binding:"omitempty,email"`
	Phone                  string              `json:"phone"`
	Address                models.Location     `json:"address"`
	DOTNumber              string              `json:"dotNumber"`
	MCNumber               string              `json:"mcNumber"`
	Equipment              []EquipmentRequest  `json:"equipment" binding:"dive"`
	Insurance              models.Insurance    `json:"insurance"`
	SafetyRating           models.SafetyRating `json:"safetyRating" binding:"required,oneof=satisfactory conditional unsatisfactory"`
	FoodHandlingExperience int                 `json:"foodHandlingExperience" binding:"gte=0"`
	Certifications         []string            `json:"certifications"`
	Rating                 *float64            `json:"rating" binding:"omitempty,gte=0,lte=5"`
}

// CreateCarrier registers a carrier in pending vetting state.
func (h *CarrierHandler) CreateCarrier(c *gin.Context) {
	var req CreateCarrierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	equipment := make([]models.Equipment, 0, len(req.Equipment))
	for _, eq := range req.Equipment {
		id := eq.ID
		if id == "" {
			id = uuid.NewString()
		}
		equipment = append(equipment, models.Equipment{
			ID:                 id,
			Type:               eq.Type,
			Make:               eq.Make,
			Model:              eq.Model,
			Year:               eq.Year,
			Capacity:           eq.Capacity,
			TemperatureRange:   eq.TemperatureRange,
			Certifications:     eq.Certifications,
			LastInspectionDate: eq.LastInspectionDate,
		})
	}

	carrier := models.Carrier{
		ID:                     uuid.NewString(),
		CompanyName:            req.CompanyName,
		ContactName:            req.ContactName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		Address:                req.Address,
		DOTNumber:              req.DOTNumber,
		MCNumber:               req.MCNumber,
		Equipment:              equipment,
		Insurance:              req.Insurance,
		SafetyRating:           req.SafetyRating,
		FoodHandlingExperience: req.FoodHandlingExperience,
		Certifications:         req.Certifications,
		VettingStatus:          models.VettingPending,
		RegistrationDate:       h.Clock.Now(),
		Rating:                 req.Rating,
	}
	if err := h.Carriers.CreateCarrier(c.Request.Context(), carrier); err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}

	c.JSON(http.StatusCreated, carrier)
}

func (h *CarrierHandler) GetAllCarriers(c *gin.Context) {
	carriers, err := h.Carriers.ListCarriers(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}
	c.JSON(http.StatusOK, carriers)
}

func (h *CarrierHandler) GetCarrierByID(c *gin.Context) {
	carrier, err := h.Carriers.GetCarrier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}
	c.JSON(http.StatusOK, carrier)
}

// RunVetting evaluates the carrier and stores the resulting status and score.
func (h *CarrierHandler) RunVetting(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	result, err := h.Vetting.Vet(ctx, id)
	if err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}
	if err := h.Carriers.UpdateCarrierVetting(ctx, id, repository.CarrierVettingUpdate{
		Status: result.Status,
		Score:  result.Score,
	}); err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}

	c.JSON(http.StatusOK, result)
}
