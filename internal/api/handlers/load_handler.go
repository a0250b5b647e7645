// server/internal/api/handlers/load_handler.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/matching"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LoadHandler struct {
	Loads     repository.LoadStore
	Bids      repository.BidStore
	Shippers  repository.ShipperStore
	Carriers  repository.CarrierStore
	Shipments repository.ShipmentStore
	Matching  *matching.Engine
	Clock     clock.Clock
	Logger    *slog.Logger
}

type CreateLoadRequest struct {
	ShipperID              string                 `json:"shipperId" binding:"required"`
	ShipperName            string                 `json:"shipperName"`
	Origin                 models.Location        `json:"origin"`
	Destination            models.Location        `json:"destination"`
	PickupDate             time.Time              `json:"pickupDate" binding:"required"`
	DeliveryDate           time.Time              `json:"deliveryDate" binding:"required,gtfield=PickupDate"`
	CargoType              string                 `json:"cargoType" binding:"required"`
	Weight                 float64                `json:"weight" binding:"gte=0"`
	Volume                 float64                `json:"volume" binding:"gt=0"`
	TemperatureRequirement models.LoadTemperature `json:"temperatureRequirement"`
	SpecialRequirements    []string               `json:"specialRequirements"`
}

// AssignLoadRequest names the winning carrier, its accepted bid, or both.
type AssignLoadRequest struct {
	CarrierID string `json:"carrierId" binding:"required_without=BidID"`
	BidID     string `json:"bidId"`
}

func (h *LoadHandler) CreateLoad(c *gin.Context) {
	var req CreateLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TemperatureRequirement.Min > req.TemperatureRequirement.Max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "temperatureRequirement.min must not exceed max"})
		return
	}

	shipperName := req.ShipperName
	if shipperName == "" && h.Shippers != nil {
		if shipper, err := h.Shippers.GetShipper(c.Request.Context(), req.ShipperID); err == nil {
			shipperName = shipper.CompanyName
		}
	}

	now := h.Clock.Now()
	load := models.Load{
		ID:                     uuid.NewString(),
		ShipperID:              req.ShipperID,
		ShipperName:            shipperName,
		Origin:                 req.Origin,
		Destination:            req.Destination,
		PickupDate:             req.PickupDate,
		DeliveryDate:           req.DeliveryDate,
		CargoType:              req.CargoType,
		Weight:                 req.Weight,
		Volume:                 req.Volume,
		TemperatureRequirement: req.TemperatureRequirement,
		SpecialRequirements:    req.SpecialRequirements,
		Status:                 models.StatusPosted,
		PostedAt:               now,
		CreatedAt:              now,
	}
	if err := h.Loads.CreateLoad(c.Request.Context(), load); err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	c.JSON(http.StatusCreated, load)
}

// GetAllLoads supports ?status= and ?shipperId= filters.
func (h *LoadHandler) GetAllLoads(c *gin.Context) {
	loads, err := h.Loads.ListLoads(c.Request.Context(), repository.LoadFilter{
		Status:    models.ShipmentStatus(c.Query("status")),
		ShipperID: c.Query("shipperId"),
	})
	if err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	c.JSON(http.StatusOK, loads)
}

func (h *LoadHandler) GetLoadByID(c *gin.Context) {
	load, err := h.Loads.GetLoad(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	c.JSON(http.StatusOK, load)
}

// GetMatches ranks approved carriers for the load.
func (h *LoadHandler) GetMatches(c *gin.Context) {
	matches, err := h.Matching.FindMatches(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	c.JSON(http.StatusOK, matches)
}

// AssignLoad hands an open load to a carrier and opens its shipment. When a
// bid is named it is accepted and the load's other pending bids are rejected.
func (h *LoadHandler) AssignLoad(c *gin.Context) {
	var req AssignLoadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	load, err := h.Loads.GetLoad(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	if !load.Open() {
		respondError(c, h.Logger, repository.ErrLoadClosed, "Load not found")
		return
	}

	carrierID := req.CarrierID
	if req.BidID != "" {
		bid, err := h.Bids.GetBid(ctx, req.BidID)
		if err == nil && bid.LoadID != load.ID {
			err = repository.ErrNotFound
		}
		if err != nil {
			respondError(c, h.Logger, err, "Bid not found")
			return
		}
		if bid.Status != models.BidPending {
			c.JSON(http.StatusConflict, gin.H{"error": "Bid is no longer pending"})
			return
		}
		if carrierID != "" && carrierID != bid.CarrierID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "carrierId does not match the bid"})
			return
		}
		carrierID = bid.CarrierID
	}

	carrier, err := h.Carriers.GetCarrier(ctx, carrierID)
	if err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}

	assignment := repository.LoadAssignment{
		Status:      models.StatusAssigned,
		CarrierID:   carrier.ID,
		CarrierName: carrier.CompanyName,
	}
	if err := h.Loads.AssignLoad(ctx, load.ID, assignment); err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	load.Status = assignment.Status
	load.AssignedCarrierID = assignment.CarrierID
	load.AssignedCarrierName = assignment.CarrierName

	if req.BidID != "" {
		if err := h.Bids.SettleBids(ctx, load.ID, req.BidID); err != nil {
			respondError(c, h.Logger, err, "Bid not found")
			return
		}
	}

	now := h.Clock.Now()
	eta := load.DeliveryDate
	shipment := models.Shipment{
		ID:                     uuid.NewString(),
		LoadID:                 load.ID,
		ShipperID:              load.ShipperID,
		ShipperName:            load.ShipperName,
		CarrierID:              carrier.ID,
		CarrierName:            carrier.CompanyName,
		Origin:                 load.Origin,
		Destination:            load.Destination,
		PickupDate:             load.PickupDate,
		DeliveryDate:           load.DeliveryDate,
		CargoType:              load.CargoType,
		Weight:                 load.Weight,
		Volume:                 load.Volume,
		TemperatureRequirement: load.TemperatureRequirement.Band(),
		Status:                 models.StatusAssigned,
		IoTData:                []models.TelemetryPoint{},
		ComplianceStatus:       models.CompliancePending,
		ComplianceIssues:       []models.ComplianceIssue{},
		EstimatedArrival:       &eta,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if len(carrier.Equipment) > 0 {
		shipment.EquipmentID = carrier.Equipment[0].ID
	}
	if err := h.Shipments.CreateShipment(ctx, shipment); err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"load": load, "shipment": shipment})
}
