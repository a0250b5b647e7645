// server/internal/api/handlers/shipment_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/compliance"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
	"coldchain-freight-api-server/internal/telemetry"

	"github.com/gin-gonic/gin"
)

type ShipmentHandler struct {
	Shipments repository.ShipmentStore
	Telemetry *telemetry.Loop
	Clock     clock.Clock
	Logger    *slog.Logger
}

// IoTDataRequest is one reading pushed by a reefer unit.
type IoTDataRequest struct {
	Timestamp    *time.Time        `json:"timestamp"`
	Temperature  *float64          `json:"temperature" binding:"required"`
	Humidity     float64           `json:"humidity" binding:"gte=0,lte=100"`
	Location     models.Location   `json:"location"`
	BatteryLevel *float64          `json:"batteryLevel" binding:"omitempty,gte=0,lte=100"`
	DoorStatus   models.DoorStatus `json:"doorStatus" binding:"omitempty,oneof=open closed"`
}

type complianceResponse struct {
	Issues           []models.ComplianceIssue `json:"issues"`
	ComplianceStatus models.ComplianceStatus  `json:"complianceStatus"`
}

// GetAllShipments supports ?status=, ?carrierId= and ?shipperId= filters.
func (h *ShipmentHandler) GetAllShipments(c *gin.Context) {
	shipments, err := h.Shipments.ListShipments(c.Request.Context(), repository.ShipmentFilter{
		Status:    models.ShipmentStatus(c.Query("status")),
		CarrierID: c.Query("carrierId"),
		ShipperID: c.Query("shipperId"),
	})
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, shipments)
}

func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipment, err := h.Shipments.GetShipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// ConfirmPickup starts the trip: assigned to in_transit.
func (h *ShipmentHandler) ConfirmPickup(c *gin.Context) {
	now := h.Clock.Now()
	h.transition(c, models.StatusAssigned, repository.ShipmentProgressUpdate{
		Status:           models.StatusInTransit,
		ActualPickupDate: &now,
	})
}

// ConfirmDelivery ends the trip: in_transit to delivered.
func (h *ShipmentHandler) ConfirmDelivery(c *gin.Context) {
	now := h.Clock.Now()
	h.transition(c, models.StatusInTransit, repository.ShipmentProgressUpdate{
		Status:             models.StatusDelivered,
		ActualDeliveryDate: &now,
	})
}

func (h *ShipmentHandler) transition(c *gin.Context, from models.ShipmentStatus, update repository.ShipmentProgressUpdate) {
	shipment, err := h.Telemetry.Transition(c.Request.Context(), c.Param("id"), from, update)
	if errors.Is(err, telemetry.ErrInvalidTransition) {
		c.JSON(http.StatusConflict, gin.H{"error": "Shipment must be " + string(from) + " for this action"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, shipment)
}

// AddIoTData records a device reading and re-evaluates compliance.
func (h *ShipmentHandler) AddIoTData(c *gin.Context) {
	var req IoTDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	point := models.TelemetryPoint{
		Temperature:  *req.Temperature,
		Humidity:     req.Humidity,
		Location:     req.Location,
		BatteryLevel: req.BatteryLevel,
		DoorStatus:   req.DoorStatus,
	}
	if req.Timestamp != nil {
		point.Timestamp = *req.Timestamp
	}

	point, _, err := h.Telemetry.Ingest(c.Request.Context(), c.Param("id"), point)
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, point)
}

// GetCompliance recomputes and returns the shipment's compliance state.
func (h *ShipmentHandler) GetCompliance(c *gin.Context) {
	report, err := h.Telemetry.Recheck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, complianceResponse{Issues: report.Issues, ComplianceStatus: report.Status})
}

func (h *ShipmentHandler) ResolveIssue(c *gin.Context) {
	report, err := h.Telemetry.ResolveIssue(c.Request.Context(), c.Param("id"), c.Param("issueId"))
	if errors.Is(err, compliance.ErrIssueNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Compliance issue not found"})
		return
	}
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}
	c.JSON(http.StatusOK, complianceResponse{Issues: report.Issues, ComplianceStatus: report.Status})
}
