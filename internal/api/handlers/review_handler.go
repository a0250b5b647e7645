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

type ReviewHandler struct {
	Reviews   repository.ReviewStore
	Shipments repository.ShipmentStore
	Clock     clock.Clock
	Logger    *slog.Logger
}

// CreateReviewRequest rates the other party of a shipment. Both parties are
// taken from the shipment itself.
type CreateReviewRequest struct {
	ShipmentID   string `json:"shipmentId" binding:"required"`
	ReviewerRole string `json:"reviewerRole" binding:"required,oneof=shipper carrier"`
	Rating       int    `json:"rating" binding:"required,min=1,max=5"`
	Comment      string `json:"comment"`
}

// GetReviews lists reviews of a carrier (?carrierId=, written by shippers) or
// of a shipper (?shipperId=, written by carriers). carrierId wins if both are set.
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	var filter repository.ReviewFilter
	switch {
	case c.Query("carrierId") != "":
		filter = repository.ReviewFilter{RevieweeID: c.Query("carrierId"), ReviewerRole: models.RoleShipper}
	case c.Query("shipperId") != "":
		filter = repository.ReviewFilter{RevieweeID: c.Query("shipperId"), ReviewerRole: models.RoleCarrier}
	}

	reviews, err := h.Reviews.ListReviews(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.Logger, err, "Review not found")
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	shipment, err := h.Shipments.GetShipment(ctx, req.ShipmentID)
	if err != nil {
		respondError(c, h.Logger, err, "Shipment not found")
		return
	}

	review := models.Review{
		ID:           uuid.NewString(),
		ShipmentID:   shipment.ID,
		ReviewerRole: req.ReviewerRole,
		Rating:       req.Rating,
		Comment:      req.Comment,
		CreatedAt:    h.Clock.Now(),
	}
	if req.ReviewerRole == models.RoleShipper {
		review.ReviewerID, review.ReviewerName = shipment.ShipperID, shipment.ShipperName
		review.RevieweeID, review.RevieweeName = shipment.CarrierID, shipment.CarrierName
	} else {
		review.ReviewerID, review.ReviewerName = shipment.CarrierID, shipment.CarrierName
		review.RevieweeID, review.RevieweeName = shipment.ShipperID, shipment.ShipperName
	}

	if err := h.Reviews.CreateReview(ctx, review); err != nil {
		respondError(c, h.Logger, err, "Review not found")
		return
	}
	c.JSON(http.StatusCreated, review)
}
