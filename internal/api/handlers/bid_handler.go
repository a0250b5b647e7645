package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BidHandler struct {
	Loads    repository.LoadStore
	Bids     repository.BidStore
	Carriers repository.CarrierStore
	Clock    clock.Clock
	Logger   *slog.Logger
}

type SubmitBidRequest struct {
	CarrierID             string    `json:"carrierId" binding:"required"`
	Amount                float64   `json:"amount" binding:"gt=0"`
	EstimatedDeliveryDate time.Time `json:"estimatedDeliveryDate" binding:"required"`
	Notes                 string    `json:"notes"`
}

// SubmitBid records a carrier's offer on an open load. The first bid moves a
// posted load to bidding.
func (h *BidHandler) SubmitBid(c *gin.Context) {
	var req SubmitBidRequest
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
	carrier, err := h.Carriers.GetCarrier(ctx, req.CarrierID)
	if err != nil {
		respondError(c, h.Logger, err, "Carrier not found")
		return
	}
	if carrier.VettingStatus != models.VettingApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Only approved carriers can bid"})
		return
	}

	bid := models.Bid{
		ID:                    uuid.NewString(),
		LoadID:                load.ID,
		CarrierID:             carrier.ID,
		CarrierName:           carrier.CompanyName,
		Amount:                req.Amount,
		EstimatedDeliveryDate: req.EstimatedDeliveryDate,
		Notes:                 req.Notes,
		SubmittedAt:           h.Clock.Now(),
		Status:                models.BidPending,
	}
	if err := h.Bids.CreateBid(ctx, bid); err != nil {
		respondError(c, h.Logger, err, "Bid not found")
		return
	}
	if err := h.Loads.OpenBidding(ctx, load.ID); err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}

	c.JSON(http.StatusCreated, bid)
}

func (h *BidHandler) GetBids(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.Loads.GetLoad(ctx, c.Param("id")); err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	bids, err := h.Bids.ListBids(ctx, c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err, "Load not found")
		return
	}
	c.JSON(http.StatusOK, bids)
}
