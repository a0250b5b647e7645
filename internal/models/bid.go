// server/internal/models/bid.go
package models

import "time"

type BidStatus string

const (
	BidPending   BidStatus = "pending"
	BidAccepted  BidStatus = "accepted"
	BidRejected  BidStatus = "rejected"
	BidWithdrawn BidStatus = "withdrawn"
)

// Bid is a carrier's offer to haul a load.
type Bid struct {
	ID                    string    `bson:"_id" json:"id"`
	LoadID                string    `bson:"loadId" json:"loadId"`
	CarrierID             string    `bson:"carrierId" json:"carrierId"`
	CarrierName           string    `bson:"carrierName" json:"carrierName"`
	Amount                float64   `bson:"amount" json:"amount"`
	EstimatedDeliveryDate time.Time `bson:"estimatedDeliveryDate" json:"estimatedDeliveryDate"`
	Notes                 string    `bson:"notes,omitempty" json:"notes,omitempty"`
	SubmittedAt           time.Time `bson:"submittedAt" json:"submittedAt"`
	Status                BidStatus `bson:"status" json:"status"`
}
