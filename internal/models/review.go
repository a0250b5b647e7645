// server/internal/models/review.go
package models

import "time"

// Review is one party's rating of the other after a shipment.
// ReviewerRole is RoleShipper or RoleCarrier.
type Review struct {
	ID           string    `bson:"_id" json:"id"`
	ShipmentID   string    `bson:"shipmentId" json:"shipmentId"`
	ReviewerID   string    `bson:"reviewerId" json:"reviewerId"`
	ReviewerName string    `bson:"reviewerName" json:"reviewerName"`
	ReviewerRole string    `bson:"reviewerRole" json:"reviewerRole"`
	RevieweeID   string    `bson:"revieweeId" json:"revieweeId"`
	RevieweeName string    `bson:"revieweeName" json:"revieweeName"`
	Rating       int       `bson:"rating" json:"rating"` // 1-5
	Comment      string    `bson:"comment" json:"comment"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
