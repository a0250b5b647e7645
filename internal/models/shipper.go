// server/internal/models/shipper.go
package models

import "time"

// Shipper is a company posting loads on the marketplace.
type Shipper struct {
	ID                 string    `bson:"_id" json:"id"`
	CompanyName        string    `bson:"companyName" json:"companyName"`
	ContactName        string    `bson:"contactName" json:"contactName"`
	Email              string    `bson:"email" json:"email"`
	Phone              string    `bson:"phone" json:"phone"`
	Address            Location  `bson:"address" json:"address"`
	BusinessLicense    string    `bson:"businessLicense" json:"businessLicense"`
	FoodHandlingPermit string    `bson:"foodHandlingPermit" json:"foodHandlingPermit"`
	RegistrationDate   time.Time `bson:"registrationDate" json:"registrationDate"`
	Rating             *float64  `bson:"rating,omitempty" json:"rating,omitempty"`
	TotalShipments     int       `bson:"totalShipments,omitempty" json:"totalShipments,omitempty"`
}

func (s Shipper) Clone() Shipper {
	out := s
	if s.Rating != nil {
		r := *s.Rating
		out.Rating = &r
	}
	return out
}
