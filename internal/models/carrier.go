// server/internal/models/carrier.go
package models

import "time"

type EquipmentType string

const (
	EquipmentReeferTruck           EquipmentType = "reefer_truck"
	EquipmentDryVan                EquipmentType = "dry_van"
	EquipmentRefrigeratedContainer EquipmentType = "refrigerated_container"
	EquipmentFrozenTruck           EquipmentType = "frozen_truck"
)

type SafetyRating string

const (
	SafetySatisfactory   SafetyRating = "satisfactory"
	SafetyConditional    SafetyRating = "conditional"
	SafetyUnsatisfactory SafetyRating = "unsatisfactory"
)

type VettingStatus string

const (
	VettingPending     VettingStatus = "pending"
	VettingApproved    VettingStatus = "approved"
	VettingRejected    VettingStatus = "rejected"
	VettingUnderReview VettingStatus = "under_review"
)

// Equipment is one truck or container unit. Immutable once registered.
type Equipment struct {
	ID                 string           `bson:"id" json:"id"`
	Type               EquipmentType    `bson:"type" json:"type"`
	Make               string           `bson:"make" json:"make"`
	Model              string           `bson:"model" json:"model"`
	Year               int              `bson:"year" json:"year"`
	Capacity           float64          `bson:"capacity" json:"capacity"` // cubic feet
	TemperatureRange   TemperatureRange `bson:"temperatureRange" json:"temperatureRange"`
	Certifications     []string         `bson:"certifications" json:"certifications"`
	LastInspectionDate time.Time        `bson:"lastInspectionDate" json:"lastInspectionDate"`
}

type Insurance struct {
	Liability      float64   `bson:"liability" json:"liability"`
	Cargo          float64   `bson:"cargo" json:"cargo"`
	ExpirationDate time.Time `bson:"expirationDate" json:"expirationDate"`
}

type Carrier struct {
	ID                     string        `bson:"_id" json:"id"`
	CompanyName            string        `bson:"companyName" json:"companyName"`
	ContactName            string        `bson:"contactName" json:"contactName"`
	Email                  string        `bson:"email" json:"email"`
	Phone                  string        `bson:"phone" json:"phone"`
	Address                Location      `bson:"address" json:"address"`
	DOTNumber              string        `bson:"dotNumber" json:"dotNumber"`
	MCNumber               string        `bson:"mcNumber" json:"mcNumber"`
	Equipment              []Equipment   `bson:"equipment" json:"equipment"`
	Insurance              Insurance     `bson:"insurance" json:"insurance"`
	SafetyRating           SafetyRating  `bson:"safetyRating" json:"safetyRating"`
	FoodHandlingExperience int           `bson:"foodHandlingExperience" json:"foodHandlingExperience"` // years
	Certifications         []string      `bson:"certifications" json:"certifications"`
	VettingStatus          VettingStatus `bson:"vettingStatus" json:"vettingStatus"`
	VettingScore           int           `bson:"vettingScore" json:"vettingScore"` // 0-100
	RegistrationDate       time.Time     `bson:"registrationDate" json:"registrationDate"`
	Rating                 *float64      `bson:"rating,omitempty" json:"rating,omitempty"`
	TotalShipments         int           `bson:"totalShipments,omitempty" json:"totalShipments,omitempty"`
}

// Clone returns a deep copy so stores can hand out carriers without sharing slices.
func (c Carrier) Clone() Carrier {
	out := c
	out.Certifications = append([]string(nil), c.Certifications...)
	out.Equipment = make([]Equipment, len(c.Equipment))
	for i, eq := range c.Equipment {
		eq.Certifications = append([]string(nil), eq.Certifications...)
		out.Equipment[i] = eq
	}
	if c.Rating != nil {
		r := *c.Rating
		out.Rating = &r
	}
	return out
}
