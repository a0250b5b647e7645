// server/internal/models/load.go
package models

import "time"

type TemperatureClass string

const (
	TemperatureFrozen       TemperatureClass = "frozen"
	TemperatureRefrigerated TemperatureClass = "refrigerated"
	TemperatureCool         TemperatureClass = "cool"
	TemperatureAmbient      TemperatureClass = "ambient"
)

// LoadTemperature is the band a load must be kept in, plus its named class.
type LoadTemperature struct {
	Min   float64          `bson:"min" json:"min"`
	Max   float64          `bson:"max" json:"max"`
	Range TemperatureClass `bson:"range" json:"range"`
}

func (t LoadTemperature) Band() TemperatureRange {
	return TemperatureRange{Min: t.Min, Max: t.Max}
}

// Open reports whether the load still takes bids and can be assigned.
func (l Load) Open() bool {
	return l.Status == StatusPosted || l.Status == StatusBidding
}

type Load struct {
	ID                     string          `bson:"_id" json:"id"`
	ShipperID              string          `bson:"shipperId" json:"shipperId"`
	ShipperName            string          `bson:"shipperName" json:"shipperName"`
	Origin                 Location        `bson:"origin" json:"origin"`
	Destination            Location        `bson:"destination" json:"destination"`
	PickupDate             time.Time       `bson:"pickupDate" json:"pickupDate"`
	DeliveryDate           time.Time       `bson:"deliveryDate" json:"deliveryDate"`
	CargoType              string          `bson:"cargoType" json:"cargoType"`
	Weight                 float64         `bson:"weight" json:"weight"` // pounds
	Volume                 float64         `bson:"volume" json:"volume"` // cubic feet
	TemperatureRequirement LoadTemperature `bson:"temperatureRequirement" json:"temperatureRequirement"`
	SpecialRequirements    []string        `bson:"specialRequirements" json:"specialRequirements"`
	Status                 ShipmentStatus  `bson:"status" json:"status"`
	AssignedCarrierID      string          `bson:"assignedCarrierId,omitempty" json:"assignedCarrierId,omitempty"`
	AssignedCarrierName    string          `bson:"assignedCarrierName,omitempty" json:"assignedCarrierName,omitempty"`
	PostedAt               time.Time       `bson:"postedAt" json:"postedAt"`
	CreatedAt              time.Time       `bson:"createdAt" json:"createdAt"`
}

func (l Load) Clone() Load {
	out := l
	out.SpecialRequirements = append([]string(nil), l.SpecialRequirements...)
	return out
}
