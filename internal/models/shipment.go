// server/internal/models/shipment.go
package models

import "time"

type ShipmentStatus string

const (
	StatusPosted    ShipmentStatus = "posted"
	StatusBidding   ShipmentStatus = "bidding"
	StatusAssigned  ShipmentStatus = "assigned"
	StatusInTransit ShipmentStatus = "in_transit"
	StatusDelivered ShipmentStatus = "delivered"
	StatusCancelled ShipmentStatus = "cancelled"
	StatusCompleted ShipmentStatus = "completed"
)

type ComplianceStatus string

const (
	ComplianceCompliant ComplianceStatus = "compliant"
	ComplianceWarning   ComplianceStatus = "warning"
	ComplianceViolation ComplianceStatus = "violation"
	CompliancePending   ComplianceStatus = "pending"
)

type DoorStatus string

const (
	DoorOpen   DoorStatus = "open"
	DoorClosed DoorStatus = "closed"
)

// TelemetryPoint is one sensor reading from a reefer unit. Append-only.
type TelemetryPoint struct {
	Timestamp    time.Time  `bson:"timestamp" json:"timestamp"`
	Temperature  float64    `bson:"temperature" json:"temperature"` // Celsius
	Humidity     float64    `bson:"humidity" json:"humidity"`       // percent
	Location     Location   `bson:"location" json:"location"`
	BatteryLevel *float64   `bson:"batteryLevel,omitempty" json:"batteryLevel,omitempty"`
	DoorStatus   DoorStatus `bson:"doorStatus,omitempty" json:"doorStatus,omitempty"`
}

type Shipment struct {
	ID                     string            `bson:"_id" json:"id"`
	LoadID                 string            `bson:"loadId" json:"loadId"`
	ShipperID              string            `bson:"shipperId" json:"shipperId"`
	ShipperName            string            `bson:"shipperName" json:"shipperName"`
	CarrierID              string            `bson:"carrierId" json:"carrierId"`
	CarrierName            string            `bson:"carrierName" json:"carrierName"`
	Origin                 Location          `bson:"origin" json:"origin"`
	Destination            Location          `bson:"destination" json:"destination"`
	PickupDate             time.Time         `bson:"pickupDate" json:"pickupDate"`
	DeliveryDate           time.Time         `bson:"deliveryDate" json:"deliveryDate"`
	ActualPickupDate       *time.Time        `bson:"actualPickupDate,omitempty" json:"actualPickupDate,omitempty"`
	ActualDeliveryDate     *time.Time        `bson:"actualDeliveryDate,omitempty" json:"actualDeliveryDate,omitempty"`
	CargoType              string            `bson:"cargoType" json:"cargoType"`
	Weight                 float64           `bson:"weight" json:"weight"`
	Volume                 float64           `bson:"volume" json:"volume"`
	TemperatureRequirement TemperatureRange  `bson:"temperatureRequirement" json:"temperatureRequirement"`
	EquipmentID            string            `bson:"equipmentId" json:"equipmentId"`
	Status                 ShipmentStatus    `bson:"status" json:"status"`
	CurrentLocation        *Location         `bson:"currentLocation,omitempty" json:"currentLocation,omitempty"`
	IoTData                []TelemetryPoint  `bson:"iotData" json:"iotData"`
	ComplianceStatus       ComplianceStatus  `bson:"complianceStatus" json:"complianceStatus"`
	ComplianceIssues       []ComplianceIssue `bson:"complianceIssues" json:"complianceIssues"`
	EstimatedArrival       *time.Time        `bson:"estimatedArrival,omitempty" json:"estimatedArrival,omitempty"`
	CreatedAt              time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt              time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a deep copy of the shipment, including telemetry and issues.
func (s Shipment) Clone() Shipment {
	out := s
	out.IoTData = make([]TelemetryPoint, len(s.IoTData))
	for i, p := range s.IoTData {
		if p.BatteryLevel != nil {
			b := *p.BatteryLevel
			p.BatteryLevel = &b
		}
		out.IoTData[i] = p
	}
	out.ComplianceIssues = CloneIssues(s.ComplianceIssues)
	if s.CurrentLocation != nil {
		loc := *s.CurrentLocation
		out.CurrentLocation = &loc
	}
	out.ActualPickupDate = cloneTime(s.ActualPickupDate)
	out.ActualDeliveryDate = cloneTime(s.ActualDeliveryDate)
	out.EstimatedArrival = cloneTime(s.EstimatedArrival)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// ShipmentUpdate is the live notification pushed to subscribers of a shipment.
type ShipmentUpdate struct {
	ShipmentID       string           `json:"shipmentId"`
	IoTData          []TelemetryPoint `json:"iotData"`
	CurrentLocation  *Location        `json:"currentLocation,omitempty"`
	ComplianceStatus ComplianceStatus `json:"complianceStatus"`
}
