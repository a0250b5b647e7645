// server/internal/models/common.go
package models

// Location is a geocoded point with its postal address.
type Location struct {
	Lat     float64 `bson:"lat" json:"lat"`
	Lng     float64 `bson:"lng" json:"lng"`
	Address string  `bson:"address" json:"address"`
	City    string  `bson:"city" json:"city"`
	State   string  `bson:"state" json:"state"`
	ZipCode string  `bson:"zipCode" json:"zipCode"`
}

// TemperatureRange is a band in degrees Celsius.
type TemperatureRange struct {
	Min float64 `bson:"min" json:"min"`
	Max float64 `bson:"max" json:"max"`
}

// Covers reports whether r contains other, widened by buffer on both ends.
func (r TemperatureRange) Covers(other TemperatureRange, buffer float64) bool {
	return r.Min <= other.Min-buffer && r.Max >= other.Max+buffer
}

// Midpoint returns the center of the band.
func (r TemperatureRange) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}
