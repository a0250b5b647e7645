package telemetry

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"coldchain-freight-api-server/internal/models"
)

// Source produces the next sensor reading for an in-transit shipment.
type Source interface {
	Next(s models.Shipment, now time.Time) models.TelemetryPoint
}

// journeyReadings is how many readings a trip is assumed to take end to end.
const journeyReadings = 100

// Simulator synthesizes plausible reefer readings: temperature near the
// middle of the required band, position interpolated along the trip.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator returns a simulator seeded with seed. Zero seeds from the clock.
func NewSimulator(seed int64) *Simulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

func (sim *Simulator) Next(s models.Shipment, now time.Time) models.TelemetryPoint {
	sim.mu.Lock()
	jitter := (sim.rng.Float64() - 0.5) * 2
	humidity := 45 + sim.rng.Float64()*20
	battery := 80 + sim.rng.Float64()*20
	sim.mu.Unlock()

	band := s.TemperatureRequirement
	temp := math.Max(band.Min-1, math.Min(band.Max+1, band.Midpoint()+jitter))

	progress := math.Min(1, float64(len(s.IoTData))/journeyReadings)
	return models.TelemetryPoint{
		Timestamp:   now,
		Temperature: temp,
		Humidity:    humidity,
		Location: models.Location{
			Lat:     s.Origin.Lat + (s.Destination.Lat-s.Origin.Lat)*progress,
			Lng:     s.Origin.Lng + (s.Destination.Lng-s.Origin.Lng)*progress,
			Address: fmt.Sprintf("In Transit - %d%%", int(math.Round(progress*100))),
			City:    "In Transit",
			State:   "US",
			ZipCode: "00000",
		},
		BatteryLevel: &battery,
		DoorStatus:   models.DoorClosed,
	}
}
