package telemetry

import (
	"testing"

	"coldchain-freight-api-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trip(readings int) models.Shipment {
	s := models.Shipment{
		ID:                     "s1",
		Status:                 models.StatusInTransit,
		TemperatureRequirement: models.TemperatureRange{Min: 2, Max: 8},
		Origin:                 models.Location{Lat: 40, Lng: -80},
		Destination:            models.Location{Lat: 42, Lng: -70},
	}
	for i := 0; i < readings; i++ {
		s.IoTData = append(s.IoTData, models.TelemetryPoint{Temperature: 5})
	}
	return s
}

func TestSimulatorIsSeeded(t *testing.T) {
	a, b := NewSimulator(42), NewSimulator(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Next(trip(i), now), b.Next(trip(i), now))
	}
}

func TestSimulatorStaysNearBand(t *testing.T) {
	sim := NewSimulator(7)
	for i := 0; i < 500; i++ {
		p := sim.Next(trip(0), now)
		assert.GreaterOrEqual(t, p.Temperature, 4.0)
		assert.LessOrEqual(t, p.Temperature, 6.0)
		assert.GreaterOrEqual(t, p.Humidity, 45.0)
		assert.Less(t, p.Humidity, 65.0)
		require.NotNil(t, p.BatteryLevel)
		assert.GreaterOrEqual(t, *p.BatteryLevel, 80.0)
		assert.Equal(t, models.DoorClosed, p.DoorStatus)
		assert.Equal(t, now, p.Timestamp)
	}
}

func TestSimulatorClampsToBandPlusOne(t *testing.T) {
	s := trip(0)
	// A degenerate band: the midpoint jitter must still land within one degree.
	s.TemperatureRequirement = models.TemperatureRange{Min: -18, Max: -18}
	sim := NewSimulator(3)
	for i := 0; i < 200; i++ {
		p := sim.Next(s, now)
		assert.GreaterOrEqual(t, p.Temperature, -19.0)
		assert.LessOrEqual(t, p.Temperature, -17.0)
	}
}

func TestSimulatorInterpolatesRoute(t *testing.T) {
	sim := NewSimulator(1)

	start := sim.Next(trip(0), now)
	assert.Equal(t, 40.0, start.Location.Lat)
	assert.Equal(t, "In Transit - 0%", start.Location.Address)

	half := sim.Next(trip(50), now)
	assert.InDelta(t, 41.0, half.Location.Lat, 1e-9)
	assert.InDelta(t, -75.0, half.Location.Lng, 1e-9)
	assert.Equal(t, "In Transit - 50%", half.Location.Address)

	past := sim.Next(trip(150), now)
	assert.InDelta(t, 42.0, past.Location.Lat, 1e-9)
	assert.InDelta(t, -70.0, past.Location.Lng, 1e-9)
	assert.Equal(t, "In Transit - 100%", past.Location.Address)
}
