package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

// delivered returns a shipment with complete paperwork, so only telemetry
// detectors can fire.
func delivered(points ...models.TelemetryPoint) models.Shipment {
	return models.Shipment{
		ID:                     "s1",
		Status:                 models.StatusDelivered,
		TemperatureRequirement: models.TemperatureRange{Min: 0, Max: 4},
		ActualPickupDate:       timePtr(now.Add(-48 * time.Hour)),
		ActualDeliveryDate:     timePtr(now.Add(-time.Hour)),
		IoTData:                points,
	}
}

func reading(at time.Time, temp float64) models.TelemetryPoint {
	return models.TelemetryPoint{Timestamp: at, Temperature: temp, Humidity: 55, DoorStatus: models.DoorClosed}
}

func TestTemperatureExcursionSeverity(t *testing.T) {
	cases := []struct {
		name     string
		temp     float64
		severity models.Severity // empty means no issue
	}{
		{"inside band", 3, ""},
		{"within buffer", 6, ""},
		{"just past buffer", 7, models.SeverityMedium},
		{"beyond three", 7.5, models.SeverityHigh},
		{"exactly five over", 9, models.SeverityHigh},
		{"beyond five", 9.5, models.SeverityCritical},
		{"below band", -2.5, models.SeverityMedium},
		{"far below band", -6, models.SeverityCritical},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertExcursion(t, delivered(reading(now.Add(-2*time.Hour), tc.temp)), tc.severity)
		})
	}
}

// Thresholds are the widened bounds themselves, so readings on fractional
// bands are graded against max+2, max+3 and max+5 as computed.
func TestTemperatureExcursionSeverity_FractionalBands(t *testing.T) {
	cases := []struct {
		name     string
		band     models.TemperatureRange
		temp     float64
		severity models.Severity
	}{
		{"past buffer above fractional max", models.TemperatureRange{Min: -8, Max: -2.2}, -0.2, models.SeverityMedium},
		{"past five above fractional max", models.TemperatureRange{Min: -20, Max: -6.7}, -1.7, models.SeverityCritical},
		{"on widened max", models.TemperatureRange{Min: -8, Max: -2.5}, -0.5, ""},
		{"below fractional min", models.TemperatureRange{Min: 1.3, Max: 4}, -0.8, models.SeverityMedium},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := delivered(reading(now.Add(-2*time.Hour), tc.temp))
			s.TemperatureRequirement = tc.band
			assertExcursion(t, s, tc.severity)
		})
	}
}

// assertExcursion checks for exactly one excursion of severity, or none when
// severity is empty.
func assertExcursion(t *testing.T, s models.Shipment, severity models.Severity) {
	t.Helper()
	issues := Evaluate(s, now)
	if severity == "" {
		assert.Empty(t, issues)
		return
	}
	require.Len(t, issues, 1)
	assert.Equal(t, models.IssueTemperatureExcursion, issues[0].Type)
	assert.Equal(t, severity, issues[0].Severity)
	assert.Equal(t, "temp-s1-0", issues[0].ID)
}

func TestTemperatureExcursionDescription(t *testing.T) {
	at := time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	issues := Evaluate(delivered(reading(at, 7)), now)

	require.Len(t, issues, 1)
	assert.Equal(t, "Temperature excursion: 7.0°C (required: 0°C - 4°C) at 2026-03-10T08:30:00.000Z", issues[0].Description)
	assert.Equal(t, at, issues[0].DetectedAt)
	assert.False(t, issues[0].Resolved)
	assert.Equal(t, models.ComplianceWarning, DeriveStatus(issues))
}

func TestMonitoringGap(t *testing.T) {
	t0 := now.Add(-10 * time.Hour)
	issues := Evaluate(delivered(reading(t0, 2), reading(t0.Add(5*time.Hour), 2)), now)

	require.Len(t, issues, 1)
	assert.Equal(t, "haccp-gap-s1-1", issues[0].ID)
	assert.Equal(t, models.IssueHACCPViolation, issues[0].Type)
	assert.Equal(t, models.SeverityMedium, issues[0].Severity)
	assert.Equal(t, "Temperature monitoring gap of 5.0 hours detected", issues[0].Description)
}

func TestMonitoringGapSortsOutOfOrderReadings(t *testing.T) {
	t0 := now.Add(-10 * time.Hour)

	t.Run("four hours exactly is no gap", func(t *testing.T) {
		issues := Evaluate(delivered(reading(t0.Add(5*time.Hour), 2), reading(t0, 2), reading(t0.Add(time.Hour), 2)), now)
		assert.Empty(t, issues)
	})

	t.Run("gap found after sorting", func(t *testing.T) {
		issues := Evaluate(delivered(reading(t0.Add(6*time.Hour), 2), reading(t0, 2), reading(t0.Add(time.Hour), 2)), now)
		require.Len(t, issues, 1)
		assert.Equal(t, "haccp-gap-s1-2", issues[0].ID)
		assert.Equal(t, "Temperature monitoring gap of 5.0 hours detected", issues[0].Description)
	})
}

func TestDoorOpenOnlyCountsInTransit(t *testing.T) {
	open := reading(now.Add(-time.Hour), 2)
	open.DoorStatus = models.DoorOpen

	s := delivered(open)
	assert.Empty(t, Evaluate(s, now))

	s.Status = models.StatusInTransit
	issues := Evaluate(s, now)
	require.Len(t, issues, 2)
	assert.Equal(t, "haccp-s1-0", issues[0].ID)
	assert.Equal(t, models.SeverityHigh, issues[0].Severity)
	assert.Equal(t, "Door opened during transit at "+open.Timestamp.Format(isoMillis), issues[0].Description)
	assert.Equal(t, "doc-iot-s1", issues[1].ID)
	assert.Equal(t, models.ComplianceViolation, DeriveStatus(issues))
}

func TestDocumentationGaps(t *testing.T) {
	t.Run("posted needs nothing", func(t *testing.T) {
		assert.Empty(t, Evaluate(models.Shipment{ID: "s1", Status: models.StatusPosted}, now))
	})

	t.Run("assigned without pickup date", func(t *testing.T) {
		issues := Evaluate(models.Shipment{ID: "s1", Status: models.StatusAssigned}, now)
		require.Len(t, issues, 1)
		assert.Equal(t, "doc-pickup-s1", issues[0].ID)
		assert.Equal(t, models.SeverityMedium, issues[0].Severity)
		assert.Equal(t, "Missing actual pickup date documentation", issues[0].Description)
		assert.Equal(t, now, issues[0].DetectedAt)
	})

	t.Run("delivered without any dates", func(t *testing.T) {
		issues := Evaluate(models.Shipment{ID: "s1", Status: models.StatusDelivered}, now)
		require.Len(t, issues, 2)
		assert.Equal(t, "doc-pickup-s1", issues[0].ID)
		assert.Equal(t, "doc-delivery-s1", issues[1].ID)
		assert.Equal(t, models.SeverityHigh, issues[1].Severity)
		assert.Equal(t, models.ComplianceViolation, DeriveStatus(issues))
	})

	t.Run("in transit with sparse telemetry", func(t *testing.T) {
		s := models.Shipment{ID: "s1", Status: models.StatusInTransit, ActualPickupDate: timePtr(now)}
		for i := 0; i < 9; i++ {
			s.IoTData = append(s.IoTData, reading(now.Add(time.Duration(i)*time.Minute), 2))
		}
		issues := Evaluate(s, now)
		require.Len(t, issues, 1)
		assert.Equal(t, "doc-iot-s1", issues[0].ID)
		assert.Equal(t, models.SeverityLow, issues[0].Severity)

		s.IoTData = append(s.IoTData, reading(now.Add(10*time.Minute), 2))
		s.TemperatureRequirement = models.TemperatureRange{Min: 0, Max: 4}
		assert.Empty(t, Evaluate(s, now))
	})
}

func TestDelay(t *testing.T) {
	cases := []struct {
		name        string
		late        time.Duration
		severity    models.Severity
		description string
	}{
		{"on time", -time.Hour, "", ""},
		{"twelve hours is tolerated", 12 * time.Hour, "", ""},
		{"thirteen hours", 13 * time.Hour, models.SeverityMedium, "Shipment delayed by 13 hours"},
		{"twenty four hours", 24 * time.Hour, models.SeverityMedium, "Shipment delayed by 24 hours"},
		{"twenty five hours", 25 * time.Hour, models.SeverityHigh, "Shipment delayed by 25 hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := models.Shipment{
				ID:               "s1",
				Status:           models.StatusInTransit,
				ActualPickupDate: timePtr(now.Add(-72 * time.Hour)),
				EstimatedArrival: timePtr(now.Add(-tc.late)),
			}
			issues := delays(s, now)
			if tc.severity == "" {
				assert.Empty(t, issues)
				return
			}
			require.Len(t, issues, 1)
			assert.Equal(t, "delay-s1", issues[0].ID)
			assert.Equal(t, models.IssueDelay, issues[0].Type)
			assert.Equal(t, tc.severity, issues[0].Severity)
			assert.Equal(t, tc.description, issues[0].Description)
		})
	}

	t.Run("only in transit", func(t *testing.T) {
		s := delivered()
		s.EstimatedArrival = timePtr(now.Add(-72 * time.Hour))
		assert.Empty(t, delays(s, now))
	})
}

func TestEvaluateOrdersDetectors(t *testing.T) {
	t0 := now.Add(-30 * time.Hour)
	open := reading(t0, 12)
	open.DoorStatus = models.DoorOpen
	s := models.Shipment{
		ID:                     "s9",
		Status:                 models.StatusInTransit,
		TemperatureRequirement: models.TemperatureRange{Min: 0, Max: 4},
		EstimatedArrival:       timePtr(now.Add(-30 * time.Hour)),
		IoTData:                []models.TelemetryPoint{open, reading(t0.Add(6*time.Hour), 2)},
	}

	var ids []string
	for _, issue := range Evaluate(s, now) {
		ids = append(ids, issue.ID)
	}
	assert.Equal(t, []string{
		"temp-s9-0",
		"haccp-s9-0",
		"haccp-gap-s9-1",
		"doc-pickup-s9",
		"doc-iot-s9",
		"delay-s9",
	}, ids)
}

func TestEvaluateIsNeverNil(t *testing.T) {
	issues := Evaluate(models.Shipment{ID: "s1", Status: models.StatusPosted}, now)
	assert.NotNil(t, issues)
	assert.Empty(t, issues)
}

func TestDeriveStatus(t *testing.T) {
	issue := func(sev models.Severity, resolved bool) models.ComplianceIssue {
		return models.ComplianceIssue{Severity: sev, Resolved: resolved}
	}
	cases := []struct {
		name   string
		issues []models.ComplianceIssue
		want   models.ComplianceStatus
	}{
		{"none", nil, models.ComplianceCompliant},
		{"all resolved", []models.ComplianceIssue{issue(models.SeverityCritical, true), issue(models.SeverityLow, true)}, models.ComplianceCompliant},
		{"unresolved low", []models.ComplianceIssue{issue(models.SeverityLow, false)}, models.ComplianceWarning},
		{"unresolved medium beside resolved critical", []models.ComplianceIssue{issue(models.SeverityCritical, true), issue(models.SeverityMedium, false)}, models.ComplianceWarning},
		{"unresolved high", []models.ComplianceIssue{issue(models.SeverityLow, false), issue(models.SeverityHigh, false)}, models.ComplianceViolation},
		{"unresolved critical", []models.ComplianceIssue{issue(models.SeverityCritical, false)}, models.ComplianceViolation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.issues))
		})
	}
}

func seeded(t *testing.T, s models.Shipment) (*Engine, *repository.MemoryRepository) {
	t.Helper()
	repo := repository.NewMemoryRepository()
	require.NoError(t, repo.CreateShipment(context.Background(), s))
	return NewEngine(repo, clock.Fake(now)), repo
}

func TestEngineCheckPersistsFullReplace(t *testing.T) {
	ctx := context.Background()
	s := delivered(reading(now.Add(-time.Hour), 12))
	s.ComplianceStatus = models.CompliancePending
	s.ComplianceIssues = []models.ComplianceIssue{{ID: "stale", Severity: models.SeverityLow}}
	engine, repo := seeded(t, s)

	report, err := engine.Check(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceViolation, report.Status)
	assert.Equal(t, models.CompliancePending, report.Previous)
	assert.True(t, report.Changed())

	stored, err := repo.GetShipment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceViolation, stored.ComplianceStatus)
	require.Len(t, stored.ComplianceIssues, 1)
	assert.Equal(t, "temp-s1-0", stored.ComplianceIssues[0].ID)
	assert.Equal(t, models.SeverityCritical, stored.ComplianceIssues[0].Severity)
}

func TestEngineCheckIsDeterministic(t *testing.T) {
	ctx := context.Background()
	t0 := now.Add(-10 * time.Hour)
	engine, _ := seeded(t, delivered(reading(t0, 8), reading(t0.Add(5*time.Hour), -3)))

	first, err := engine.Check(ctx, "s1")
	require.NoError(t, err)
	second, err := engine.Check(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, first.Issues, second.Issues)
	assert.False(t, second.Changed())
}

func TestEngineCheckNotFound(t *testing.T) {
	engine := NewEngine(repository.NewMemoryRepository(), clock.Fake(now))
	_, err := engine.Check(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestEngineResolveIssue(t *testing.T) {
	ctx := context.Background()
	engine, repo := seeded(t, delivered(reading(now.Add(-time.Hour), 12)))
	_, err := engine.Check(ctx, "s1")
	require.NoError(t, err)

	report, err := engine.ResolveIssue(ctx, "s1", "temp-s1-0")
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceCompliant, report.Status)
	require.Len(t, report.Issues, 1)
	assert.True(t, report.Issues[0].Resolved)
	require.NotNil(t, report.Issues[0].ResolvedAt)
	assert.Equal(t, now, *report.Issues[0].ResolvedAt)

	stored, err := repo.GetShipment(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceCompliant, stored.ComplianceStatus)
	assert.True(t, stored.ComplianceIssues[0].Resolved)

	// The next pass regenerates the issue unresolved.
	report, err = engine.Check(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ComplianceViolation, report.Status)
	assert.False(t, report.Issues[0].Resolved)
}

func TestEngineResolveUnknownIssue(t *testing.T) {
	engine, _ := seeded(t, delivered())

	_, err := engine.ResolveIssue(context.Background(), "s1", "temp-s1-7")
	assert.ErrorIs(t, err, ErrIssueNotFound)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
