package compliance

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"coldchain-freight-api-server/internal/models"
)

const (
	excursionBuffer = 2.0
	highExcursion   = 3.0
	critExcursion   = 5.0

	monitoringGap = 4 * time.Hour
	minTelemetry  = 10
	delayMedium   = 12 * time.Hour
	delayHigh     = 24 * time.Hour
)

// isoMillis matches the timestamp format clients already parse.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func celsius(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// outside reports whether temp lies beyond max+margin or below min-margin.
func outside(temp float64, band models.TemperatureRange, margin float64) bool {
	return temp > band.Max+margin || temp < band.Min-margin
}

// temperatureExcursions flags every reading outside the band plus buffer.
func temperatureExcursions(s models.Shipment) []models.ComplianceIssue {
	var issues []models.ComplianceIssue
	band := s.TemperatureRequirement

	for i, p := range s.IoTData {
		if !outside(p.Temperature, band, excursionBuffer) {
			continue
		}

		severity := models.SeverityMedium
		switch {
		case outside(p.Temperature, band, critExcursion):
			severity = models.SeverityCritical
		case outside(p.Temperature, band, highExcursion):
			severity = models.SeverityHigh
		}

		issues = append(issues, models.ComplianceIssue{
			ID:       fmt.Sprintf("temp-%s-%d", s.ID, i),
			Type:     models.IssueTemperatureExcursion,
			Severity: severity,
			Description: fmt.Sprintf("Temperature excursion: %.1f°C (required: %s°C - %s°C) at %s",
				p.Temperature, celsius(band.Min), celsius(band.Max), p.Timestamp.UTC().Format(isoMillis)),
			DetectedAt: p.Timestamp,
		})
	}
	return issues
}

// haccpViolations flags door openings in transit, then monitoring gaps.
// Gaps are measured on a time-sorted copy because readings may arrive out of order.
func haccpViolations(s models.Shipment) []models.ComplianceIssue {
	var issues []models.ComplianceIssue

	if s.Status == models.StatusInTransit {
		for i, p := range s.IoTData {
			if p.DoorStatus != models.DoorOpen {
				continue
			}
			issues = append(issues, models.ComplianceIssue{
				ID:          fmt.Sprintf("haccp-%s-%d", s.ID, i),
				Type:        models.IssueHACCPViolation,
				Severity:    models.SeverityHigh,
				Description: "Door opened during transit at " + p.Timestamp.UTC().Format(isoMillis),
				DetectedAt:  p.Timestamp,
			})
		}
	}

	sorted := slices.Clone(s.IoTData)
	slices.SortStableFunc(sorted, func(a, b models.TelemetryPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].Timestamp.Sub(sorted[i-1].Timestamp)
		if gap <= monitoringGap {
			continue
		}
		issues = append(issues, models.ComplianceIssue{
			ID:          fmt.Sprintf("haccp-gap-%s-%d", s.ID, i),
			Type:        models.IssueHACCPViolation,
			Severity:    models.SeverityMedium,
			Description: fmt.Sprintf("Temperature monitoring gap of %.1f hours detected", gap.Hours()),
			DetectedAt:  sorted[i].Timestamp,
		})
	}
	return issues
}

func documentationGaps(s models.Shipment, now time.Time) []models.ComplianceIssue {
	var issues []models.ComplianceIssue

	if s.Status != models.StatusPosted && s.ActualPickupDate == nil {
		issues = append(issues, models.ComplianceIssue{
			ID:          "doc-pickup-" + s.ID,
			Type:        models.IssueDocumentationGap,
			Severity:    models.SeverityMedium,
			Description: "Missing actual pickup date documentation",
			DetectedAt:  now,
		})
	}
	if s.Status == models.StatusDelivered && s.ActualDeliveryDate == nil {
		issues = append(issues, models.ComplianceIssue{
			ID:          "doc-delivery-" + s.ID,
			Type:        models.IssueDocumentationGap,
			Severity:    models.SeverityHigh,
			Description: "Missing actual delivery date documentation",
			DetectedAt:  now,
		})
	}
	if s.Status == models.StatusInTransit && len(s.IoTData) < minTelemetry {
		issues = append(issues, models.ComplianceIssue{
			ID:          "doc-iot-" + s.ID,
			Type:        models.IssueDocumentationGap,
			Severity:    models.SeverityLow,
			Description: "Insufficient IoT monitoring data points",
			DetectedAt:  now,
		})
	}
	return issues
}

func delays(s models.Shipment, now time.Time) []models.ComplianceIssue {
	if s.Status != models.StatusInTransit || s.EstimatedArrival == nil {
		return nil
	}
	late := now.Sub(*s.EstimatedArrival)

	var severity models.Severity
	switch {
	case late > delayHigh:
		severity = models.SeverityHigh
	case late > delayMedium:
		severity = models.SeverityMedium
	default:
		return nil
	}
	return []models.ComplianceIssue{{
		ID:          "delay-" + s.ID,
		Type:        models.IssueDelay,
		Severity:    severity,
		Description: fmt.Sprintf("Shipment delayed by %d hours", int(math.Round(late.Hours()))),
		DetectedAt:  now,
	}}
}
