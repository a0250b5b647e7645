// server/internal/models/compliance.go
package models

import "time"

type IssueType string

const (
	IssueTemperatureExcursion IssueType = "temperature_excursion"
	IssueHACCPViolation       IssueType = "haccp_violation"
	IssueDocumentationGap     IssueType = "documentation_gap"
	IssueDelay                IssueType = "delay"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities, critical highest. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

type ComplianceIssue struct {
	ID          string     `bson:"id" json:"id"`
	Type        IssueType  `bson:"type" json:"type"`
	Severity    Severity   `bson:"severity" json:"severity"`
	Description string     `bson:"description" json:"description"`
	DetectedAt  time.Time  `bson:"detectedAt" json:"detectedAt"`
	Resolved    bool       `bson:"resolved" json:"resolved"`
	ResolvedAt  *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

func CloneIssues(in []ComplianceIssue) []ComplianceIssue {
	if in == nil {
		return nil
	}
	out := make([]ComplianceIssue, len(in))
	for i, issue := range in {
		issue.ResolvedAt = cloneTime(issue.ResolvedAt)
		out[i] = issue
	}
	return out
}

// ComplianceReport is the archived snapshot written when a shipment enters violation.
type ComplianceReport struct {
	ShipmentID     string            `json:"shipmentId"`
	LoadID         string            `json:"loadId"`
	CarrierID      string            `json:"carrierId"`
	CarrierName    string            `json:"carrierName"`
	Status         ComplianceStatus  `json:"complianceStatus"`
	Issues         []ComplianceIssue `json:"issues"`
	TelemetryCount int               `json:"telemetryCount"`
	LastReading    *TelemetryPoint   `json:"lastReading,omitempty"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}
