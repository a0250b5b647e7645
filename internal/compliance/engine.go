// Package compliance recomputes a shipment's compliance issues from its
// telemetry and lifecycle metadata.
package compliance

import (
	"context"
	"fmt"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
)

// ErrIssueNotFound is returned by ResolveIssue for an issue id the shipment does not carry.
var ErrIssueNotFound = fmt.Errorf("compliance issue: %w", repository.ErrNotFound)

// Store is the part of the record store compliance reads and writes.
type Store interface {
	GetShipment(ctx context.Context, id string) (models.Shipment, error)
	UpdateShipmentCompliance(ctx context.Context, id string, update repository.ComplianceUpdate) error
}

// Report is the outcome of one compliance pass.
type Report struct {
	ShipmentID string                   `json:"shipmentId"`
	Issues     []models.ComplianceIssue `json:"issues"`
	Status     models.ComplianceStatus  `json:"complianceStatus"`
	// Previous is the status stored before this pass.
	Previous models.ComplianceStatus `json:"-"`
}

// Changed reports whether the pass moved the shipment to a different status.
func (r Report) Changed() bool { return r.Status != r.Previous }

type Engine struct {
	store Store
	clock clock.Clock
}

func NewEngine(store Store, clk clock.Clock) *Engine {
	return &Engine{store: store, clock: clk}
}

// Check regenerates the shipment's issues and replaces its stored compliance
// state with them. Previously resolved issues come back unresolved if their
// condition still holds: resolution is not carried across passes.
func (e *Engine) Check(ctx context.Context, shipmentID string) (Report, error) {
	s, err := e.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return Report{}, fmt.Errorf("compliance: %w", err)
	}

	issues := Evaluate(s, e.clock.Now())
	status := DeriveStatus(issues)
	if err := e.store.UpdateShipmentCompliance(ctx, shipmentID, repository.ComplianceUpdate{
		Status: status,
		Issues: issues,
	}); err != nil {
		return Report{}, fmt.Errorf("compliance: save %s: %w", shipmentID, err)
	}

	return Report{ShipmentID: shipmentID, Issues: issues, Status: status, Previous: s.ComplianceStatus}, nil
}

// Resolve marks one stored issue resolved and re-derives the status from the
// stored issue set. The next Check discards the flag.
func (e *Engine) ResolveIssue(ctx context.Context, shipmentID, issueID string) (Report, error) {
	s, err := e.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return Report{}, fmt.Errorf("compliance: %w", err)
	}

	issues := models.CloneIssues(s.ComplianceIssues)
	found := false
	for i := range issues {
		if issues[i].ID != issueID {
			continue
		}
		found = true
		if !issues[i].Resolved {
			at := e.clock.Now()
			issues[i].Resolved = true
			issues[i].ResolvedAt = &at
		}
	}
	if !found {
		return Report{}, fmt.Errorf("shipment %s issue %s: %w", shipmentID, issueID, ErrIssueNotFound)
	}

	status := DeriveStatus(issues)
	if err := e.store.UpdateShipmentCompliance(ctx, shipmentID, repository.ComplianceUpdate{
		Status: status,
		Issues: issues,
	}); err != nil {
		return Report{}, fmt.Errorf("compliance: save %s: %w", shipmentID, err)
	}
	return Report{ShipmentID: shipmentID, Issues: issues, Status: status, Previous: s.ComplianceStatus}, nil
}

// Evaluate runs every detector in its fixed order. Issue ids depend on that
// order, so it must not change.
func Evaluate(s models.Shipment, now time.Time) []models.ComplianceIssue {
	issues := []models.ComplianceIssue{}
	issues = append(issues, temperatureExcursions(s)...)
	issues = append(issues, haccpViolations(s)...)
	issues = append(issues, documentationGaps(s, now)...)
	issues = append(issues, delays(s, now)...)
	return issues
}

// DeriveStatus is a pure function of the issue set.
func DeriveStatus(issues []models.ComplianceIssue) models.ComplianceStatus {
	if len(issues) == 0 {
		return models.ComplianceCompliant
	}
	unresolved := false
	for _, issue := range issues {
		if issue.Resolved {
			continue
		}
		if issue.Severity.Rank() >= models.SeverityHigh.Rank() {
			return models.ComplianceViolation
		}
		unresolved = true
	}
	if unresolved {
		return models.ComplianceWarning
	}
	return models.ComplianceCompliant
}
