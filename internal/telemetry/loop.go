// Package telemetry drives in-transit shipments: it appends readings,
// re-evaluates compliance and publishes live updates, one shipment at a time
// per id.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"coldchain-freight-api-server/internal/clock"
	"coldchain-freight-api-server/internal/compliance"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"
)

// DefaultInterval is the tick period when Deps.Interval is zero.
const DefaultInterval = 30 * time.Second

// ErrNotInTransit is returned by Advance for shipments the loop does not move.
var ErrNotInTransit = errors.New("shipment is not in transit")

// ErrInvalidTransition is returned by Transition when the shipment is not in
// the expected status.
var ErrInvalidTransition = errors.New("invalid shipment status transition")

type Store interface {
	GetShipment(ctx context.Context, id string) (models.Shipment, error)
	ListShipments(ctx context.Context, filter repository.ShipmentFilter) ([]models.Shipment, error)
	AppendTelemetry(ctx context.Context, id string, point models.TelemetryPoint) error
	UpdateShipmentProgress(ctx context.Context, id string, update repository.ShipmentProgressUpdate) error
}

// Checker recomputes and edits a shipment's compliance state.
type Checker interface {
	Check(ctx context.Context, shipmentID string) (compliance.Report, error)
	ResolveIssue(ctx context.Context, shipmentID, issueID string) (compliance.Report, error)
}

// Publisher delivers live updates keyed by shipment id.
type Publisher interface {
	Publish(ctx context.Context, shipmentID string, update models.ShipmentUpdate) error
}

// Archiver keeps a copy of the report written when a shipment enters violation.
type Archiver interface {
	ArchiveReport(ctx context.Context, report models.ComplianceReport) (string, error)
}

type Deps struct {
	Store     Store
	Checker   Checker
	Source    Source
	Publisher Publisher
	Archiver  Archiver // optional
	Clock     clock.Clock
	Logger    *slog.Logger
	Interval  time.Duration
}

// Loop is the single writer of telemetry and derived compliance state. Every
// mutation of one shipment (tick, push, recheck, resolve) runs under that
// shipment's lock, so the append, check, persist and publish steps never
// interleave for the same id.
type Loop struct {
	store     Store
	checker   Checker
	source    Source
	publisher Publisher
	archiver  Archiver
	clock     clock.Clock
	logger    *slog.Logger
	interval  time.Duration

	locks *shipmentLocks
}

func NewLoop(d Deps) *Loop {
	if d.Clock == nil {
		d.Clock = clock.Real()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Interval <= 0 {
		d.Interval = DefaultInterval
	}
	return &Loop{
		store:     d.Store,
		checker:   d.Checker,
		source:    d.Source,
		publisher: d.Publisher,
		archiver:  d.Archiver,
		clock:     d.Clock,
		logger:    d.Logger.With("component", "telemetry"),
		interval:  d.Interval,
		locks:     newShipmentLocks(),
	}
}

// Run ticks every interval until ctx is cancelled. A tick already under way
// finishes before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()
	l.logger.Info("telemetry loop started", "interval", l.interval)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("telemetry loop stopped")
			return nil
		case <-ticker.C:
			if _, err := l.Tick(context.WithoutCancel(ctx)); err != nil {
				l.logger.Error("telemetry tick failed", "error", err)
			}
		}
	}
}

// Tick advances every in-transit shipment once, in parallel across
// shipments, and returns after all of them finished. Failures are logged per
// shipment; the returned count is how many shipments advanced.
func (l *Loop) Tick(ctx context.Context) (int, error) {
	shipments, err := l.store.ListShipments(ctx, repository.ShipmentFilter{Status: models.StatusInTransit})
	if err != nil {
		return 0, fmt.Errorf("telemetry: list in-transit shipments: %w", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		advanced int
	)
	for _, s := range shipments {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := l.Advance(ctx, id); err != nil {
				l.logger.Warn("shipment tick failed", "shipment", id, "error", err)
				return
			}
			mu.Lock()
			advanced++
			mu.Unlock()
		}(s.ID)
	}
	wg.Wait()
	l.logger.Debug("telemetry tick finished", "shipments", len(shipments), "advanced", advanced)
	return advanced, nil
}

// Advance appends one synthesized reading to an in-transit shipment.
func (l *Loop) Advance(ctx context.Context, shipmentID string) (compliance.Report, error) {
	unlock := l.locks.lock(shipmentID)
	defer unlock()

	s, err := l.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return compliance.Report{}, fmt.Errorf("telemetry: %w", err)
	}
	// Status can change between the listing and taking the lock.
	if s.Status != models.StatusInTransit {
		return compliance.Report{}, fmt.Errorf("telemetry: shipment %s: %w", shipmentID, ErrNotInTransit)
	}
	return l.record(ctx, s, l.source.Next(s, l.clock.Now()))
}

// Ingest records a reading pushed by a device. Any shipment status is
// accepted. A zero timestamp is stamped with the current time.
func (l *Loop) Ingest(ctx context.Context, shipmentID string, point models.TelemetryPoint) (models.TelemetryPoint, compliance.Report, error) {
	if point.Timestamp.IsZero() {
		point.Timestamp = l.clock.Now()
	}

	unlock := l.locks.lock(shipmentID)
	defer unlock()

	s, err := l.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return point, compliance.Report{}, fmt.Errorf("telemetry: %w", err)
	}
	report, err := l.record(ctx, s, point)
	return point, report, err
}

// Recheck recomputes compliance without a new reading. Subscribers hear
// about it only when the status changed.
func (l *Loop) Recheck(ctx context.Context, shipmentID string) (compliance.Report, error) {
	unlock := l.locks.lock(shipmentID)
	defer unlock()

	report, err := l.checker.Check(ctx, shipmentID)
	if err != nil {
		return report, err
	}
	if report.Changed() {
		l.afterCheck(ctx, shipmentID, report)
	}
	return report, nil
}

// ResolveIssue marks one issue resolved under the shipment lock.
func (l *Loop) ResolveIssue(ctx context.Context, shipmentID, issueID string) (compliance.Report, error) {
	unlock := l.locks.lock(shipmentID)
	defer unlock()

	report, err := l.checker.ResolveIssue(ctx, shipmentID, issueID)
	if err != nil {
		return report, err
	}
	if report.Changed() {
		l.afterCheck(ctx, shipmentID, report)
	}
	return report, nil
}

// Transition moves a shipment out of status from, then re-evaluates and
// publishes it. It returns the shipment as stored afterwards.
func (l *Loop) Transition(ctx context.Context, shipmentID string, from models.ShipmentStatus, update repository.ShipmentProgressUpdate) (models.Shipment, error) {
	unlock := l.locks.lock(shipmentID)
	defer unlock()

	s, err := l.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, fmt.Errorf("telemetry: %w", err)
	}
	if s.Status != from {
		return models.Shipment{}, fmt.Errorf("shipment %s is %s, want %s: %w", shipmentID, s.Status, from, ErrInvalidTransition)
	}
	if err := l.store.UpdateShipmentProgress(ctx, shipmentID, update); err != nil {
		return models.Shipment{}, fmt.Errorf("telemetry: update %s: %w", shipmentID, err)
	}
	report, err := l.checker.Check(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, fmt.Errorf("telemetry: %w", err)
	}
	l.afterCheck(ctx, shipmentID, report)

	s, err = l.store.GetShipment(ctx, shipmentID)
	if err != nil {
		return models.Shipment{}, fmt.Errorf("telemetry: %w", err)
	}
	l.logger.Info("shipment status changed", "shipment", shipmentID, "from", from, "to", s.Status)
	return s, nil
}

// record must run under the shipment's lock.
func (l *Loop) record(ctx context.Context, s models.Shipment, point models.TelemetryPoint) (compliance.Report, error) {
	if err := l.store.AppendTelemetry(ctx, s.ID, point); err != nil {
		return compliance.Report{}, fmt.Errorf("telemetry: append %s: %w", s.ID, err)
	}
	report, err := l.checker.Check(ctx, s.ID)
	if err != nil {
		return compliance.Report{}, fmt.Errorf("telemetry: %w", err)
	}
	l.afterCheck(ctx, s.ID, report)
	return report, nil
}

// afterCheck publishes the shipment's current state and archives a report on
// entry into violation. Neither failure undoes the persisted evaluation.
func (l *Loop) afterCheck(ctx context.Context, shipmentID string, report compliance.Report) {
	s, err := l.store.GetShipment(ctx, shipmentID)
	if err != nil {
		l.logger.Warn("reload after compliance check failed", "shipment", shipmentID, "error", err)
		return
	}

	update := models.ShipmentUpdate{
		ShipmentID:       s.ID,
		IoTData:          s.IoTData,
		CurrentLocation:  s.CurrentLocation,
		ComplianceStatus: report.Status,
	}
	if err := l.publisher.Publish(ctx, s.ID, update); err != nil {
		l.logger.Warn("publish shipment update failed", "shipment", s.ID, "error", err)
	}

	if report.Status != models.ComplianceViolation || report.Previous == models.ComplianceViolation {
		return
	}
	l.logger.Warn("shipment entered violation", "shipment", s.ID, "issues", len(report.Issues))
	if l.archiver == nil {
		return
	}
	var last *models.TelemetryPoint
	if n := len(s.IoTData); n > 0 {
		last = &s.IoTData[n-1]
	}
	url, err := l.archiver.ArchiveReport(ctx, models.ComplianceReport{
		ShipmentID:     s.ID,
		LoadID:         s.LoadID,
		CarrierID:      s.CarrierID,
		CarrierName:    s.CarrierName,
		Status:         report.Status,
		Issues:         report.Issues,
		TelemetryCount: len(s.IoTData),
		LastReading:    last,
		GeneratedAt:    l.clock.Now(),
	})
	if err != nil {
		l.logger.Warn("archive compliance report failed", "shipment", s.ID, "error", err)
		return
	}
	l.logger.Info("compliance report archived", "shipment", s.ID, "url", url)
}
