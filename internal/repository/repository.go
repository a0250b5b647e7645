// server/internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"coldchain-freight-api-server/internal/models"
)

// ErrNotFound is returned when an entity id is unknown.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when creating an entity whose id already exists.
var ErrConflict = errors.New("already exists")

// ErrLoadClosed is returned when assigning a load that is no longer posted or
// bidding.
var ErrLoadClosed = errors.New("load is no longer open")

// CarrierVettingUpdate lists the only carrier fields a vetting pass may change.
type CarrierVettingUpdate struct {
	Status models.VettingStatus
	Score  int
}

// ComplianceUpdate replaces a shipment's derived compliance state wholesale.
type ComplianceUpdate struct {
	Status models.ComplianceStatus
	Issues []models.ComplianceIssue
}

// ShipmentProgressUpdate moves a shipment through its lifecycle.
// Nil dates are left untouched.
type ShipmentProgressUpdate struct {
	Status             models.ShipmentStatus
	ActualPickupDate   *time.Time
	ActualDeliveryDate *time.Time
}

// LoadAssignment records the carrier a load was handed to.
type LoadAssignment struct {
	Status      models.ShipmentStatus
	CarrierID   string
	CarrierName string
}

type LoadFilter struct {
	Status    models.ShipmentStatus
	ShipperID string
}

// ReviewFilter selects reviews about one party. Empty fields match everything.
type ReviewFilter struct {
	RevieweeID   string
	ReviewerRole string
}

func (f ReviewFilter) matches(r models.Review) bool {
	return (f.RevieweeID == "" || r.RevieweeID == f.RevieweeID) &&
		(f.ReviewerRole == "" || r.ReviewerRole == f.ReviewerRole)
}

type ShipmentFilter struct {
	Status    models.ShipmentStatus
	CarrierID string
	ShipperID string
}

func (f ShipmentFilter) matches(s models.Shipment) bool {
	return (f.Status == "" || s.Status == f.Status) &&
		(f.CarrierID == "" || s.CarrierID == f.CarrierID) &&
		(f.ShipperID == "" || s.ShipperID == f.ShipperID)
}

func (f LoadFilter) matches(l models.Load) bool {
	return (f.Status == "" || l.Status == f.Status) &&
		(f.ShipperID == "" || l.ShipperID == f.ShipperID)
}

type CarrierStore interface {
	GetCarrier(ctx context.Context, id string) (models.Carrier, error)
	ListCarriers(ctx context.Context) ([]models.Carrier, error)
	CreateCarrier(ctx context.Context, carrier models.Carrier) error
	UpdateCarrierVetting(ctx context.Context, id string, update CarrierVettingUpdate) error
}

type LoadStore interface {
	GetLoad(ctx context.Context, id string) (models.Load, error)
	ListLoads(ctx context.Context, filter LoadFilter) ([]models.Load, error)
	CreateLoad(ctx context.Context, load models.Load) error
	// AssignLoad claims an open load. It fails with ErrLoadClosed once the
	// load has been assigned, so two concurrent assignments cannot both win.
	AssignLoad(ctx context.Context, id string, assignment LoadAssignment) error
	// OpenBidding moves a posted load to bidding. Loads in any other status
	// are left as they are.
	OpenBidding(ctx context.Context, id string) error
}

type BidStore interface {
	GetBid(ctx context.Context, id string) (models.Bid, error)
	// ListBids returns a load's bids in submission order.
	ListBids(ctx context.Context, loadID string) ([]models.Bid, error)
	CreateBid(ctx context.Context, bid models.Bid) error
	// SettleBids accepts one bid and rejects the load's other pending bids.
	SettleBids(ctx context.Context, loadID, acceptedID string) error
}

type ShipperStore interface {
	GetShipper(ctx context.Context, id string) (models.Shipper, error)
	ListShippers(ctx context.Context) ([]models.Shipper, error)
	CreateShipper(ctx context.Context, shipper models.Shipper) error
}

type ReviewStore interface {
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error)
	CreateReview(ctx context.Context, review models.Review) error
}

type ShipmentStore interface {
	GetShipment(ctx context.Context, id string) (models.Shipment, error)
	ListShipments(ctx context.Context, filter ShipmentFilter) ([]models.Shipment, error)
	CreateShipment(ctx context.Context, shipment models.Shipment) error
	UpdateShipmentCompliance(ctx context.Context, id string, update ComplianceUpdate) error
	UpdateShipmentProgress(ctx context.Context, id string, update ShipmentProgressUpdate) error
	// AppendTelemetry adds one reading and moves currentLocation to it.
	AppendTelemetry(ctx context.Context, id string, point models.TelemetryPoint) error
}

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	CreateUser(ctx context.Context, user models.User) error
}

// Repository is the full record store the service is wired with.
type Repository interface {
	CarrierStore
	LoadStore
	BidStore
	ShipperStore
	ShipmentStore
	ReviewStore
	UserStore
}
