// server/internal/repository/memory.go
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coldchain-freight-api-server/internal/models"
)

// MemoryRepository keeps every entity in process memory. Lists come back in
// insertion order. Values are deep-copied in and out, so callers never alias
// stored state, and each method is atomic with respect to the others.
type MemoryRepository struct {
	mu sync.RWMutex

	carriers     map[string]models.Carrier
	carrierOrder []string
	loads        map[string]models.Load
	loadOrder    []string
	bids         map[string]models.Bid
	bidOrder     []string
	shippers     map[string]models.Shipper
	shipperOrder []string
	shipments    map[string]models.Shipment
	shipOrder    []string
	reviews      []models.Review
	users        map[string]models.User
	userOrder    []string

	now func() time.Time
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		carriers:  make(map[string]models.Carrier),
		loads:     make(map[string]models.Load),
		bids:      make(map[string]models.Bid),
		shippers:  make(map[string]models.Shipper),
		shipments: make(map[string]models.Shipment),
		users:     make(map[string]models.User),
		now:       time.Now,
	}
}

func (r *MemoryRepository) GetCarrier(_ context.Context, id string) (models.Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.carriers[id]
	if !ok {
		return models.Carrier{}, fmt.Errorf("carrier %s: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

func (r *MemoryRepository) ListCarriers(_ context.Context) ([]models.Carrier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Carrier, 0, len(r.carrierOrder))
	for _, id := range r.carrierOrder {
		out = append(out, r.carriers[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) CreateCarrier(_ context.Context, carrier models.Carrier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.carriers[carrier.ID]; ok {
		return fmt.Errorf("carrier %s: %w", carrier.ID, ErrConflict)
	}
	r.carriers[carrier.ID] = carrier.Clone()
	r.carrierOrder = append(r.carrierOrder, carrier.ID)
	return nil
}

func (r *MemoryRepository) UpdateCarrierVetting(_ context.Context, id string, update CarrierVettingUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carriers[id]
	if !ok {
		return fmt.Errorf("carrier %s: %w", id, ErrNotFound)
	}
	c.VettingStatus = update.Status
	c.VettingScore = update.Score
	r.carriers[id] = c
	return nil
}

func (r *MemoryRepository) GetLoad(_ context.Context, id string) (models.Load, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loads[id]
	if !ok {
		return models.Load{}, fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	return l.Clone(), nil
}

func (r *MemoryRepository) ListLoads(_ context.Context, filter LoadFilter) ([]models.Load, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Load, 0, len(r.loadOrder))
	for _, id := range r.loadOrder {
		if l := r.loads[id]; filter.matches(l) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateLoad(_ context.Context, load models.Load) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loads[load.ID]; ok {
		return fmt.Errorf("load %s: %w", load.ID, ErrConflict)
	}
	r.loads[load.ID] = load.Clone()
	r.loadOrder = append(r.loadOrder, load.ID)
	return nil
}

func (r *MemoryRepository) AssignLoad(_ context.Context, id string, assignment LoadAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loads[id]
	if !ok {
		return fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if !l.Open() {
		return fmt.Errorf("load %s: %w", id, ErrLoadClosed)
	}
	l.Status = assignment.Status
	l.AssignedCarrierID = assignment.CarrierID
	l.AssignedCarrierName = assignment.CarrierName
	r.loads[id] = l
	return nil
}

func (r *MemoryRepository) OpenBidding(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.loads[id]
	if !ok {
		return fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	if l.Status == models.StatusPosted {
		l.Status = models.StatusBidding
		r.loads[id] = l
	}
	return nil
}

func (r *MemoryRepository) GetBid(_ context.Context, id string) (models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bids[id]
	if !ok {
		return models.Bid{}, fmt.Errorf("bid %s: %w", id, ErrNotFound)
	}
	return b, nil
}

func (r *MemoryRepository) ListBids(_ context.Context, loadID string) ([]models.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Bid{}
	for _, id := range r.bidOrder {
		if b := r.bids[id]; b.LoadID == loadID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateBid(_ context.Context, bid models.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[bid.ID]; ok {
		return fmt.Errorf("bid %s: %w", bid.ID, ErrConflict)
	}
	r.bids[bid.ID] = bid
	r.bidOrder = append(r.bidOrder, bid.ID)
	return nil
}

func (r *MemoryRepository) SettleBids(_ context.Context, loadID, acceptedID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	accepted, ok := r.bids[acceptedID]
	if !ok || accepted.LoadID != loadID {
		return fmt.Errorf("bid %s: %w", acceptedID, ErrNotFound)
	}
	for id, b := range r.bids {
		switch {
		case b.LoadID != loadID:
			continue
		case id == acceptedID:
			b.Status = models.BidAccepted
		case b.Status == models.BidPending:
			b.Status = models.BidRejected
		}
		r.bids[id] = b
	}
	return nil
}

func (r *MemoryRepository) GetShipper(_ context.Context, id string) (models.Shipper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shippers[id]
	if !ok {
		return models.Shipper{}, fmt.Errorf("shipper %s: %w", id, ErrNotFound)
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) ListShippers(_ context.Context) ([]models.Shipper, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Shipper, 0, len(r.shipperOrder))
	for _, id := range r.shipperOrder {
		out = append(out, r.shippers[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) CreateShipper(_ context.Context, shipper models.Shipper) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shippers[shipper.ID]; ok {
		return fmt.Errorf("shipper %s: %w", shipper.ID, ErrConflict)
	}
	r.shippers[shipper.ID] = shipper.Clone()
	r.shipperOrder = append(r.shipperOrder, shipper.ID)
	return nil
}

func (r *MemoryRepository) GetShipment(_ context.Context, id string) (models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shipments[id]
	if !ok {
		return models.Shipment{}, fmt.Errorf("shipment %s: %w", id, ErrNotFound)
	}
	return s.Clone(), nil
}

func (r *MemoryRepository) ListShipments(_ context.Context, filter ShipmentFilter) ([]models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Shipment, 0, len(r.shipOrder))
	for _, id := range r.shipOrder {
		if s := r.shipments[id]; filter.matches(s) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateShipment(_ context.Context, shipment models.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shipments[shipment.ID]; ok {
		return fmt.Errorf("shipment %s: %w", shipment.ID, ErrConflict)
	}
	r.shipments[shipment.ID] = shipment.Clone()
	r.shipOrder = append(r.shipOrder, shipment.ID)
	return nil
}

func (r *MemoryRepository) UpdateShipmentCompliance(_ context.Context, id string, update ComplianceUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[id]
	if !ok {
		return fmt.Errorf("shipment %s: %w", id, ErrNotFound)
	}
	s.ComplianceStatus = update.Status
	s.ComplianceIssues = models.CloneIssues(update.Issues)
	s.UpdatedAt = r.now()
	r.shipments[id] = s
	return nil
}

func (r *MemoryRepository) UpdateShipmentProgress(_ context.Context, id string, update ShipmentProgressUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[id]
	if !ok {
		return fmt.Errorf("shipment %s: %w", id, ErrNotFound)
	}
	if update.Status != "" {
		s.Status = update.Status
	}
	if update.ActualPickupDate != nil {
		t := *update.ActualPickupDate
		s.ActualPickupDate = &t
	}
	if update.ActualDeliveryDate != nil {
		t := *update.ActualDeliveryDate
		s.ActualDeliveryDate = &t
	}
	s.UpdatedAt = r.now()
	r.shipments[id] = s
	return nil
}

func (r *MemoryRepository) AppendTelemetry(_ context.Context, id string, point models.TelemetryPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shipments[id]
	if !ok {
		return fmt.Errorf("shipment %s: %w", id, ErrNotFound)
	}
	if point.BatteryLevel != nil {
		b := *point.BatteryLevel
		point.BatteryLevel = &b
	}
	// Copy before appending so earlier clones never see this point.
	s.IoTData = append(append([]models.TelemetryPoint(nil), s.IoTData...), point)
	loc := point.Location
	s.CurrentLocation = &loc
	s.UpdatedAt = r.now()
	r.shipments[id] = s
	return nil
}

func (r *MemoryRepository) ListReviews(_ context.Context, filter ReviewFilter) ([]models.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Review{}
	for _, rv := range r.reviews {
		if filter.matches(rv) {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateReview(_ context.Context, review models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ID == review.ID {
			return fmt.Errorf("review %s: %w", review.ID, ErrConflict)
		}
	}
	r.reviews = append(r.reviews, review)
	return nil
}

func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[email]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return u, nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, user models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return fmt.Errorf("user %s: %w", user.Email, ErrConflict)
	}
	r.users[user.Email] = user
	r.userOrder = append(r.userOrder, user.Email)
	return nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.userOrder))
	for _, email := range r.userOrder {
		out = append(out, r.users[email])
	}
	return out, nil
}
