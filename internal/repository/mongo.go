// server/internal/repository/mongo.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coldchain-freight-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	carriersCollection  = "carriers"
	loadsCollection     = "loads"
	bidsCollection      = "bids"
	shippersCollection  = "shippers"
	shipmentsCollection = "shipments"
	reviewsCollection   = "reviews"
	usersCollection     = "users"
)

// MongoRepository stores each entity as one document keyed by its id. Every
// update is a single-document $set/$push, which MongoDB applies atomically.
type MongoRepository struct {
	DB  *mongo.Database
	now func() time.Time
}

var _ Repository = (*MongoRepository)(nil)

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{DB: db, now: time.Now}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, kind, id string) (T, error) {
	var out T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	if err != nil {
		return out, fmt.Errorf("find %s %s: %w", kind, id, err)
	}
	return out, nil
}

// findAll returns documents in natural order. Ids are uuids, so sorting on
// _id would not reproduce registration order.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, kind, id string, doc any) error {
	_, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert %s %s: %w", kind, id, err)
	}
	return nil
}

func updateByID(ctx context.Context, coll *mongo.Collection, kind, id string, update bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) GetCarrier(ctx context.Context, id string) (models.Carrier, error) {
	return findOne[models.Carrier](ctx, r.DB.Collection(carriersCollection), "carrier", id)
}

func (r *MongoRepository) ListCarriers(ctx context.Context) ([]models.Carrier, error) {
	return findAll[models.Carrier](ctx, r.DB.Collection(carriersCollection), bson.M{})
}

func (r *MongoRepository) CreateCarrier(ctx context.Context, carrier models.Carrier) error {
	return insert(ctx, r.DB.Collection(carriersCollection), "carrier", carrier.ID, carrier)
}

func (r *MongoRepository) UpdateCarrierVetting(ctx context.Context, id string, update CarrierVettingUpdate) error {
	return updateByID(ctx, r.DB.Collection(carriersCollection), "carrier", id, bson.M{"$set": bson.M{
		"vettingStatus": update.Status,
		"vettingScore":  update.Score,
	}})
}

func (r *MongoRepository) GetLoad(ctx context.Context, id string) (models.Load, error) {
	return findOne[models.Load](ctx, r.DB.Collection(loadsCollection), "load", id)
}

func (r *MongoRepository) ListLoads(ctx context.Context, filter LoadFilter) ([]models.Load, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.ShipperID != "" {
		query["shipperId"] = filter.ShipperID
	}
	return findAll[models.Load](ctx, r.DB.Collection(loadsCollection), query)
}

func (r *MongoRepository) CreateLoad(ctx context.Context, load models.Load) error {
	return insert(ctx, r.DB.Collection(loadsCollection), "load", load.ID, load)
}

func (r *MongoRepository) AssignLoad(ctx context.Context, id string, assignment LoadAssignment) error {
	coll := r.DB.Collection(loadsCollection)
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": bson.A{models.StatusPosted, models.StatusBidding}},
	}
	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"status":              assignment.Status,
		"assignedCarrierId":   assignment.CarrierID,
		"assignedCarrierName": assignment.CarrierName,
	}})
	if err != nil {
		return fmt.Errorf("assign load %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("assign load %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("load %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("load %s: %w", id, ErrLoadClosed)
}

func (r *MongoRepository) OpenBidding(ctx context.Context, id string) error {
	_, err := r.DB.Collection(loadsCollection).UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusPosted},
		bson.M{"$set": bson.M{"status": models.StatusBidding}},
	)
	if err != nil {
		return fmt.Errorf("open bidding on load %s: %w", id, err)
	}
	return nil
}

func (r *MongoRepository) GetBid(ctx context.Context, id string) (models.Bid, error) {
	return findOne[models.Bid](ctx, r.DB.Collection(bidsCollection), "bid", id)
}

func (r *MongoRepository) ListBids(ctx context.Context, loadID string) ([]models.Bid, error) {
	return findAll[models.Bid](ctx, r.DB.Collection(bidsCollection), bson.M{"loadId": loadID})
}

func (r *MongoRepository) CreateBid(ctx context.Context, bid models.Bid) error {
	return insert(ctx, r.DB.Collection(bidsCollection), "bid", bid.ID, bid)
}

// SettleBids marks the winner first, so a failure part way leaves the
// accepted bid recorded and at worst some losers still pending.
func (r *MongoRepository) SettleBids(ctx context.Context, loadID, acceptedID string) error {
	coll := r.DB.Collection(bidsCollection)
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": acceptedID, "loadId": loadID},
		bson.M{"$set": bson.M{"status": models.BidAccepted}},
	)
	if err != nil {
		return fmt.Errorf("accept bid %s: %w", acceptedID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bid %s: %w", acceptedID, ErrNotFound)
	}

	_, err = coll.UpdateMany(ctx,
		bson.M{"loadId": loadID, "_id": bson.M{"$ne": acceptedID}, "status": models.BidPending},
		bson.M{"$set": bson.M{"status": models.BidRejected}},
	)
	if err != nil {
		return fmt.Errorf("reject bids on load %s: %w", loadID, err)
	}
	return nil
}

func (r *MongoRepository) GetShipper(ctx context.Context, id string) (models.Shipper, error) {
	return findOne[models.Shipper](ctx, r.DB.Collection(shippersCollection), "shipper", id)
}

func (r *MongoRepository) ListShippers(ctx context.Context) ([]models.Shipper, error) {
	return findAll[models.Shipper](ctx, r.DB.Collection(shippersCollection), bson.M{})
}

func (r *MongoRepository) CreateShipper(ctx context.Context, shipper models.Shipper) error {
	return insert(ctx, r.DB.Collection(shippersCollection), "shipper", shipper.ID, shipper)
}

func (r *MongoRepository) GetShipment(ctx context.Context, id string) (models.Shipment, error) {
	return findOne[models.Shipment](ctx, r.DB.Collection(shipmentsCollection), "shipment", id)
}

func (r *MongoRepository) ListShipments(ctx context.Context, filter ShipmentFilter) ([]models.Shipment, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.CarrierID != "" {
		query["carrierId"] = filter.CarrierID
	}
	if filter.ShipperID != "" {
		query["shipperId"] = filter.ShipperID
	}
	return findAll[models.Shipment](ctx, r.DB.Collection(shipmentsCollection), query)
}

func (r *MongoRepository) CreateShipment(ctx context.Context, shipment models.Shipment) error {
	if shipment.IoTData == nil {
		shipment.IoTData = []models.TelemetryPoint{}
	}
	if shipment.ComplianceIssues == nil {
		shipment.ComplianceIssues = []models.ComplianceIssue{}
	}
	return insert(ctx, r.DB.Collection(shipmentsCollection), "shipment", shipment.ID, shipment)
}

func (r *MongoRepository) UpdateShipmentCompliance(ctx context.Context, id string, update ComplianceUpdate) error {
	issues := update.Issues
	if issues == nil {
		issues = []models.ComplianceIssue{}
	}
	return updateByID(ctx, r.DB.Collection(shipmentsCollection), "shipment", id, bson.M{"$set": bson.M{
		"complianceStatus": update.Status,
		"complianceIssues": issues,
		"updatedAt":        r.now(),
	}})
}

func (r *MongoRepository) UpdateShipmentProgress(ctx context.Context, id string, update ShipmentProgressUpdate) error {
	set := bson.M{"updatedAt": r.now()}
	if update.Status != "" {
		set["status"] = update.Status
	}
	if update.ActualPickupDate != nil {
		set["actualPickupDate"] = *update.ActualPickupDate
	}
	if update.ActualDeliveryDate != nil {
		set["actualDeliveryDate"] = *update.ActualDeliveryDate
	}
	return updateByID(ctx, r.DB.Collection(shipmentsCollection), "shipment", id, bson.M{"$set": set})
}

func (r *MongoRepository) AppendTelemetry(ctx context.Context, id string, point models.TelemetryPoint) error {
	return updateByID(ctx, r.DB.Collection(shipmentsCollection), "shipment", id, bson.M{
		"$push": bson.M{"iotData": point},
		"$set": bson.M{
			"currentLocation": point.Location,
			"updatedAt":       r.now(),
		},
	})
}

func (r *MongoRepository) ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, error) {
	query := bson.M{}
	if filter.RevieweeID != "" {
		query["revieweeId"] = filter.RevieweeID
	}
	if filter.ReviewerRole != "" {
		query["reviewerRole"] = filter.ReviewerRole
	}
	return findAll[models.Review](ctx, r.DB.Collection(reviewsCollection), query)
}

func (r *MongoRepository) CreateReview(ctx context.Context, review models.Review) error {
	return insert(ctx, r.DB.Collection(reviewsCollection), "review", review.ID, review)
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return findOne[models.User](ctx, r.DB.Collection(usersCollection), "user", email)
}

func (r *MongoRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	return findAll[models.User](ctx, r.DB.Collection(usersCollection), bson.M{})
}

func (r *MongoRepository) CreateUser(ctx context.Context, user models.User) error {
	return insert(ctx, r.DB.Collection(usersCollection), "user", user.Email, user)
}
