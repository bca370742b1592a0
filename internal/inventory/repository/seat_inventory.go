package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"railbook/pkg/config"
	mongotx "railbook/pkg/db/mongo"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	InventoryCollectionName = "Seat_inventories"
)

type SeatInventoryRepository interface {
	CreateMany(ctx context.Context, inventories []*model.SeatInventory) error
	FindBySegmentAndCarriage(ctx context.Context, segmentID, carriageID string) (*model.SeatInventory, error)
	FindSpan(ctx context.Context, journeyID, carriageID string, startSegment, endSegment int) ([]*model.SeatInventory, error)
	CompareAndSwapOccupancy(ctx context.Context, id string, expected, next []byte) (bool, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSeatInventoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSeatInventoryRepository(cfg *config.Config) SeatInventoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSeatInventoryRepository{
		cfg:        cfg,
		collection: db.Collection(InventoryCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoSeatInventoryRepository) CreateMany(ctx context.Context, inventories []*model.SeatInventory) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(inventories))
	for _, inv := range inventories {
		inv.CreatedAt = now
		docs = append(docs, inv)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create seat inventories: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(inventories) {
			inventories[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoSeatInventoryRepository) FindBySegmentAndCarriage(ctx context.Context, segmentID, carriageID string) (*model.SeatInventory, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"segment_id":  segmentID,
		"carriage_id": carriageID,
	}

	var inventory model.SeatInventory
	err := r.collection.FindOne(ctx, filter).Decode(&inventory)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInventoryNotFound
		}
		return nil, fmt.Errorf("failed to find seat inventory: %w", err)
	}

	return &inventory, nil
}

// FindSpan loads the inventories of one carriage across a contiguous segment
// range, ordered by segment number. Callers needing check-then-act semantics
// must invoke this inside a transaction so the read is snapshot-consistent
// with the flip that follows.
func (r *mongoSeatInventoryRepository) FindSpan(ctx context.Context, journeyID, carriageID string, startSegment, endSegment int) ([]*model.SeatInventory, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"journey_id":  journeyID,
		"carriage_id": carriageID,
		"segment_number": bson.M{
			"$gte": startSegment,
			"$lte": endSegment,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "segment_number", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find seat inventory span: %w", err)
	}
	defer cursor.Close(ctx)

	var inventories []*model.SeatInventory
	if err = cursor.All(ctx, &inventories); err != nil {
		return nil, fmt.Errorf("failed to decode seat inventories: %w", err)
	}

	if len(inventories) != endSegment-startSegment+1 {
		return nil, fmt.Errorf("%w: journey %s carriage %s segments [%d,%d], found %d",
			ErrIncompleteSpan, journeyID, carriageID, startSegment, endSegment, len(inventories))
	}

	return inventories, nil
}

// CompareAndSwapOccupancy replaces the occupancy bytes only if they still
// equal the expected value. A false return is not an error: it means a
// concurrent booking moved first and the caller lost the race.
func (r *mongoSeatInventoryRepository) CompareAndSwapOccupancy(ctx context.Context, id string, expected, next []byte) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":       objectID,
		"occupancy": primitive.Binary{Subtype: 0x00, Data: expected},
	}
	update := bson.M{
		"$set": bson.M{
			"occupancy": primitive.Binary{Subtype: 0x00, Data: next},
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to swap occupancy: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *mongoSeatInventoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
