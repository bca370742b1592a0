package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	reserrors "railbook/internal/reservations/errors"
	"railbook/pkg/config"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	TicketCollectionName = "Tickets"
)

type TicketRepository interface {
	CreateMany(ctx context.Context, tickets []*model.Ticket) error
	FindByID(ctx context.Context, id string) (*model.Ticket, error)
	UpdateStatusIf(ctx context.Context, id, expected, next string) (bool, error)
	// RetireDeparted bulk-transitions payed tickets whose journey departed
	// before the cutoff to expired. Returns the number retired.
	RetireDeparted(ctx context.Context, cutoff time.Time) (int64, error)
}

type mongoTicketRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTicketRepository(cfg *config.Config) TicketRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTicketRepository{
		cfg:        cfg,
		collection: db.Collection(TicketCollectionName),
	}
}

func (r *mongoTicketRepository) CreateMany(ctx context.Context, tickets []*model.Ticket) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(tickets))
	for _, t := range tickets {
		t.CreatedAt = now
		docs = append(docs, t)
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create tickets: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(tickets) {
			tickets[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoTicketRepository) FindByID(ctx context.Context, id string) (*model.Ticket, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	var ticket model.Ticket
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&ticket)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, reserrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to find ticket: %w", err)
	}

	return &ticket, nil
}

func (r *mongoTicketRepository) UpdateStatusIf(ctx context.Context, id, expected, next string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", reserrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": expected,
	}
	update := bson.M{"$set": bson.M{"status": next}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to update ticket status: %w", err)
	}

	return result.MatchedCount == 1, nil
}

func (r *mongoTicketRepository) RetireDeparted(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"status":         model.TicketPayed,
		"departure_time": bson.M{"$lte": cutoff},
	}
	update := bson.M{"$set": bson.M{"status": model.TicketExpired}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to retire departed tickets: %w", err)
	}

	return result.ModifiedCount, nil
}
