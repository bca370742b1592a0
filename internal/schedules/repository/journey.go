package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	schederrors "railbook/internal/schedules/errors"
	"railbook/pkg/config"
	mongotx "railbook/pkg/db/mongo"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	JourneyCollectionName = "Concrete_journeys"
	SegmentCollectionName = "Concrete_segments"
)

type JourneyRepository interface {
	Create(ctx context.Context, journey *model.ConcreteJourney) error
	CreateSegments(ctx context.Context, segments []*model.ConcreteSegment) error
	FindByID(ctx context.Context, id string) (*model.ConcreteJourney, error)
	FindByTemplateAndDate(ctx context.Context, templateID string, date time.Time) (*model.ConcreteJourney, error)
	FindByDate(ctx context.Context, date time.Time) ([]*model.ConcreteJourney, error)
	FindSegments(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoJourneyRepository struct {
	cfg       *config.Config
	journeys  *mongo.Collection
	segments  *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoJourneyRepository(cfg *config.Config) JourneyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoJourneyRepository{
		cfg:       cfg,
		journeys:  db.Collection(JourneyCollectionName),
		segments:  db.Collection(SegmentCollectionName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoJourneyRepository) Create(ctx context.Context, journey *model.ConcreteJourney) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	journey.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.journeys.InsertOne(ctx, journey)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return schederrors.ErrJourneyExists
		}
		return fmt.Errorf("failed to create journey: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		journey.ID = oid.Hex()
	}
	return nil
}

func (r *mongoJourneyRepository) CreateSegments(ctx context.Context, segments []*model.ConcreteSegment) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	docs := make([]any, 0, len(segments))
	for _, s := range segments {
		docs = append(docs, s)
	}

	result, err := r.segments.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create segments: %w", err)
	}

	for i, id := range result.InsertedIDs {
		if oid, ok := id.(primitive.ObjectID); ok && i < len(segments) {
			segments[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoJourneyRepository) FindByID(ctx context.Context, id string) (*model.ConcreteJourney, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schederrors.ErrInvalidID, id)
	}

	var journey model.ConcreteJourney
	err = r.journeys.FindOne(ctx, bson.M{"_id": objectID}).Decode(&journey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrJourneyNotFound
		}
		return nil, fmt.Errorf("failed to find journey: %w", err)
	}

	return &journey, nil
}

func (r *mongoJourneyRepository) FindByTemplateAndDate(ctx context.Context, templateID string, date time.Time) (*model.ConcreteJourney, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"template_id":    templateID,
		"departure_date": dayStart(date),
	}

	var journey model.ConcreteJourney
	err := r.journeys.FindOne(ctx, filter).Decode(&journey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrJourneyNotFound
		}
		return nil, fmt.Errorf("failed to find journey by template and date: %w", err)
	}

	return &journey, nil
}

func (r *mongoJourneyRepository) FindByDate(ctx context.Context, date time.Time) ([]*model.ConcreteJourney, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.journeys.Find(ctx, bson.M{"departure_date": dayStart(date)})
	if err != nil {
		return nil, fmt.Errorf("failed to find journeys by date: %w", err)
	}
	defer cursor.Close(ctx)

	var journeys []*model.ConcreteJourney
	if err = cursor.All(ctx, &journeys); err != nil {
		return nil, fmt.Errorf("failed to decode journeys: %w", err)
	}

	return journeys, nil
}

func (r *mongoJourneyRepository) FindSegments(ctx context.Context, journeyID string) ([]*model.ConcreteSegment, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "segment_number", Value: 1}})

	cursor, err := r.segments.Find(ctx, bson.M{"journey_id": journeyID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find segments: %w", err)
	}
	defer cursor.Close(ctx)

	var segments []*model.ConcreteSegment
	if err = cursor.All(ctx, &segments); err != nil {
		return nil, fmt.Errorf("failed to decode segments: %w", err)
	}

	return segments, nil
}

func (r *mongoJourneyRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// dayStart normalizes a date to midnight UTC. Journey documents store the
// departure date at day granularity; the recurrence match works on this value.
func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
