package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	schederrors "railbook/internal/schedules/errors"
	"railbook/pkg/config"
	"railbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TemplateCollectionName = "Schedule_templates"
	TrainCollectionName    = "Trains"
)

type ScheduleTemplateRepository interface {
	FindByID(ctx context.Context, id string) (*model.ScheduleTemplate, error)
	FindActive(ctx context.Context) ([]*model.ScheduleTemplate, error)
}

type TrainRepository interface {
	FindByID(ctx context.Context, id string) (*model.Train, error)
}

type mongoTemplateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTemplateRepository(cfg *config.Config) ScheduleTemplateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTemplateRepository{
		cfg:        cfg,
		collection: db.Collection(TemplateCollectionName),
	}
}

// withTimeout wraps the context with a timeout unless it is already a
// transaction's SessionContext, which must not be re-wrapped.
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

func (r *mongoTemplateRepository) FindByID(ctx context.Context, id string) (*model.ScheduleTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schederrors.ErrInvalidID, id)
	}

	var template model.ScheduleTemplate
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find schedule template: %w", err)
	}

	return &template, nil
}

func (r *mongoTemplateRepository) FindActive(ctx context.Context) ([]*model.ScheduleTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find active templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*model.ScheduleTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	return templates, nil
}

type mongoTrainRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTrainRepository(cfg *config.Config) TrainRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTrainRepository{
		cfg:        cfg,
		collection: db.Collection(TrainCollectionName),
	}
}

func (r *mongoTrainRepository) FindByID(ctx context.Context, id string) (*model.Train, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", schederrors.ErrInvalidID, id)
	}

	var train model.Train
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&train)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, schederrors.ErrTrainNotFound
		}
		return nil, fmt.Errorf("failed to find train: %w", err)
	}

	return &train, nil
}
