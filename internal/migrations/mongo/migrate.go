package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"railbook/internal/migrations/mongo/validators"
)

var (
	TrainsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}

	ScheduleTemplatesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "train_id", Value: 1}}},
		{Keys: bson.D{
			{Key: "is_active", Value: 1},
			{Key: "active_days", Value: 1},
		}},
	}

	// The unique (template_id, departure_date) index is the idempotency
	// guard for materialization: two concurrent runs cannot both insert the
	// same journey.
	ConcreteJourneysIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "template_id", Value: 1},
				{Key: "departure_date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "departure_date", Value: 1}}},
	}

	ConcreteSegmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "journey_id", Value: 1},
			{Key: "segment_number", Value: 1},
		}},
	}

	SeatInventoriesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "segment_id", Value: 1},
				{Key: "carriage_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		// Span reads load every segment of a journey span in one range query.
		{Keys: bson.D{
			{Key: "journey_id", Value: 1},
			{Key: "carriage_id", Value: 1},
			{Key: "segment_number", Value: 1},
		}},
	}

	ReservationHoldsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expires_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
	}

	TicketsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "departure_time", Value: 1},
		}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
		{Keys: bson.D{{Key: "hold_id", Value: 1}}},
	}
)

func RunMigration(ctx context.Context, client *mongo.Client, dbName string) error {
	db := client.Database(dbName)
	fmt.Printf("🚀 Running Railbook Mongo migrations on database: %s\n", dbName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Trains": {
			Indexes:   TrainsIndexes,
			Validator: validators.TrainValidator,
		},
		"Schedule_templates": {
			Indexes:   ScheduleTemplatesIndexes,
			Validator: validators.ScheduleTemplateValidator,
		},
		"Concrete_journeys": {
			Indexes:   ConcreteJourneysIndexes,
			Validator: validators.ConcreteJourneyValidator,
		},
		"Concrete_segments": {
			Indexes:   ConcreteSegmentsIndexes,
			Validator: validators.ConcreteSegmentValidator,
		},
		"Seat_inventories": {
			Indexes:   SeatInventoriesIndexes,
			Validator: validators.SeatInventoryValidator,
		},
		"Reservation_holds": {
			Indexes:   ReservationHoldsIndexes,
			Validator: validators.ReservationHoldValidator,
		},
		"Tickets": {
			Indexes:   TicketsIndexes,
			Validator: validators.TicketValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("✅ All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("🆕 Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("ℹ️ Collection %s already exists — updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("⚠️ Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("📚 Ensured indexes for %s\n", name)
	return nil
}
