package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dayslot/internal/bookings/repository"
	"dayslot/internal/migrations/mongo/validators"
	"dayslot/pkg/logger"
)

// Every row carries its own expiry instant, so TTL indexes expire at
// expires_at itself.
func ttlIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
	}
}

var (
	FacilityCountersIndexes = []mongo.IndexModel{
		ttlIndex(),
		{Keys: bson.D{{Key: "_id.date", Value: 1}}},
	}

	UserWeekCountersIndexes = []mongo.IndexModel{
		ttlIndex(),
	}

	BookingsIndexes = []mongo.IndexModel{
		ttlIndex(),
		{Keys: bson.D{
			{Key: "facility_id", Value: 1},
			{Key: "date", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "_id.owner_email", Value: 1},
			{Key: "date", Value: 1},
		}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		repository.FacilityCountersCollection: {
			Indexes:   FacilityCountersIndexes,
			Validator: validators.FacilityCounterValidator,
		},
		repository.UserWeekCountersCollection: {
			Indexes:   UserWeekCountersIndexes,
			Validator: validators.UserWeekCounterValidator,
		},
		repository.BookingsCollection: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
	}
}

// RunMigration creates the collections with their schema validators and
// indexes. It is idempotent and safe to re-run on every deploy.
func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied successfully", "database", dbName)
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	coll := db.Collection(name)
	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
