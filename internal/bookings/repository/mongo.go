package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	FacilityCountersCollection = "Facility_counters"
	UserWeekCountersCollection = "User_week_counters"
	BookingsCollection         = "Bookings"
)

// withTimeout wraps the context with the configured timeout unless the caller
// already set a tighter deadline.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

// ensureRow inserts a zeroed document under id when none exists. Losing the
// insert race to a concurrent caller surfaces as a duplicate key error and
// is not a failure: the row exists either way.
func ensureRow(ctx context.Context, collection *mongo.Collection, id any, fields bson.M) error {
	_, err := collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$setOnInsert": fields},
		options.Update().SetUpsert(true),
	)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to lazily create counter row: %w", err)
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
