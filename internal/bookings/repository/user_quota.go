package repository

import (
	"context"
	"fmt"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/pkg/calendar"
	"dayslot/pkg/config"
	"dayslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserQuotaRepository tracks per (user, ISO week) reservations against the
// user's weekly quota.
type UserQuotaRepository interface {
	// Increment admits one reservation if booked_count < quota. quota is the
	// caller's snapshot and is stored on the row for reference only.
	Increment(ctx context.Context, ownerEmail, weekStart string, quota int) (bool, error)
	Decrement(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error)
	// Get returns the week's counter, zeroed when the user has no row yet.
	Get(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error)
}

type mongoUserQuotaRepository struct {
	cfg        *config.Config
	cal        *calendar.Calendar
	collection *mongo.Collection
}

func NewMongoUserQuotaRepository(cfg *config.Config) UserQuotaRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserQuotaRepository{
		cfg:        cfg,
		cal:        calendar.New(cfg.Location),
		collection: db.Collection(UserWeekCountersCollection),
	}
}

func (r *mongoUserQuotaRepository) Increment(ctx context.Context, ownerEmail, weekStart string, quota int) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	weekEnd, err := r.cal.Parse(weekStart)
	if err != nil {
		return false, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidKey, err)
	}
	weekEnd = weekEnd.AddDate(0, 0, 7)
	key := model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}

	err = ensureRow(ctx, r.collection, key, bson.M{
		"booked_count": 0,
		"quota":        quota,
		"expires_at":   weekEnd.Add(r.cfg.RetentionPeriod),
	})
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":          key,
		"booked_count": bson.M{"$lt": quota},
	}
	update := bson.M{
		"$inc": bson.M{"booked_count": 1},
		"$set": bson.M{"quota": quota},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to increment user week counter: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoUserQuotaRepository) Decrement(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	key := model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var counter model.UserWeekCounter
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": bson.M{"booked_count": -1}}, opts).Decode(&counter)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user week counter %s/%s: %w", ownerEmail, weekStart, bookingserrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to decrement user week counter: %w", err)
	}
	return &counter, nil
}

func (r *mongoUserQuotaRepository) Get(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	key := model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}
	var counter model.UserWeekCounter
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&counter)
	if err != nil {
		if isNoDocuments(err) {
			return &model.UserWeekCounter{Key: key}, nil
		}
		return nil, fmt.Errorf("failed to find user week counter: %w", err)
	}
	return &counter, nil
}
