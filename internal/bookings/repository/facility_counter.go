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

// FacilityCounterRepository tracks per (facility, date) admissions against the
// facility's daily capacity and its amenity sub-capacity.
type FacilityCounterRepository interface {
	// Increment admits one reservation if booked_count < capacity and, when
	// includeAmenity is set, amenity_count < amenityCapacity. Both predicates
	// are evaluated by the storage engine in a single conditional update.
	// false means rejected, nothing was written.
	Increment(ctx context.Context, facilityID, date string, capacity, amenityCapacity int, includeAmenity bool) (bool, error)
	// Decrement is unconditional and returns the counter after the update.
	Decrement(ctx context.Context, facilityID, date string, includeAmenity bool) (*model.FacilityCounter, error)
	// GetCounters returns one counter per date in order. Dates without a
	// stored row are reported as zero and never created.
	GetCounters(ctx context.Context, facilityID string, dates []string) ([]*model.FacilityCounter, error)
}

type mongoFacilityCounterRepository struct {
	cfg        *config.Config
	cal        *calendar.Calendar
	collection *mongo.Collection
}

func NewMongoFacilityCounterRepository(cfg *config.Config) FacilityCounterRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoFacilityCounterRepository{
		cfg:        cfg,
		cal:        calendar.New(cfg.Location),
		collection: db.Collection(FacilityCountersCollection),
	}
}

func (r *mongoFacilityCounterRepository) Increment(ctx context.Context, facilityID, date string, capacity, amenityCapacity int, includeAmenity bool) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dayStart, err := r.cal.DayStart(date)
	if err != nil {
		return false, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidKey, err)
	}
	key := model.FacilityDay{FacilityID: facilityID, Date: date}

	err = ensureRow(ctx, r.collection, key, bson.M{
		"booked_count":     0,
		"amenity_count":    0,
		"capacity":         capacity,
		"amenity_capacity": amenityCapacity,
		"expires_at":       dayStart.Add(r.cfg.RetentionPeriod),
	})
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":          key,
		"booked_count": bson.M{"$lt": capacity},
	}
	inc := bson.M{"booked_count": 1}
	if includeAmenity {
		filter["amenity_count"] = bson.M{"$lt": amenityCapacity}
		inc["amenity_count"] = 1
	}
	update := bson.M{
		"$inc": inc,
		"$set": bson.M{
			"capacity":         capacity,
			"amenity_capacity": amenityCapacity,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to increment facility counter: %w", err)
	}
	return result.MatchedCount == 1, nil
}

func (r *mongoFacilityCounterRepository) Decrement(ctx context.Context, facilityID, date string, includeAmenity bool) (*model.FacilityCounter, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	key := model.FacilityDay{FacilityID: facilityID, Date: date}
	inc := bson.M{"booked_count": -1}
	if includeAmenity {
		inc["amenity_count"] = -1
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var counter model.FacilityCounter
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": key}, bson.M{"$inc": inc}, opts).Decode(&counter)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("facility counter %s/%s: %w", facilityID, date, bookingserrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to decrement facility counter: %w", err)
	}
	return &counter, nil
}

func (r *mongoFacilityCounterRepository) GetCounters(ctx context.Context, facilityID string, dates []string) ([]*model.FacilityCounter, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if len(dates) == 0 {
		return []*model.FacilityCounter{}, nil
	}

	filter := bson.M{
		"_id.facility_id": facilityID,
		"_id.date":        bson.M{"$in": dates},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find facility counters: %w", err)
	}
	defer cursor.Close(ctx)

	var stored []*model.FacilityCounter
	if err = cursor.All(ctx, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode facility counters: %w", err)
	}

	byDate := make(map[string]*model.FacilityCounter, len(stored))
	for _, c := range stored {
		byDate[c.Key.Date] = c
	}

	counters := make([]*model.FacilityCounter, 0, len(dates))
	for _, date := range dates {
		if c, ok := byDate[date]; ok {
			counters = append(counters, c)
			continue
		}
		counters = append(counters, &model.FacilityCounter{
			Key: model.FacilityDay{FacilityID: facilityID, Date: date},
		})
	}
	return counters, nil
}
