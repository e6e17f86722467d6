package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/pkg/calendar"
	"dayslot/pkg/config"
	"dayslot/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LedgerFilter selects ledger rows. Empty fields do not filter; DateFrom and
// DateTo are inclusive.
type LedgerFilter struct {
	OwnerEmail string
	FacilityID string
	DateFrom   string
	DateTo     string
	Limit      int
}

// LedgerRepository holds one row per accepted reservation keyed by
// (owner_email, id).
type LedgerRepository interface {
	// Create inserts the row unless (owner, id) already exists. A duplicate
	// returns (nil, nil).
	Create(ctx context.Context, record *model.BookingRecord) (*model.BookingRecord, error)
	Delete(ctx context.Context, key model.BookingKey) error
	Get(ctx context.Context, key model.BookingKey) (*model.BookingRecord, error)
	Query(ctx context.Context, filter LedgerFilter) ([]*model.BookingRecord, error)
}

type mongoLedgerRepository struct {
	cfg        *config.Config
	cal        *calendar.Calendar
	collection *mongo.Collection
}

func NewMongoLedgerRepository(cfg *config.Config) LedgerRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLedgerRepository{
		cfg:        cfg,
		cal:        calendar.New(cfg.Location),
		collection: db.Collection(BookingsCollection),
	}
}

func (r *mongoLedgerRepository) Create(ctx context.Context, record *model.BookingRecord) (*model.BookingRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	dayStart, err := r.cal.DayStart(record.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bookingserrors.ErrInvalidKey, err)
	}

	row := *record
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	row.CreatedAt = row.CreatedAt.Truncate(time.Millisecond)
	row.ExpiresAt = dayStart.Add(r.cfg.RetentionPeriod)

	if _, err := r.collection.InsertOne(ctx, row); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return &row, nil
}

func (r *mongoLedgerRepository) Delete(ctx context.Context, key model.BookingKey) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

func (r *mongoLedgerRepository) Get(ctx context.Context, key model.BookingKey) (*model.BookingRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var record model.BookingRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&record)
	if err != nil {
		if isNoDocuments(err) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &record, nil
}

func (r *mongoLedgerRepository) Query(ctx context.Context, filter LedgerFilter) ([]*model.BookingRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "facility_id", Value: 1},
		{Key: "_id.owner_email", Value: 1},
	})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.collection.Find(ctx, buildLedgerFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*model.BookingRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return records, nil
}

func buildLedgerFilter(filter LedgerFilter) bson.M {
	query := bson.M{}
	if filter.OwnerEmail != "" {
		query["_id.owner_email"] = filter.OwnerEmail
	}
	if filter.FacilityID != "" {
		query["facility_id"] = filter.FacilityID
	}
	if filter.DateFrom != "" || filter.DateTo != "" {
		dateRange := bson.M{}
		if filter.DateFrom != "" {
			dateRange["$gte"] = filter.DateFrom
		}
		if filter.DateTo != "" {
			dateRange["$lte"] = filter.DateTo
		}
		query["date"] = dateRange
	}
	return query
}
