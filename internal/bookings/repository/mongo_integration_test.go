package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/pkg/client"
	"dayslot/pkg/config"
	"dayslot/pkg/logger"
	"dayslot/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// newIntegrationConfig connects to MONGO_URI and points the repositories at a
// throwaway database that is dropped on cleanup.
func newIntegrationConfig(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set, skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mc, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := mc.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	dbName := fmt.Sprintf("dayslot_test_%d", time.Now().UnixNano())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mc.Database(dbName).Drop(ctx)
		_ = mc.Disconnect(ctx)
	})

	return &config.Config{
		MongoDatabaseName: dbName,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      5 * time.Second,
		RetentionPeriod:   24 * time.Hour,
		Location:          time.UTC,
		Log:               logger.Discard(),
		Client:            &client.Client{Mongo: &client.MongoClient{Client: mc}},
	}
}

func TestFacilityCounter_ConcurrentIncrementsNeverExceedCapacity(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := NewMongoFacilityCounterRepository(cfg)
	ctx := context.Background()

	const capacity = 5
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < capacity+5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Increment(ctx, "HQ", "2030-01-07", capacity, 0, false)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := admitted.Load(); got != capacity {
		t.Fatalf("expected %d admissions, got %d", capacity, got)
	}

	counters, err := repo.GetCounters(ctx, "HQ", []string{"2030-01-07"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counters[0].BookedCount != capacity {
		t.Errorf("expected booked_count %d, got %d", capacity, counters[0].BookedCount)
	}
}

func TestFacilityCounter_AmenityPredicateRejectsWithoutWriting(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := NewMongoFacilityCounterRepository(cfg)
	ctx := context.Background()

	if ok, err := repo.Increment(ctx, "A", "2030-01-07", 2, 1, true); err != nil || !ok {
		t.Fatalf("expected first amenity increment to succeed, got ok=%v err=%v", ok, err)
	}
	if ok, err := repo.Increment(ctx, "A", "2030-01-07", 2, 1, true); err != nil || ok {
		t.Fatalf("expected second amenity increment to be rejected, got ok=%v err=%v", ok, err)
	}

	counters, err := repo.GetCounters(ctx, "A", []string{"2030-01-07", "2030-01-08"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counters[0].BookedCount != 1 || counters[0].AmenityCount != 1 {
		t.Errorf("expected (1,1), got (%d,%d)", counters[0].BookedCount, counters[0].AmenityCount)
	}
	if counters[1].BookedCount != 0 || counters[1].Key.Date != "2030-01-08" {
		t.Errorf("expected zero row for absent date, got %+v", counters[1])
	}

	if ok, err := repo.Increment(ctx, "A", "2030-01-07", 2, 1, false); err != nil || !ok {
		t.Fatalf("expected plain increment to succeed, got ok=%v err=%v", ok, err)
	}

	after, err := repo.Decrement(ctx, "A", "2030-01-07", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.BookedCount != 1 || after.AmenityCount != 0 {
		t.Errorf("expected (1,0) after decrement, got (%d,%d)", after.BookedCount, after.AmenityCount)
	}
}

func TestFacilityCounter_DecrementMissingRow(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := NewMongoFacilityCounterRepository(cfg)

	_, err := repo.Decrement(context.Background(), "A", "2030-01-07", false)
	if !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserQuota_IncrementUpToQuota(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := NewMongoUserQuotaRepository(cfg)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, err := repo.Increment(ctx, "u@x.com", "2030-01-07", 2); err != nil || !ok {
			t.Fatalf("increment %d: expected success, got ok=%v err=%v", i, ok, err)
		}
	}
	if ok, err := repo.Increment(ctx, "u@x.com", "2030-01-07", 2); err != nil || ok {
		t.Fatalf("expected third increment to be rejected, got ok=%v err=%v", ok, err)
	}

	counter, err := repo.Get(ctx, "u@x.com", "2030-01-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter.BookedCount != 2 {
		t.Errorf("expected booked_count 2, got %d", counter.BookedCount)
	}

	empty, err := repo.Get(ctx, "other@x.com", "2030-01-07")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if empty.BookedCount != 0 {
		t.Errorf("expected zero counter, got %d", empty.BookedCount)
	}
}

func TestLedger_CreateDuplicateReturnsNil(t *testing.T) {
	cfg := newIntegrationConfig(t)
	repo := NewMongoLedgerRepository(cfg)
	ctx := context.Background()

	record := &model.BookingRecord{
		Key:        model.BookingKey{OwnerEmail: "u@x.com", ID: model.BookingID("A", "2030-01-07")},
		Date:       "2030-01-07",
		FacilityID: "A",
		CreatedBy:  "u@x.com",
	}

	created, err := repo.Create(ctx, record)
	if err != nil || created == nil {
		t.Fatalf("expected record to be created, got %v err=%v", created, err)
	}

	dup, err := repo.Create(ctx, record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup != nil {
		t.Fatalf("expected nil for duplicate, got %+v", dup)
	}

	other := *record
	other.Key.OwnerEmail = "v@x.com"
	if created, err := repo.Create(ctx, &other); err != nil || created == nil {
		t.Fatalf("expected another owner to reuse the id, got %v err=%v", created, err)
	}

	rows, err := repo.Query(ctx, LedgerFilter{FacilityID: "A", DateFrom: "2030-01-07", DateTo: "2030-01-07"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}

	if err := repo.Delete(ctx, record.Key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Delete(ctx, record.Key); !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.Get(ctx, record.Key); !errors.Is(err, bookingserrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
