package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/internal/bookings/repository"
	"dayslot/internal/bookings/validator"
	"dayslot/pkg/config"
	"dayslot/pkg/logger"
	"dayslot/pkg/model"
)

// fakeFacilityCounters emulates the storage engine's single-row conditional
// update with a mutex.
type fakeFacilityCounters struct {
	mu   sync.Mutex
	rows map[model.FacilityDay]*model.FacilityCounter

	incrementErr error
	decrementErr error
	getErr       error
	decrements   int
}

func newFakeFacilityCounters() *fakeFacilityCounters {
	return &fakeFacilityCounters{rows: map[model.FacilityDay]*model.FacilityCounter{}}
}

func (f *fakeFacilityCounters) Increment(ctx context.Context, facilityID, date string, capacity, amenityCapacity int, includeAmenity bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrementErr != nil {
		return false, f.incrementErr
	}
	key := model.FacilityDay{FacilityID: facilityID, Date: date}
	row, ok := f.rows[key]
	if !ok {
		row = &model.FacilityCounter{Key: key}
		f.rows[key] = row
	}
	if row.BookedCount >= capacity {
		return false, nil
	}
	if includeAmenity && row.AmenityCount >= amenityCapacity {
		return false, nil
	}
	row.BookedCount++
	if includeAmenity {
		row.AmenityCount++
	}
	row.Capacity = capacity
	row.AmenityCapacity = amenityCapacity
	return true, nil
}

func (f *fakeFacilityCounters) Decrement(ctx context.Context, facilityID, date string, includeAmenity bool) (*model.FacilityCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decrementErr != nil {
		return nil, f.decrementErr
	}
	row, ok := f.rows[model.FacilityDay{FacilityID: facilityID, Date: date}]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	f.decrements++
	row.BookedCount--
	if includeAmenity {
		row.AmenityCount--
	}
	out := *row
	return &out, nil
}

func (f *fakeFacilityCounters) GetCounters(ctx context.Context, facilityID string, dates []string) ([]*model.FacilityCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]*model.FacilityCounter, 0, len(dates))
	for _, date := range dates {
		key := model.FacilityDay{FacilityID: facilityID, Date: date}
		if row, ok := f.rows[key]; ok {
			c := *row
			out = append(out, &c)
			continue
		}
		out = append(out, &model.FacilityCounter{Key: key})
	}
	return out, nil
}

func (f *fakeFacilityCounters) counter(facilityID, date string) (booked, amenity int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[model.FacilityDay{FacilityID: facilityID, Date: date}]
	if !ok {
		return 0, 0
	}
	return row.BookedCount, row.AmenityCount
}

type fakeUserQuotas struct {
	mu   sync.Mutex
	rows map[model.UserWeek]*model.UserWeekCounter

	decrementErr error
}

func newFakeUserQuotas() *fakeUserQuotas {
	return &fakeUserQuotas{rows: map[model.UserWeek]*model.UserWeekCounter{}}
}

func (f *fakeUserQuotas) Increment(ctx context.Context, ownerEmail, weekStart string, quota int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}
	row, ok := f.rows[key]
	if !ok {
		row = &model.UserWeekCounter{Key: key}
		f.rows[key] = row
	}
	if row.BookedCount >= quota {
		return false, nil
	}
	row.BookedCount++
	row.Quota = quota
	return true, nil
}

func (f *fakeUserQuotas) Decrement(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.decrementErr != nil {
		return nil, f.decrementErr
	}
	row, ok := f.rows[model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	row.BookedCount--
	out := *row
	return &out, nil
}

func (f *fakeUserQuotas) Get(ctx context.Context, ownerEmail, weekStart string) (*model.UserWeekCounter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}
	if row, ok := f.rows[key]; ok {
		out := *row
		return &out, nil
	}
	return &model.UserWeekCounter{Key: key}, nil
}

func (f *fakeUserQuotas) count(ownerEmail, weekStart string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[model.UserWeek{OwnerEmail: ownerEmail, WeekStart: weekStart}]; ok {
		return row.BookedCount
	}
	return 0
}

type fakeLedger struct {
	mu   sync.Mutex
	rows map[model.BookingKey]*model.BookingRecord

	createErr error
	queries   []repository.LedgerFilter
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: map[model.BookingKey]*model.BookingRecord{}}
}

func (f *fakeLedger) Create(ctx context.Context, record *model.BookingRecord) (*model.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, exists := f.rows[record.Key]; exists {
		return nil, nil
	}
	row := *record
	f.rows[record.Key] = &row
	out := row
	return &out, nil
}

func (f *fakeLedger) Delete(ctx context.Context, key model.BookingKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[key]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(f.rows, key)
	return nil
}

func (f *fakeLedger) Get(ctx context.Context, key model.BookingKey) (*model.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *row
	return &out, nil
}

func (f *fakeLedger) Query(ctx context.Context, filter repository.LedgerFilter) ([]*model.BookingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, filter)

	out := []*model.BookingRecord{}
	for _, row := range f.rows {
		if filter.OwnerEmail != "" && row.Key.OwnerEmail != filter.OwnerEmail {
			continue
		}
		if filter.FacilityID != "" && row.FacilityID != filter.FacilityID {
			continue
		}
		if filter.DateFrom != "" && row.Date < filter.DateFrom {
			continue
		}
		if filter.DateTo != "" && row.Date > filter.DateTo {
			continue
		}
		r := *row
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].FacilityID != out[j].FacilityID {
			return out[i].FacilityID < out[j].FacilityID
		}
		return out[i].Key.OwnerEmail < out[j].Key.OwnerEmail
	})
	return out, nil
}

func (f *fakeLedger) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeNotifier struct {
	notices chan *model.JustificationNotice
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{notices: make(chan *model.JustificationNotice, 10)}
}

func (n *fakeNotifier) JustificationSubmitted(ctx context.Context, notice *model.JustificationNotice) error {
	n.notices <- notice
	return nil
}

type fixture struct {
	cfg         *config.Config
	facilities  *fakeFacilityCounters
	quotas      *fakeUserQuotas
	ledger      *fakeLedger
	notifier    *fakeNotifier
	coordinator *coordinator
	query       *queryService
}

// testNow is Monday 2024-01-08 09:00 UTC.
var testNow = time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, facilities ...model.Facility) *fixture {
	t.Helper()

	if len(facilities) == 0 {
		facilities = []model.Facility{
			{ID: "A", Name: "Annex", Capacity: 2, AmenityCapacity: 1},
			{ID: "B", Name: "Basement", Capacity: 10},
		}
	}
	catalogue, err := config.NewCatalogue(facilities, map[string]int{"other@x.com": 5})
	if err != nil {
		t.Fatalf("failed to build catalogue: %v", err)
	}

	cfg := &config.Config{
		BookingWindowDays:  14,
		RetentionPeriod:    24 * time.Hour,
		DefaultWeeklyQuota: 3,
		Location:           time.UTC,
		Catalogue:          catalogue,
		Log:                logger.Discard(),
	}

	f := &fixture{
		cfg:        cfg,
		facilities: newFakeFacilityCounters(),
		quotas:     newFakeUserQuotas(),
		ledger:     newFakeLedger(),
		notifier:   newFakeNotifier(),
	}

	v := validator.NewBookingValidator(cfg.Log)
	resolver := NewQuotaResolver(cfg)
	f.coordinator = NewCoordinator(f.facilities, f.quotas, f.ledger, resolver, v, f.notifier, cfg).(*coordinator)
	f.coordinator.now = func() time.Time { return testNow }
	f.query = NewQueryService(f.facilities, f.quotas, f.ledger, resolver, v, cfg).(*queryService)
	f.query.now = func() time.Time { return testNow }
	return f
}

func (f *fixture) setNow(now time.Time) {
	f.coordinator.now = func() time.Time { return now }
	f.query.now = func() time.Time { return now }
}

func user(email string, quota int) *model.Principal {
	return &model.Principal{Email: email, WeeklyQuota: quota}
}

func createReq(owner, facilityID, date string, amenity bool) *model.CreateReservationRequest {
	return &model.CreateReservationRequest{
		OwnerEmail:       owner,
		Date:             date,
		FacilityID:       facilityID,
		AmenityRequested: amenity,
	}
}
