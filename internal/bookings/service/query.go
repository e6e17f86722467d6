package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/internal/bookings/repository"
	"dayslot/internal/bookings/validator"
	"dayslot/pkg/calendar"
	"dayslot/pkg/config"
	apperrors "dayslot/pkg/errors"
	"dayslot/pkg/model"
	"dayslot/pkg/sanitizer"

	"golang.org/x/sync/errgroup"
)

const (
	maxQueryResults = 1000
	// availabilityConcurrency bounds the per-facility counter reads.
	availabilityConcurrency = 8
)

// QueryService composes read views. Scope checks happen before storage is
// touched.
type QueryService interface {
	Availability(ctx context.Context, principal *model.Principal, facilityID, from, to string) ([]*model.Availability, error)
	QueryReservations(ctx context.Context, principal *model.Principal, query *model.ReservationQuery) ([]*model.ReservationView, error)
	GetReservation(ctx context.Context, principal *model.Principal, id, ownerEmail string) (*model.ReservationView, error)
	WeeklyUsage(ctx context.Context, principal *model.Principal, ownerEmail, date string) (*model.WeeklyUsage, error)
}

type queryService struct {
	facilities repository.FacilityCounterRepository
	quotas     repository.UserQuotaRepository
	ledger     repository.LedgerRepository
	resolver   QuotaResolver
	validator  *validator.BookingValidator
	cfg        *config.Config
	cal        *calendar.Calendar
	now        func() time.Time
}

func NewQueryService(
	facilities repository.FacilityCounterRepository,
	quotas repository.UserQuotaRepository,
	ledger repository.LedgerRepository,
	resolver QuotaResolver,
	validator *validator.BookingValidator,
	cfg *config.Config,
) QueryService {
	return &queryService{
		facilities: facilities,
		quotas:     quotas,
		ledger:     ledger,
		resolver:   resolver,
		validator:  validator,
		cfg:        cfg,
		cal:        calendar.New(cfg.Location),
		now:        time.Now,
	}
}

// Availability reports per facility per day usage against capacity. With an
// empty facilityID every configured facility is read concurrently. Days with
// no counter row report zero usage.
func (s *queryService) Availability(ctx context.Context, principal *model.Principal, facilityID, from, to string) ([]*model.Availability, error) {
	facilityID = sanitizer.SanitizeFacilityID(facilityID)
	from = sanitizer.SanitizeDate(from)
	to = sanitizer.SanitizeDate(to)

	if from == "" {
		from = s.cal.Today(s.now())
	}
	if to == "" {
		to = from
	}

	maxDays := s.cfg.BookingWindowDays + 1
	span, err := s.cal.DaysBetween(from, to)
	if err != nil {
		return nil, bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, "Dates must be in YYYY-MM-DD format", map[string]any{"from": from, "to": to})
	}
	if span < 0 || span >= maxDays {
		return nil, bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest,
			fmt.Sprintf("Date range must span between 1 and %d days", maxDays),
			map[string]any{"from": from, "to": to})
	}
	dates, err := s.cal.Range(from, to, maxDays)
	if err != nil {
		return nil, bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, err.Error(), nil)
	}

	var facilities []model.Facility
	if facilityID != "" {
		f, ok := s.cfg.Catalogue.Facility(facilityID)
		if !ok {
			return nil, bookingserrors.Invalid(bookingserrors.ReasonUnknownFacility, "Unknown facility", map[string]any{"facility_id": facilityID})
		}
		facilities = []model.Facility{*f}
	} else {
		facilities = s.cfg.Catalogue.All()
	}

	results := make([][]*model.Availability, len(facilities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityConcurrency)
	for i := range facilities {
		i := i
		facility := facilities[i]
		g.Go(func() error {
			counters, err := s.facilities.GetCounters(gctx, facility.ID, dates)
			if err != nil {
				return fmt.Errorf("facility %s: %w", facility.ID, err)
			}
			results[i] = availabilityRows(&facility, counters)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Failed to read availability", "error", err, "requested_by", principal.Email)
		return nil, apperrors.Internal("Failed to read availability", err)
	}

	out := make([]*model.Availability, 0, len(facilities)*len(dates))
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func availabilityRows(facility *model.Facility, counters []*model.FacilityCounter) []*model.Availability {
	rows := make([]*model.Availability, 0, len(counters))
	for _, counter := range counters {
		rows = append(rows, &model.Availability{
			Facility:         facility.Ref(),
			Date:             counter.Key.Date,
			Capacity:         facility.Capacity,
			Booked:           counter.BookedCount,
			Available:        max(facility.Capacity-counter.BookedCount, 0),
			AmenityCapacity:  facility.AmenityCapacity,
			AmenityBooked:    counter.AmenityCount,
			AmenityAvailable: max(facility.AmenityCapacity-counter.AmenityCount, 0),
		})
	}
	return rows
}

// QueryReservations lists ledger rows the principal may see. Without an owner
// a blanket manager sees everything, a facility manager sees the managed
// facility, and anyone else sees their own reservations.
func (s *queryService) QueryReservations(ctx context.Context, principal *model.Principal, query *model.ReservationQuery) ([]*model.ReservationView, error) {
	principal = sanitizePrincipal(principal)
	query.OwnerEmail = sanitizer.SanitizeEmail(query.OwnerEmail)
	query.FacilityID = sanitizer.SanitizeFacilityID(query.FacilityID)
	query.Date = sanitizer.SanitizeDate(query.Date)
	if err := s.validator.ValidateQuery(query); err != nil {
		return nil, invalidRequest(err)
	}

	filter := repository.LedgerFilter{
		OwnerEmail: query.OwnerEmail,
		FacilityID: query.FacilityID,
		DateFrom:   query.Date,
		DateTo:     query.Date,
		Limit:      maxQueryResults,
	}

	switch {
	case filter.OwnerEmail != "":
		if !principal.Is(filter.OwnerEmail) && !principal.ManageAll &&
			(filter.FacilityID == "" || !principal.Manages(filter.FacilityID)) {
			return nil, bookingserrors.Forbidden("Not allowed to view reservations of another user")
		}
	case principal.ManageAll:
	case filter.FacilityID != "" && principal.Manages(filter.FacilityID):
	default:
		filter.OwnerEmail = principal.Email
	}

	records, err := s.ledger.Query(ctx, filter)
	if err != nil {
		s.cfg.Log.Error("Failed to query reservations", "error", err)
		return nil, apperrors.Internal("Failed to retrieve reservations", err)
	}
	return toViews(s.cfg, s.cal, records), nil
}

func (s *queryService) GetReservation(ctx context.Context, principal *model.Principal, id, ownerEmail string) (*model.ReservationView, error) {
	principal = sanitizePrincipal(principal)
	req := &model.CancelReservationRequest{
		ID:         sanitizer.TrimAndNormalize(id),
		OwnerEmail: sanitizer.SanitizeEmail(ownerEmail),
	}
	if err := s.validator.ValidateCancel(req); err != nil {
		return nil, invalidRequest(err)
	}
	if req.OwnerEmail == "" {
		req.OwnerEmail = principal.Email
	}
	if !principal.Is(req.OwnerEmail) && !principal.ManageAll && len(principal.ManagedFacilities) == 0 {
		return nil, bookingserrors.Forbidden("Not allowed to view reservations of another user")
	}

	record, err := s.ledger.Get(ctx, model.BookingKey{OwnerEmail: req.OwnerEmail, ID: req.ID})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, bookingserrors.NotFound(req.OwnerEmail, req.ID)
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}
	if !principal.Is(record.Key.OwnerEmail) && !principal.Manages(record.FacilityID) {
		return nil, bookingserrors.Forbidden("Not allowed to view this reservation")
	}
	return toView(s.cfg, s.cal, record), nil
}

// WeeklyUsage reports the owner's counter for the ISO week containing date
// against the quota currently in force.
func (s *queryService) WeeklyUsage(ctx context.Context, principal *model.Principal, ownerEmail, date string) (*model.WeeklyUsage, error) {
	principal = sanitizePrincipal(principal)
	ownerEmail = sanitizer.SanitizeEmail(ownerEmail)
	date = sanitizer.SanitizeDate(date)

	if ownerEmail == "" {
		ownerEmail = principal.Email
	}
	if !principal.Is(ownerEmail) && !principal.ManageAll {
		return nil, bookingserrors.Forbidden("Not allowed to view the quota of another user")
	}
	if date == "" {
		date = s.cal.Today(s.now())
	}

	weekStart, err := s.cal.WeekStart(date)
	if err != nil {
		return nil, bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, "Date must be in YYYY-MM-DD format", map[string]any{"date": date})
	}

	counter, err := s.quotas.Get(ctx, ownerEmail, weekStart)
	if err != nil {
		s.cfg.Log.Error("Failed to read weekly usage", "owner_email", ownerEmail, "error", err)
		return nil, apperrors.Internal("Failed to retrieve weekly usage", err)
	}

	quota := s.resolver.Resolve(principal, ownerEmail)
	return &model.WeeklyUsage{
		OwnerEmail: ownerEmail,
		WeekStart:  weekStart,
		Booked:     counter.BookedCount,
		Quota:      quota,
		Remaining:  max(quota-counter.BookedCount, 0),
	}, nil
}
