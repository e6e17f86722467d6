package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "dayslot/internal/bookings/errors"
	"dayslot/internal/bookings/repository"
	"dayslot/internal/bookings/saga"
	"dayslot/internal/bookings/validator"
	"dayslot/pkg/calendar"
	"dayslot/pkg/config"
	apperrors "dayslot/pkg/errors"
	"dayslot/pkg/model"
	"dayslot/pkg/sanitizer"
)

const (
	createSaga = "create_reservation"
	cancelSaga = "cancel_reservation"

	notifyTimeout = 10 * time.Second
)

// Coordinator owns every mutation of counters and ledger. Each call runs as
// a saga whose steps are individually atomic.
type Coordinator interface {
	CreateReservation(ctx context.Context, principal *model.Principal, req *model.CreateReservationRequest) (*model.ReservationView, error)
	CancelReservation(ctx context.Context, principal *model.Principal, req *model.CancelReservationRequest) error
}

type coordinator struct {
	facilities repository.FacilityCounterRepository
	quotas     repository.UserQuotaRepository
	ledger     repository.LedgerRepository
	resolver   QuotaResolver
	validator  *validator.BookingValidator
	notifier   Notifier
	cfg        *config.Config
	cal        *calendar.Calendar
	now        func() time.Time
}

func NewCoordinator(
	facilities repository.FacilityCounterRepository,
	quotas repository.UserQuotaRepository,
	ledger repository.LedgerRepository,
	resolver QuotaResolver,
	validator *validator.BookingValidator,
	notifier Notifier,
	cfg *config.Config,
) Coordinator {
	return &coordinator{
		facilities: facilities,
		quotas:     quotas,
		ledger:     ledger,
		resolver:   resolver,
		validator:  validator,
		notifier:   notifier,
		cfg:        cfg,
		cal:        calendar.New(cfg.Location),
		now:        time.Now,
	}
}

func (c *coordinator) CreateReservation(ctx context.Context, principal *model.Principal, req *model.CreateReservationRequest) (*model.ReservationView, error) {
	principal = sanitizePrincipal(principal)
	c.sanitizeCreate(req)
	if err := c.validator.ValidateCreate(req); err != nil {
		return nil, invalidRequest(err)
	}

	var (
		facility  *model.Facility
		weekStart string
		record    *model.BookingRecord
	)
	key := model.BookingKey{OwnerEmail: req.OwnerEmail, ID: model.BookingID(req.FacilityID, req.Date)}

	s := saga.New(createSaga, c.cfg.Log,
		"owner_email", key.OwnerEmail,
		"booking_id", key.ID,
		"facility_id", req.FacilityID,
		"date", req.Date,
		"requested_by", principal.Email,
	)
	s.Add(
		saga.NewStep("authorize", func(ctx context.Context) error {
			if principal.Is(req.OwnerEmail) || principal.Manages(req.FacilityID) {
				return nil
			}
			return bookingserrors.Forbidden("Not allowed to reserve on behalf of another user at this facility")
		}),
		saga.NewStep("validate", func(ctx context.Context) error {
			var err error
			facility, weekStart, err = c.validateCreate(principal, req)
			return err
		}),
		saga.NewStep("precheck_capacity", func(ctx context.Context) error {
			return c.precheckCapacity(ctx, facility, req)
		}),
		saga.NewStep("reserve_facility", func(ctx context.Context) error {
			ok, err := c.facilities.Increment(ctx, facility.ID, req.Date, facility.Capacity, facility.AmenityCapacity, req.AmenityRequested)
			if err != nil {
				return apperrors.Internal("Failed to reserve facility capacity", err)
			}
			if !ok {
				return c.capacityError(ctx, facility, req)
			}
			return nil
		}).WithCompensation(func(ctx context.Context) error {
			return c.releaseFacility(ctx, facility.ID, req.Date, req.AmenityRequested)
		}),
		saga.NewStep("reserve_quota", func(ctx context.Context) error {
			quota := c.resolver.Resolve(principal, req.OwnerEmail)
			ok, err := c.quotas.Increment(ctx, req.OwnerEmail, weekStart, quota)
			if err != nil {
				return apperrors.Internal("Failed to reserve weekly quota", err)
			}
			if !ok {
				return bookingserrors.UserQuotaExceeded(req.OwnerEmail, weekStart, quota)
			}
			return nil
		}).WithCompensation(func(ctx context.Context) error {
			return c.releaseQuota(ctx, req.OwnerEmail, weekStart)
		}),
		saga.NewStep("commit_ledger", func(ctx context.Context) error {
			created, err := c.ledger.Create(ctx, &model.BookingRecord{
				Key:              key,
				Date:             req.Date,
				FacilityID:       facility.ID,
				AmenityRequested: req.AmenityRequested,
				Justification:    req.Justification,
				CreatedBy:        principal.Email,
				CreatedAt:        c.now().UTC(),
			})
			if err != nil {
				return apperrors.Internal("Failed to record reservation", err)
			}
			if created == nil {
				return bookingserrors.DuplicateReservation(key.OwnerEmail, key.ID)
			}
			record = created
			return nil
		}),
	)

	if err := s.Run(ctx); err != nil {
		return nil, c.sagaError(err, map[string]any{
			"owner_email": key.OwnerEmail,
			"booking_id":  key.ID,
			"facility_id": req.FacilityID,
			"date":        req.Date,
			"week_start":  weekStart,
		})
	}

	c.cfg.Log.Info("Reservation created successfully",
		"owner_email", key.OwnerEmail,
		"booking_id", key.ID,
		"facility_id", facility.ID,
		"date", req.Date,
		"amenity_requested", req.AmenityRequested,
		"requested_by", principal.Email,
	)

	if record.Justification != "" {
		c.notifyJustification(ctx, facility, record)
	}

	return toView(c.cfg, c.cal, record), nil
}

func (c *coordinator) CancelReservation(ctx context.Context, principal *model.Principal, req *model.CancelReservationRequest) error {
	principal = sanitizePrincipal(principal)
	req.ID = sanitizer.TrimAndNormalize(req.ID)
	req.OwnerEmail = sanitizer.SanitizeEmail(req.OwnerEmail)
	if err := c.validator.ValidateCancel(req); err != nil {
		return invalidRequest(err)
	}
	if req.OwnerEmail == "" {
		req.OwnerEmail = principal.Email
	}

	var record *model.BookingRecord
	key := model.BookingKey{OwnerEmail: req.OwnerEmail, ID: req.ID}

	s := saga.New(cancelSaga, c.cfg.Log,
		"owner_email", key.OwnerEmail,
		"booking_id", key.ID,
		"requested_by", principal.Email,
	)
	s.Add(
		saga.NewStep("load_ledger", func(ctx context.Context) error {
			var err error
			record, err = c.ledger.Get(ctx, key)
			if err != nil {
				if errors.Is(err, bookingserrors.ErrNotFound) {
					return bookingserrors.NotFound(key.OwnerEmail, key.ID)
				}
				return apperrors.Internal("Failed to load reservation", err)
			}
			return nil
		}),
		saga.NewStep("authorize", func(ctx context.Context) error {
			if principal.Is(record.Key.OwnerEmail) || principal.Manages(record.FacilityID) {
				return nil
			}
			return bookingserrors.Forbidden("Not allowed to cancel this reservation")
		}),
		saga.NewStep("check_deadline", func(ctx context.Context) error {
			return c.checkCancellationDeadline(principal, record)
		}),
		saga.NewStep("delete_ledger", func(ctx context.Context) error {
			if err := c.ledger.Delete(ctx, key); err != nil {
				if errors.Is(err, bookingserrors.ErrNotFound) {
					// A concurrent cancel removed the row first and owns the counter release.
					return bookingserrors.NotFound(key.OwnerEmail, key.ID)
				}
				return apperrors.Internal("Failed to delete reservation", err)
			}
			return nil
		}),
		saga.NewStep("release_counters", func(ctx context.Context) error {
			return c.releaseCounters(ctx, record)
		}),
	)

	if err := s.Run(ctx); err != nil {
		return c.sagaError(err, map[string]any{
			"owner_email": key.OwnerEmail,
			"booking_id":  key.ID,
		})
	}

	c.cfg.Log.Info("Reservation cancelled successfully",
		"owner_email", key.OwnerEmail,
		"booking_id", key.ID,
		"facility_id", record.FacilityID,
		"date", record.Date,
		"requested_by", principal.Email,
	)
	return nil
}

func (c *coordinator) sanitizeCreate(req *model.CreateReservationRequest) {
	req.OwnerEmail = sanitizer.SanitizeEmail(req.OwnerEmail)
	req.FacilityID = sanitizer.SanitizeFacilityID(req.FacilityID)
	req.Date = sanitizer.SanitizeDate(req.Date)
	req.Justification = sanitizer.NormalizeJustification(req.Justification)
}

// validateCreate checks the request against the catalogue and the booking
// window and returns the facility and the ISO week the date falls in.
func (c *coordinator) validateCreate(principal *model.Principal, req *model.CreateReservationRequest) (*model.Facility, string, error) {
	today := c.cal.Today(c.now())
	offset, err := c.cal.DaysBetween(today, req.Date)
	if err != nil {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, "Invalid reservation date", map[string]any{"date": req.Date})
	}
	if offset < 0 || offset > c.cfg.BookingWindowDays {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonOutsideBookingWindow,
			fmt.Sprintf("Reservations can be made from today up to %d days ahead", c.cfg.BookingWindowDays),
			map[string]any{"date": req.Date, "today": today, "booking_window_days": c.cfg.BookingWindowDays})
	}

	facility, ok := c.cfg.Catalogue.Facility(req.FacilityID)
	if !ok {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonUnknownFacility, "Unknown facility", map[string]any{"facility_id": req.FacilityID})
	}
	if req.AmenityRequested && !facility.OffersAmenity() {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonAmenityNotOffered, "Facility does not offer the amenity", map[string]any{"facility_id": req.FacilityID})
	}
	if c.cfg.RequireJustification && req.Justification == "" && !principal.Manages(facility.ID) {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonJustificationRequired, "A justification is required to reserve", nil)
	}

	weekStart, err := c.cal.WeekStart(req.Date)
	if err != nil {
		return nil, "", bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, "Invalid reservation date", map[string]any{"date": req.Date})
	}
	return facility, weekStart, nil
}

// precheckCapacity fails fast on a full day. It reads without locking and can
// let through requests that the conditional increment rejects later.
func (c *coordinator) precheckCapacity(ctx context.Context, facility *model.Facility, req *model.CreateReservationRequest) error {
	counters, err := c.facilities.GetCounters(ctx, facility.ID, []string{req.Date})
	if err != nil || len(counters) == 0 {
		c.cfg.Log.Warn("Capacity pre-check skipped", "facility_id", facility.ID, "date", req.Date, "error", err)
		return nil
	}
	counter := counters[0]
	if counter.BookedCount >= facility.Capacity {
		return bookingserrors.FacilityCapacityExceeded(facility.ID, req.Date)
	}
	if req.AmenityRequested && counter.AmenityCount >= facility.AmenityCapacity {
		return bookingserrors.AmenityCapacityExceeded(facility.ID, req.Date)
	}
	return nil
}

// capacityError tells apart a rejected increment caused by the amenity cap
// from one caused by the facility cap. The follow-up read is advisory.
func (c *coordinator) capacityError(ctx context.Context, facility *model.Facility, req *model.CreateReservationRequest) error {
	if !req.AmenityRequested {
		return bookingserrors.FacilityCapacityExceeded(facility.ID, req.Date)
	}
	counters, err := c.facilities.GetCounters(ctx, facility.ID, []string{req.Date})
	if err == nil && len(counters) == 1 && counters[0].BookedCount < facility.Capacity {
		return bookingserrors.AmenityCapacityExceeded(facility.ID, req.Date)
	}
	return bookingserrors.FacilityCapacityExceeded(facility.ID, req.Date)
}

// checkCancellationDeadline lets owners cancel until the reservation day
// starts and facility managers until it ends.
func (c *coordinator) checkCancellationDeadline(principal *model.Principal, record *model.BookingRecord) error {
	var (
		deadline time.Time
		err      error
	)
	if principal.Manages(record.FacilityID) {
		deadline, err = c.cal.DayEnd(record.Date)
	} else {
		deadline, err = c.cal.DayStart(record.Date)
	}
	if err != nil {
		return apperrors.Internal("Stored reservation has an invalid date", err)
	}
	if !c.now().Before(deadline) {
		return bookingserrors.DeadlinePassed(deadline.Format(time.RFC3339))
	}
	return nil
}

func (c *coordinator) releaseFacility(ctx context.Context, facilityID, date string, includeAmenity bool) error {
	counter, err := c.facilities.Decrement(ctx, facilityID, date, includeAmenity)
	if err != nil {
		return err
	}
	if counter.BookedCount < 0 || counter.AmenityCount < 0 {
		c.cfg.Log.Critical("Facility counter went negative",
			"facility_id", facilityID,
			"date", date,
			"booked_count", counter.BookedCount,
			"amenity_count", counter.AmenityCount,
		)
	}
	return nil
}

func (c *coordinator) releaseQuota(ctx context.Context, ownerEmail, weekStart string) error {
	counter, err := c.quotas.Decrement(ctx, ownerEmail, weekStart)
	if err != nil {
		return err
	}
	if counter.BookedCount < 0 {
		c.cfg.Log.Critical("User week counter went negative",
			"owner_email", ownerEmail,
			"week_start", weekStart,
			"booked_count", counter.BookedCount,
		)
	}
	return nil
}

// releaseCounters runs after the ledger row is gone. Both decrements are
// attempted; a failure leaves counters overstated until reconciled by hand.
func (c *coordinator) releaseCounters(ctx context.Context, record *model.BookingRecord) error {
	weekStart, err := c.cal.WeekStart(record.Date)
	if err != nil {
		return apperrors.Internal("Stored reservation has an invalid date", err)
	}

	details := map[string]any{
		"owner_email":       record.Key.OwnerEmail,
		"booking_id":        record.Key.ID,
		"facility_id":       record.FacilityID,
		"date":              record.Date,
		"week_start":        weekStart,
		"amenity_requested": record.AmenityRequested,
	}

	var errs []error
	if err := c.releaseFacility(ctx, record.FacilityID, record.Date, record.AmenityRequested); err != nil {
		errs = append(errs, fmt.Errorf("release facility counter: %w", err))
	}
	if err := c.releaseQuota(ctx, record.Key.OwnerEmail, weekStart); err != nil {
		errs = append(errs, fmt.Errorf("release user week counter: %w", err))
	}
	if len(errs) == 0 {
		return nil
	}

	err = errors.Join(errs...)
	c.cfg.Log.Critical("Counters not released after reservation was deleted",
		"owner_email", record.Key.OwnerEmail,
		"booking_id", record.Key.ID,
		"facility_id", record.FacilityID,
		"date", record.Date,
		"week_start", weekStart,
		"error", err,
	)
	return bookingserrors.ConsistencyFailure(err, details)
}

// sagaError maps a failed saga run to the error returned to the caller. A
// failed rollback is escalated with both errors attached.
func (c *coordinator) sagaError(err error, details map[string]any) error {
	var compErr *saga.CompensationError
	if errors.As(err, &compErr) {
		c.cfg.Log.Critical("Saga compensation failed, counters drifted from ledger",
			"saga", compErr.Saga,
			"step", compErr.Step,
			"cause", compErr.Cause,
			"compensation_error", compErr.CompensationErr,
			"details", details,
		)
		return bookingserrors.ConsistencyFailure(compErr, details)
	}

	appErr := apperrors.AsAppError(err)
	if appErr.StatusCode() >= 500 {
		c.cfg.Log.Error("Reservation saga failed", "error", err, "details", details)
	}
	return appErr
}

func (c *coordinator) notifyJustification(ctx context.Context, facility *model.Facility, record *model.BookingRecord) {
	if c.notifier == nil {
		return
	}
	notice := &model.JustificationNotice{
		BookingID:     record.Key.ID,
		OwnerEmail:    record.Key.OwnerEmail,
		RequestedBy:   record.CreatedBy,
		FacilityID:    facility.ID,
		FacilityName:  facility.Name,
		Date:          record.Date,
		Justification: record.Justification,
		CreatedAt:     record.CreatedAt,
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
		defer cancel()
		if err := c.notifier.JustificationSubmitted(ctx, notice); err != nil {
			c.cfg.Log.Warn("Failed to hand off justification notice",
				"owner_email", notice.OwnerEmail,
				"booking_id", notice.BookingID,
				"error", err,
			)
		}
	}()
}

func invalidRequest(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, "Invalid request", verrs.Details())
	}
	return bookingserrors.Invalid(bookingserrors.ReasonInvalidRequest, err.Error(), nil)
}
