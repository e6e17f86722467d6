package errors

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "dayslot/pkg/errors"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidKey = errors.New("invalid booking key")
)

// Stable machine-readable reasons carried by AppError.Reason.
const (
	ReasonInvalidRequest        = "INVALID_REQUEST"
	ReasonNotAuthorized         = "NOT_AUTHORIZED"
	ReasonDeadlinePassed        = "CANCELLATION_DEADLINE_PASSED"
	ReasonNotFound              = "RESERVATION_NOT_FOUND"
	ReasonFacilityCapacity      = "FACILITY_CAPACITY_EXCEEDED"
	ReasonAmenityCapacity       = "AMENITY_CAPACITY_EXCEEDED"
	ReasonUserQuota             = "USER_QUOTA_EXCEEDED"
	ReasonDuplicateReservation  = "DUPLICATE_RESERVATION"
	ReasonConsistencyFailure    = "CONSISTENCY_FAILURE"
	ReasonJustificationRequired = "JUSTIFICATION_REQUIRED"
	ReasonOutsideBookingWindow  = "OUTSIDE_BOOKING_WINDOW"
	ReasonUnknownFacility       = "UNKNOWN_FACILITY"
	ReasonAmenityNotOffered     = "AMENITY_NOT_OFFERED"
)

func Invalid(reason, message string, details map[string]any) *apperrors.AppError {
	return apperrors.Validation(message, details).WithReason(reason)
}

func Forbidden(message string) *apperrors.AppError {
	return apperrors.Forbidden(message).WithReason(ReasonNotAuthorized)
}

func DeadlinePassed(deadline string) *apperrors.AppError {
	return apperrors.Forbidden("Cancellation deadline has passed").
		WithReason(ReasonDeadlinePassed).
		WithDetails(map[string]any{"deadline": deadline})
}

func NotFound(ownerEmail, id string) *apperrors.AppError {
	return apperrors.NotFoundWithID("Reservation", id).WithReason(ReasonNotFound).WithDetails(map[string]any{
		"resource":    "Reservation",
		"id":          id,
		"owner_email": ownerEmail,
	})
}

func FacilityCapacityExceeded(facilityID, date string) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("Facility %s is fully booked on %s", facilityID, date)).
		WithReason(ReasonFacilityCapacity).
		WithDetails(map[string]any{"facility_id": facilityID, "date": date})
}

func AmenityCapacityExceeded(facilityID, date string) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("No amenity left at facility %s on %s", facilityID, date)).
		WithReason(ReasonAmenityCapacity).
		WithDetails(map[string]any{"facility_id": facilityID, "date": date})
}

func UserQuotaExceeded(ownerEmail, weekStart string, quota int) *apperrors.AppError {
	return apperrors.Conflict(fmt.Sprintf("Weekly quota of %d reservations reached", quota)).
		WithReason(ReasonUserQuota).
		WithDetails(map[string]any{"owner_email": ownerEmail, "week_start": weekStart, "quota": quota})
}

func DuplicateReservation(ownerEmail, id string) *apperrors.AppError {
	return apperrors.Conflict("A reservation for this facility and day already exists").
		WithReason(ReasonDuplicateReservation).
		WithDetails(map[string]any{"owner_email": ownerEmail, "id": id})
}

// ConsistencyFailure reports counters and ledger that no longer agree. err
// carries both the triggering failure and the failed repair; details hold the
// identifiers needed to reconcile by hand.
func ConsistencyFailure(err error, details map[string]any) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeInternal, "Reservation state requires manual reconciliation", http.StatusInternalServerError).
		WithReason(ReasonConsistencyFailure).
		WithDetails(details)
}
