package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"dayslot/pkg/logger"
	"dayslot/pkg/model"

	"github.com/go-playground/validator/v10"
)

var (
	facilityIDRegex = regexp.MustCompile(`^[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*$`)
	bookingIDRegex  = regexp.MustCompile(`^[A-Za-z0-9]+(?:-[A-Za-z0-9]+)*_\d{8}$`)
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details maps field to message for the error response body.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("facility_id", validateFacilityID); err != nil {
		log.Fatal("Failed to register 'facility_id' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("booking_id", validateBookingID); err != nil {
		log.Fatal("Failed to register 'booking_id' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateFacilityID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	return len(id) <= 64 && facilityIDRegex.MatchString(id)
}

func validateBookingID(fl validator.FieldLevel) bool {
	return bookingIDRegex.MatchString(fl.Field().String())
}

func (v *BookingValidator) ValidateCreate(req *model.CreateReservationRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateCancel(req *model.CancelReservationRequest) error {
	return v.validateStruct(req)
}

func (v *BookingValidator) ValidateQuery(query *model.ReservationQuery) error {
	return v.validateStruct(query)
}

func (v *BookingValidator) validateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "facility_id":
			message = fmt.Sprintf("%s must contain only letters, digits and single hyphens", err.Field())
		case "booking_id":
			message = fmt.Sprintf("%s must look like <facility>_YYYYMMDD", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
