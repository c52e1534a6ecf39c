package validator

import (
	"errors"
	"fmt"
	"strings"

	"purohit/pkg/logger"
	"purohit/pkg/model"

	"github.com/go-playground/validator/v10"
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

// TrackingValidator checks samples and journey requests before they reach
// the store. Coordinate bounds use the builtin latitude/longitude tags.
type TrackingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewTrackingValidator(log *logger.Logger) *TrackingValidator {
	return &TrackingValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *TrackingValidator) ValidateSample(sample *model.LocationSample) error {
	if err := v.validate.Struct(sample); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *TrackingValidator) ValidateJourneyStart(start *model.JourneyStart) error {
	if err := v.validate.Struct(start); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *TrackingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "latitude":
			message = fmt.Sprintf("%s must be between -90 and 90", err.Field())
		case "longitude":
			message = fmt.Sprintf("%s must be between -180 and 180", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
