package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/weather-favorites/internal/weather"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed or missing request input.
type ValidationError struct {
	Message string
	Details []FieldError
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return weather.ErrValidation }

func newValidationError(details ...FieldError) *ValidationError {
	return &ValidationError{Message: "Validation failed", Details: details}
}

// fromValidator converts validator errors into field details keyed by json name.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return newValidationError()
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	return newValidationError(details...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// ErrorHandler maps errors to the {error, message, details} response shape.
func ErrorHandler(development bool, log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		body := fiber.Map{"error": true, "message": "Internal Server Error"}

		var (
			verr   *ValidationError
			exists *weather.LocationExistsError
			ferr   *fiber.Error
		)
		switch {
		case errors.As(err, &verr):
			status = fiber.StatusBadRequest
			body["message"] = verr.Message
			if len(verr.Details) > 0 {
				body["details"] = verr.Details
			}
		case errors.As(err, &exists):
			status = fiber.StatusConflict
			body["message"] = exists.Error()
			body["location"] = exists.Existing
		case errors.Is(err, weather.ErrValidation):
			status = fiber.StatusBadRequest
			body["message"] = err.Error()
		case errors.Is(err, weather.ErrNotFound):
			status = fiber.StatusNotFound
			body["message"] = err.Error()
		case errors.Is(err, weather.ErrConflict):
			status = fiber.StatusConflict
			body["message"] = err.Error()
		case errors.Is(err, weather.ErrUpstream):
			status = fiber.StatusBadGateway
			body["message"] = "Failed to fetch weather data"
		case errors.As(err, &ferr):
			status = ferr.Code
			body["message"] = ferr.Message
		}

		reqID, _ := c.Locals("requestid").(string)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("request_id", reqID).Str("path", c.Path()).Int("status", status).Msg("request failed")
			if development {
				if stack, ok := c.Locals(stackKey).(string); ok {
					body["stack"] = stack
				}
				if status == fiber.StatusInternalServerError {
					body["message"] = err.Error()
				}
			}
		} else {
			log.Debug().Err(err).Str("request_id", reqID).Str("path", c.Path()).Int("status", status).Msg("request rejected")
		}

		return c.Status(status).JSON(body)
	}
}
