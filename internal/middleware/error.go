package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"portal-comments/internal/domain"
)

type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	TraceID string              `json:"trace_id,omitempty"`
}

// ErrorHandler translates domain errors into HTTP responses so handlers
// can return service errors unchanged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	errorCode := "INTERNAL_ERROR"
	var fieldErrors map[string][]string

	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var notAuthorizedErr *domain.NotAuthorizedError
	var alreadyExistsErr *domain.AlreadyExistsError
	var badSubjectType *domain.UnsupportedSubjectTypeError
	var badAuthorType *domain.UnsupportedAuthorTypeError

	switch {
	case errors.As(err, &validationErr):
		code = fiber.StatusUnprocessableEntity
		errorCode = "VALIDATION_ERROR"
		message = "Validation failed"
		fieldErrors = validationErr.Errors
	case errors.As(err, &notFoundErr):
		code = fiber.StatusNotFound
		errorCode = "NOT_FOUND"
		message = notFoundErr.Error()
	case errors.As(err, &notAuthorizedErr):
		code = fiber.StatusForbidden
		errorCode = "FORBIDDEN"
		message = notAuthorizedErr.Error()
	case errors.As(err, &alreadyExistsErr):
		code = fiber.StatusConflict
		errorCode = "CONFLICT"
		message = alreadyExistsErr.Error()
	case errors.As(err, &badSubjectType), errors.As(err, &badAuthorType):
		code = fiber.StatusBadRequest
		errorCode = "BAD_REQUEST"
		message = err.Error()
	default:
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
			switch code {
			case fiber.StatusBadRequest:
				errorCode = "BAD_REQUEST"
			case fiber.StatusUnauthorized:
				errorCode = "UNAUTHORIZED"
			case fiber.StatusForbidden:
				errorCode = "FORBIDDEN"
			case fiber.StatusNotFound:
				errorCode = "NOT_FOUND"
			case fiber.StatusConflict:
				errorCode = "CONFLICT"
			case fiber.StatusUnprocessableEntity:
				errorCode = "VALIDATION_ERROR"
			}
		}
	}

	traceID := uuid.New().String()[:8]

	return c.Status(code).JSON(ErrorResponse{
		Code:    errorCode,
		Message: message,
		Errors:  fieldErrors,
		TraceID: traceID,
	})
}

func BadRequest(message string) *fiber.Error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}
