package server

import (
	"errors"

	"arcade/service"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// errorResponse is the JSON body of every failed request
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// errorHandler maps service errors onto HTTP status codes
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	body := errorBody{Code: "INTERNAL", Message: "internal server error"}

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		body = errorBody{Code: codeForStatus(fe.Code), Message: fe.Message}
	case errors.Is(err, service.ErrInvalidInput):
		status = fiber.StatusBadRequest
		body = errorBody{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, service.ErrUnknownUser):
		status = fiber.StatusNotFound
		body = errorBody{Code: "UNKNOWN_USER", Message: err.Error()}
	case errors.Is(err, service.ErrUnknownAchievement):
		status = fiber.StatusNotFound
		body = errorBody{Code: "UNKNOWN_ACHIEVEMENT", Message: err.Error()}
	case errors.Is(err, service.ErrPersistenceConflict):
		status = fiber.StatusConflict
		body = errorBody{Code: "CONFLICT", Message: "request conflicted with a concurrent update", Retryable: true}
	case service.IsRetryable(err):
		status = fiber.StatusServiceUnavailable
		body = errorBody{Code: "UNAVAILABLE", Message: "storage temporarily unavailable", Retryable: true}
		c.Set(fiber.HeaderRetryAfter, "1")
	}

	if status >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method":    c.Method(),
			"path":      c.Path(),
			"requestID": c.Locals(localRequestID),
		}).WithError(err).Error("Request failed")
	}

	return c.Status(status).JSON(errorResponse{Error: body})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusForbidden:
		return "FORBIDDEN"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "ERROR"
	}
}
