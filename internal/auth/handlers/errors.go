package handlers

import (
	"errors"
	"net/http"
	"time"

	"bookstore/internal/auth/models"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

// ============================================================
// Error Rendering
// ============================================================

// ErrorDetail is the body of every non-2xx response.
type ErrorDetail struct {
	ErrorType  string `json:"error_type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp"`
}

// ErrorHandler maps domain errors onto HTTP statuses and renders them as an
// ErrorDetail. Unknown errors become a 500 and are logged, never echoed.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c fiber.Ctx, err error) error {
		detail := ErrorDetail{
			ErrorType:  models.Kind(err),
			Message:    err.Error(),
			StatusCode: statusFor(err),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		}

		var fe *fiber.Error
		if errors.As(err, &fe) {
			detail.ErrorType = httpErrorType(fe.Code)
			detail.Message = fe.Message
			detail.StatusCode = fe.Code
		}

		if detail.StatusCode == http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			detail.Message = "internal server error"
		}

		return c.Status(detail.StatusCode).JSON(detail)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrDuplicateUsername), errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUserNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func httpErrorType(code int) string {
	switch code {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		if code >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "HTTP_ERROR"
	}
}
