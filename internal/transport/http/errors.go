package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"trivia-match-service/internal/domain"
)

// errorBody is the uniform error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// newErrorHandler maps domain errors onto their HTTP status and the error
// envelope. Anything unrecognized is a 500 with a generic body; the cause is
// logged, never leaked.
func newErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return c.Status(derr.Status).JSON(errorBody{Error: errorDetail{
				Code:    derr.Code,
				Message: derr.Message,
				Details: derr.Details,
			}})
		}
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(errorBody{Error: errorDetail{
				Code:    "HTTP_ERROR",
				Message: ferr.Message,
			}})
		}
		log.Error("unhandled error", "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorBody{Error: errorDetail{
			Code:    "INTERNAL",
			Message: "Internal server error",
		}})
	}
}
