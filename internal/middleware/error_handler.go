package middleware

import (
	"micropaper-backend/internal/pkg/apperror"
	"micropaper-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the global error handler. Service errors carry a kind
// that maps to the HTTP status; anything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return response.Error(c, e.Message, e.Code, nil)
	}

	kind := apperror.KindOf(err)
	code := apperror.HTTPStatus(err)
	message := err.Error()
	if kind == apperror.KindStorage {
		message = "Internal Server Error"
	}

	return response.ErrorKind(c, string(kind), message, code, apperror.DetailsOf(err))
}
