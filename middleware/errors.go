package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"attendance-backend/models"
)

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	var (
		fe       *fiber.Error
		verr     *models.ValidationError
		rangeErr *models.InvalidRangeError
		dayErr   *models.NonInstructionalDayError
		taken    *models.SlotAlreadyFinalizedError
		empty    *models.EmptyRosterError
	)
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.As(err, &verr), errors.As(err, &rangeErr):
		return fiber.StatusBadRequest
	case errors.As(err, &dayErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &taken), errors.Is(err, models.ErrDuplicate):
		return fiber.StatusConflict
	case errors.As(err, &empty), errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every error as models.ErrorResponse. Unknown errors
// become a generic 500 and are logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)
	resp := models.ErrorResponse{Error: err.Error()}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	if code == fiber.StatusInternalServerError {
		log.Printf("ERROR %s %s [%v]: %+v", c.Method(), c.Path(), c.Locals(RequestIDKey), err)
		resp.Error = "internal server error"
	}
	return c.Status(code).JSON(resp)
}
