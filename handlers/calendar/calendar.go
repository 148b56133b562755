package calendar

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	cal "attendance-backend/calendar"
	"attendance-backend/models"
)

// Register mounts calendar routes under /calendar
func Register(g fiber.Router, p *cal.Policy, jwtGuard fiber.Handler) {
	g.Get("/day", jwtGuard, Day(p))
	g.Get("/working-days", jwtGuard, WorkingDays(p))
	g.Get("/holidays", jwtGuard, Holidays(p))
}

// dates parses the named YYYY-MM-DD query parameters, collecting every bad one.
func dates(c *fiber.Ctx, names ...string) ([]time.Time, error) {
	out := make([]time.Time, 0, len(names))
	var fields []models.FieldError
	for _, n := range names {
		d, err := cal.ParseDate(strings.TrimSpace(c.Query(n)))
		if err != nil {
			fields = append(fields, models.FieldError{Field: n, Error: n + " must be a date in YYYY-MM-DD form"})
			continue
		}
		out = append(out, d)
	}
	if len(fields) > 0 {
		return nil, models.NewValidationError("invalid input: "+fields[0].Error, fields...)
	}
	return out, nil
}

// GET /calendar/day?date=2025-08-15
func Day(p *cal.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := dates(c, "date")
		if err != nil {
			return err
		}
		reason, off := p.Reason(ds[0])
		return c.JSON(fiber.Map{
			"date":          ds[0].Format(models.DateLayout),
			"instructional": !off,
			"reason":        reason,
		})
	}
}

// GET /calendar/working-days?from=2025-11-01&to=2025-11-30
func WorkingDays(p *cal.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ds, err := dates(c, "from", "to")
		if err != nil {
			return err
		}
		n, err := p.CountInstructionalDays(ds[0], ds[1])
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"from":         ds[0].Format(models.DateLayout),
			"to":           ds[1].Format(models.DateLayout),
			"working_days": n,
		})
	}
}

// GET /calendar/holidays
func Holidays(p *cal.Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		type holiday struct {
			Date string `json:"date"`
			Name string `json:"name"`
		}
		hs := p.Holidays()
		out := make([]holiday, 0, len(hs))
		for _, h := range hs {
			out = append(out, holiday{Date: h.Date.Format(models.DateLayout), Name: h.Name})
		}
		return c.JSON(fiber.Map{
			"non_working_weekday": p.NonWorkingWeekday().String(),
			"holidays":            out,
		})
	}
}
