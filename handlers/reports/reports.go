package reports

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"attendance-backend/calendar"
	"attendance-backend/models"
	"attendance-backend/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Register mounts report routes under /reports
func Register(g fiber.Router, b *report.Builder, jwtGuard fiber.Handler, requireHOD fiber.Handler) {
	g.Get("/", jwtGuard, requireHOD, Summary(b))
	g.Get("/export_csv", jwtGuard, requireHOD, ExportCSV(b))
	g.Get("/export_xlsx", jwtGuard, requireHOD, ExportXLSX(b))
}

type filterQuery struct {
	Department string `query:"department"`
	Year       int    `query:"year"`
	From       string `query:"from"`
	To         string `query:"to"`
}

// parseFilter reads ?department=&year=&from=&to=. from and to are required.
func parseFilter(c *fiber.Ctx) (models.RecordFilter, error) {
	var q filterQuery
	if err := c.QueryParser(&q); err != nil {
		return models.RecordFilter{}, fiber.NewError(fiber.StatusBadRequest, "Bad query parameters")
	}
	var fields []models.FieldError
	from, err := calendar.ParseDate(strings.TrimSpace(q.From))
	if err != nil {
		fields = append(fields, models.FieldError{Field: "from", Error: "from must be a date in YYYY-MM-DD form"})
	}
	to, err := calendar.ParseDate(strings.TrimSpace(q.To))
	if err != nil {
		fields = append(fields, models.FieldError{Field: "to", Error: "to must be a date in YYYY-MM-DD form"})
	}
	if q.Year < 0 || q.Year > 4 {
		fields = append(fields, models.FieldError{Field: "year", Error: "year must be between 1 and 4"})
	}
	if len(fields) > 0 {
		return models.RecordFilter{}, models.NewValidationError("invalid input: "+fields[0].Error, fields...)
	}
	return models.RecordFilter{Department: q.Department, Year: q.Year, From: from, To: to}, nil
}

// GET /reports?department=CSE&year=2&from=2025-11-01&to=2025-11-30
func Summary(b *report.Builder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseFilter(c)
		if err != nil {
			return err
		}
		s, err := b.Summarize(c.UserContext(), f)
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// GET /reports/export_csv (same query as /reports)
func ExportCSV(b *report.Builder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseFilter(c)
		if err != nil {
			return err
		}
		s, err := b.Summarize(c.UserContext(), f)
		if err != nil {
			return err
		}
		c.Set("Content-Type", "text/csv")
		c.Set("Content-Disposition", `attachment; filename="`+report.Filename(s, "csv")+`"`)
		return report.WriteCSV(c.Response().BodyWriter(), s)
	}
}

// GET /reports/export_xlsx (same query as /reports)
func ExportXLSX(b *report.Builder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := parseFilter(c)
		if err != nil {
			return err
		}
		s, err := b.Summarize(c.UserContext(), f)
		if err != nil {
			return err
		}
		c.Set("Content-Type", xlsxContentType)
		c.Set("Content-Disposition", `attachment; filename="`+report.Filename(s, "xlsx")+`"`)
		return report.WriteXLSX(c.Response().BodyWriter(), s)
	}
}
