package attendance

import (
	"github.com/gofiber/fiber/v2"

	"attendance-backend/capture"
	mw "attendance-backend/middleware"
	"attendance-backend/models"
)

// Register mounts attendance routes under /attendance
func Register(g fiber.Router, eng *capture.Engine, jwtGuard fiber.Handler, requireStaff fiber.Handler) {
	g.Get("/slot", jwtGuard, requireStaff, LoadSlot(eng))
	g.Post("/toggle", jwtGuard, requireStaff, Toggle(eng))
	g.Post("/submit", jwtGuard, requireStaff, Submit(eng))
	g.Get("/view", jwtGuard, requireStaff, View(eng))
	g.Get("/locked", jwtGuard, requireStaff, Locked(eng))
}

// GET /attendance/slot?department=CSE&year=2&date=2025-11-10&period=1&subject=DBMS
// Returns the class roster with everyone marked Present.
func LoadSlot(eng *capture.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q models.SlotRequest
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad query parameters")
		}
		sheet, err := eng.LoadSlot(c.UserContext(), q)
		if err != nil {
			return err
		}
		return c.JSON(sheet.Response())
	}
}

// POST /attendance/toggle  {department, year, date, period, subject, marks, student_id}
// Stateless: the client posts its current marks and gets them back with one student flipped.
func Toggle(eng *capture.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.ToggleRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		if b.StudentID == "" {
			return models.NewValidationError("student_id is required",
				models.FieldError{Field: "student_id", Error: "student_id is required"})
		}
		marks, err := eng.Toggle(c.UserContext(), b.SlotRequest, b.Marks, b.StudentID)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"marks": marks})
	}
}

// POST /attendance/submit  {department, year, date, period, subject, marks}
// Finalizes the slot. A second submit for the same slot gets 409.
func Submit(eng *capture.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b models.SubmitRequest
		if err := c.BodyParser(&b); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
		}
		rec, err := eng.Submit(c.UserContext(), b.SlotRequest, b.Marks, mw.GetUsernameFromClaims(c))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

type keyQuery struct {
	Department string `query:"department"`
	Year       int    `query:"year"`
	Date       string `query:"date"`
	Period     int    `query:"period"`
}

// GET /attendance/view?department=CSE&year=2&date=2025-11-10&period=1
func View(eng *capture.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q keyQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad query parameters")
		}
		key, err := eng.ParseKey(q.Department, q.Year, q.Date, q.Period)
		if err != nil {
			return err
		}
		rec, err := eng.Record(c.UserContext(), key)
		if err != nil {
			return err
		}
		return c.JSON(rec)
	}
}

// GET /attendance/locked?department=CSE&year=2&date=2025-11-10
// Lists periods already submitted for the class-day and those still open.
func Locked(eng *capture.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q keyQuery
		if err := c.QueryParser(&q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Bad query parameters")
		}
		av, err := eng.Periods(c.UserContext(), q.Department, q.Year, q.Date)
		if err != nil {
			return err
		}
		return c.JSON(av)
	}
}
