package staff

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"attendance-backend/models"
	"attendance-backend/validation"
)

type Store interface {
	ListStaff(ctx context.Context, department string) ([]models.Staff, error)
	GetStaff(ctx context.Context, id uuid.UUID) (models.Staff, error)
	CreateStaff(ctx context.Context, s models.Staff) (models.Staff, error)
	UpdateStaff(ctx context.Context, s models.Staff) (models.Staff, error)
	DeleteStaff(ctx context.Context, id uuid.UUID) error
}

// Register mounts staff routes under /staff (admin only)
func Register(g fiber.Router, st Store, v *validation.Validator, jwtGuard, requireAdmin fiber.Handler) {
	g.Get("/", jwtGuard, requireAdmin, List(st))
	g.Post("/", jwtGuard, requireAdmin, Create(st, v))
	g.Get("/:id", jwtGuard, requireAdmin, Get(st))
	g.Put("/:id", jwtGuard, requireAdmin, Update(st, v))
	g.Delete("/:id", jwtGuard, requireAdmin, Delete(st))
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid staff id")
	}
	return id, nil
}

func bind(c *fiber.Ctx, v *validation.Validator) (models.StaffRequest, error) {
	var b models.StaffRequest
	if err := c.BodyParser(&b); err != nil {
		return b, fiber.NewError(fiber.StatusBadRequest, "Bad JSON")
	}
	b.Name = strings.TrimSpace(b.Name)
	b.Department = strings.ToUpper(strings.TrimSpace(b.Department))
	for i := range b.Subjects {
		b.Subjects[i].Name = strings.TrimSpace(b.Subjects[i].Name)
	}
	if b.Subjects == nil {
		b.Subjects = []models.Subject{}
	}
	return b, v.Struct(b)
}

func apply(s models.Staff, b models.StaffRequest) models.Staff {
	s.Name = b.Name
	s.Department = b.Department
	s.Role = b.Role
	s.Subjects = b.Subjects
	if b.Active != nil {
		s.Active = *b.Active
	}
	return s
}

// GET /staff?department=CSE
func List(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := st.ListStaff(c.UserContext(), strings.ToUpper(strings.TrimSpace(c.Query("department"))))
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}

// POST /staff  {name, department, role, subjects:[{name, year}], active?}
func Create(st Store, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := bind(c, v)
		if err != nil {
			return err
		}
		s, err := st.CreateStaff(c.UserContext(), apply(models.Staff{Active: true}, b))
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(s)
	}
}

// GET /staff/:id
func Get(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		s, err := st.GetStaff(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
			}
			return err
		}
		return c.JSON(s)
	}
}

// PUT /staff/:id  (full replacement; active keeps its value when omitted)
func Update(st Store, v *validation.Validator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		b, err := bind(c, v)
		if err != nil {
			return err
		}
		ctx := c.UserContext()
		cur, err := st.GetStaff(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
			}
			return err
		}
		s, err := st.UpdateStaff(ctx, apply(cur, b))
		if err != nil {
			return err
		}
		return c.JSON(s)
	}
}

// DELETE /staff/:id
func Delete(st Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := st.DeleteStaff(c.UserContext(), id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Staff member not found")
			}
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
