package dashboard

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"attendance-backend/models"
)

type Counter interface {
	Counts(ctx context.Context) (models.DashboardCounts, error)
}

// Register mounts /dashboard routes
func Register(g fiber.Router, cnt Counter, jwtGuard, requireAdmin fiber.Handler) {
	g.Get("/counts", jwtGuard, requireAdmin, Counts(cnt))
}

// GET /dashboard/counts -> {totalStudents, totalStaffs, totalHods}
func Counts(cnt Counter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		out, err := cnt.Counts(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(out)
	}
}
