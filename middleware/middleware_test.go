package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-backend/models"
)

const secret = "test-secret"

func newApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(RequestID())
	return app
}

func token(t *testing.T, role models.UserRole, ttl time.Duration) string {
	t.Helper()
	tok, err := BuildAccessToken(secret, models.User{ID: uuid.New(), Username: "u1", Role: role}, ttl)
	require.NoError(t, err)
	return tok
}

func TestJwtGuardAndRoles(t *testing.T) {
	app := newApp()
	app.Get("/hod", JwtGuard(secret), RequireRole(models.UserRoleHOD), func(c *fiber.Ctx) error {
		id, err := GetUserIDFromClaims(c)
		if err != nil {
			return err
		}
		return c.SendString(GetUsernameFromClaims(c) + ":" + id.String())
	})

	tests := []struct {
		name   string
		auth   string
		status int
	}{
		{name: "no header", auth: "", status: fiber.StatusUnauthorized},
		{name: "not bearer", auth: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "garbage token", auth: "Bearer abc.def.ghi", status: fiber.StatusUnauthorized},
		{name: "expired", auth: "Bearer " + token(t, models.UserRoleAdmin, -time.Minute), status: fiber.StatusUnauthorized},
		{name: "staff below hod", auth: "Bearer " + token(t, models.UserRoleStaff, time.Minute), status: fiber.StatusForbidden},
		{name: "hod", auth: "Bearer " + token(t, models.UserRoleHOD, time.Minute), status: fiber.StatusOK},
		{name: "admin outranks hod", auth: "Bearer " + token(t, models.UserRoleAdmin, time.Minute), status: fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/hod", nil)
			if tt.auth != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
		})
	}
}

func TestJwtGuardWithoutSecret(t *testing.T) {
	app := newApp()
	app.Get("/", JwtGuard(""), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	_, err = BuildAccessToken("", models.User{}, time.Minute)
	assert.Error(t, err)
}

func TestSatisfies(t *testing.T) {
	assert.True(t, Satisfies(models.UserRoleAdmin, models.UserRoleStaff))
	assert.True(t, Satisfies(models.UserRoleHOD, models.UserRoleStaff))
	assert.False(t, Satisfies(models.UserRoleStaff, models.UserRoleHOD))
	assert.False(t, Satisfies("volunteer", models.UserRoleStaff))
}

func TestErrorHandler(t *testing.T) {
	nov10 := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		err        error
		status     int
		wantFields bool
	}{
		{name: "validation", err: models.NewValidationError("invalid input", models.FieldError{Field: "year", Error: "bad"}), status: 400, wantFields: true},
		{name: "range", err: &models.InvalidRangeError{From: nov10, To: nov10}, status: 400},
		{name: "holiday", err: errors.Wrap(&models.NonInstructionalDayError{Date: nov10, Reason: "x"}, "load"), status: 422},
		{name: "finalized", err: &models.SlotAlreadyFinalizedError{}, status: 409},
		{name: "duplicate", err: errors.Wrap(models.ErrDuplicate, "create"), status: 409},
		{name: "empty roster", err: &models.EmptyRosterError{Department: "ECE", Year: 4}, status: 404},
		{name: "not found", err: models.ErrNotFound, status: 404},
		{name: "fiber error", err: fiber.NewError(fiber.StatusTeapot, "tea"), status: 418},
		{name: "unknown", err: errors.New("db down"), status: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp()
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })
			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body models.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantFields, len(body.Fields) > 0)
			if tt.status == 500 {
				assert.Equal(t, "internal server error", body.Error)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := newApp()
	app.Get("/", RateLimit(2, time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)
}

func TestRequestIDEcho(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(c.Locals(RequestIDKey).(string)) })
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}
