package calendar

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cal "attendance-backend/calendar"
	mw "attendance-backend/middleware"
	"attendance-backend/models"
)

func TestCalendarRoutes(t *testing.T) {
	indep, _ := cal.ParseDate("2025-08-15")
	p := cal.NewPolicy(time.Sunday, models.Holiday{Date: indep, Name: "Independence Day"})

	app := fiber.New(fiber.Config{ErrorHandler: mw.ErrorHandler})
	Register(app.Group("/calendar"), p, mw.JwtGuard("s"))
	tok, err := mw.BuildAccessToken("s", models.User{ID: uuid.New(), Role: models.UserRoleStaff}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		target string
		status int
		want   map[string]any
	}{
		{name: "holiday", target: "/calendar/day?date=2025-08-15", status: 200,
			want: map[string]any{"date": "2025-08-15", "instructional": false, "reason": "Independence Day"}},
		{name: "monday", target: "/calendar/day?date=2025-11-10", status: 200,
			want: map[string]any{"date": "2025-11-10", "instructional": true, "reason": ""}},
		{name: "bad date", target: "/calendar/day?date=nope", status: 400},
		{name: "november", target: "/calendar/working-days?from=2025-11-01&to=2025-11-30", status: 200,
			want: map[string]any{"from": "2025-11-01", "to": "2025-11-30", "working_days": float64(25)}},
		{name: "reversed", target: "/calendar/working-days?from=2025-11-30&to=2025-11-01", status: 400},
		{name: "missing to", target: "/calendar/working-days?from=2025-11-01", status: 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.target, nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.want != nil {
				got := map[string]any{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
				assert.Equal(t, tt.want, got)
			}
		})
	}

	req := httptest.NewRequest(fiber.MethodGet, "/calendar/holidays", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	resp, err := app.Test(req)
	require.NoError(t, err)
	var body struct {
		Weekday  string `json:"non_working_weekday"`
		Holidays []struct {
			Date string `json:"date"`
			Name string `json:"name"`
		} `json:"holidays"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Sunday", body.Weekday)
	require.Len(t, body.Holidays, 1)
	assert.Equal(t, "2025-08-15", body.Holidays[0].Date)
}
