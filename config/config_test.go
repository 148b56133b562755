package config

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-backend/calendar"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestDefaults(t *testing.T) {
	c, err := FromViper(viper.New(), afero.NewMemMapFs())
	require.NoError(t, err)

	assert.Equal(t, ":8000", c.Addr)
	assert.Equal(t, DriverPostgres, c.StoreDriver)
	assert.Equal(t, 15*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 720*time.Hour, c.RefreshTokenTTL)
	assert.Equal(t, 8, c.PeriodsPerDay)
	assert.Equal(t, int32(10), c.DBMaxConns)
	assert.Equal(t, time.Sunday, c.Calendar.NonWorkingWeekday())
	assert.Len(t, c.Calendar.Holidays(), 4)

	reason, off := c.Calendar.Reason(day(t, "2025-08-15"))
	assert.True(t, off)
	assert.Equal(t, "Independence Day", reason)

	n, err := c.Calendar.CountInstructionalDays(day(t, "2025-11-01"), day(t, "2025-11-30"))
	require.NoError(t, err)
	assert.Equal(t, 25, n)
}

func TestOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/holidays.yaml", []byte(`
holidays:
  - date: "2025-11-14"
    name: Founders Day
`), 0o644))

	v := viper.New()
	v.Set("STORE_DRIVER", "Memory")
	v.Set("ACCESS_TOKEN_TTL", "1h")
	v.Set("PERIODS_PER_DAY", 6)
	v.Set("NON_WORKING_WEEKDAY", "sat")
	v.Set("HOLIDAYS", "")
	v.Set("HOLIDAYS_FILE", "/srv/holidays.yaml")

	c, err := FromViper(v, fs)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, c.StoreDriver)
	assert.Equal(t, time.Hour, c.AccessTokenTTL)
	assert.Equal(t, 6, c.PeriodsPerDay)
	assert.False(t, c.Calendar.IsInstructionalDay(day(t, "2025-11-15")))
	assert.True(t, c.Calendar.IsInstructionalDay(day(t, "2025-11-16")))
	assert.False(t, c.Calendar.IsInstructionalDay(day(t, "2025-11-14")))
	assert.True(t, c.Calendar.IsInstructionalDay(day(t, "2025-08-15")))
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{name: "driver", key: "STORE_DRIVER", value: "mongo", wantErr: "STORE_DRIVER"},
		{name: "weekday", key: "NON_WORKING_WEEKDAY", value: "someday", wantErr: "NON_WORKING_WEEKDAY"},
		{name: "periods", key: "PERIODS_PER_DAY", value: 0, wantErr: "PERIODS_PER_DAY"},
		{name: "holiday list", key: "HOLIDAYS", value: "2025-13-01", wantErr: "HOLIDAYS"},
		{name: "holiday file", key: "HOLIDAYS_FILE", value: "/nope.yaml", wantErr: "HOLIDAYS_FILE"},
		{name: "admin without password", key: "BOOTSTRAP_ADMIN_USERNAME", value: "admin", wantErr: "BOOTSTRAP_ADMIN_PASSWORD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := FromViper(v, afero.NewMemMapFs())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckServe(t *testing.T) {
	c := &Config{StoreDriver: DriverPostgres}
	err := c.CheckServe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "DATABASE_URL")

	c = &Config{StoreDriver: DriverMemory, JWTSecret: "s3cret"}
	assert.NoError(t, c.CheckServe())
}
