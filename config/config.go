// Package config reads service settings from the environment (and .env).
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"attendance-backend/calendar"
	"attendance-backend/capture"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// DefaultHolidays are the 2025 public holidays the college observes.
const DefaultHolidays = "2025-01-26=Republic Day,2025-08-15=Independence Day,2025-10-02=Gandhi Jayanti,2025-12-25=Christmas"

type Config struct {
	Addr              string
	DatabaseURL       string
	StoreDriver       string
	JWTSecret         string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	CORSOrigins       string
	RateLimitMax      int
	LoginRateLimitMax int
	PeriodsPerDay     int
	DBMaxConns        int32
	DBMinConns        int32
	AdminUsername     string
	AdminPassword     string

	Calendar *calendar.Policy
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v, afero.NewOsFs())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_ADDR", ":8000")
	v.SetDefault("STORE_DRIVER", DriverPostgres)
	v.SetDefault("ACCESS_TOKEN_TTL", 15*time.Minute)
	v.SetDefault("REFRESH_TOKEN_TTL", 30*24*time.Hour)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_MAX", 100)
	v.SetDefault("LOGIN_RATE_LIMIT_MAX", 5)
	v.SetDefault("HOLIDAYS", DefaultHolidays)
	v.SetDefault("NON_WORKING_WEEKDAY", "Sunday")
	v.SetDefault("PERIODS_PER_DAY", capture.DefaultPeriodsPerDay)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
}

// FromViper builds a Config from v. Holiday files are read from fs.
func FromViper(v *viper.Viper, fs afero.Fs) (*Config, error) {
	setDefaults(v)

	c := &Config{
		Addr:              v.GetString("API_ADDR"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		StoreDriver:       strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		JWTSecret:         v.GetString("JWT_SECRET"),
		AccessTokenTTL:    v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL:   v.GetDuration("REFRESH_TOKEN_TTL"),
		CORSOrigins:       v.GetString("CORS_ORIGINS"),
		RateLimitMax:      v.GetInt("RATE_LIMIT_MAX"),
		LoginRateLimitMax: v.GetInt("LOGIN_RATE_LIMIT_MAX"),
		PeriodsPerDay:     v.GetInt("PERIODS_PER_DAY"),
		DBMaxConns:        v.GetInt32("DB_MAX_CONNS"),
		DBMinConns:        v.GetInt32("DB_MIN_CONNS"),
		AdminUsername:     v.GetString("BOOTSTRAP_ADMIN_USERNAME"),
		AdminPassword:     v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
	}

	var errs error
	switch c.StoreDriver {
	case DriverPostgres, DriverMemory:
	default:
		errs = multierr.Append(errs, errors.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver))
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = multierr.Append(errs, errors.New("BOOTSTRAP_ADMIN_USERNAME and BOOTSTRAP_ADMIN_PASSWORD must be set together"))
	}
	if c.PeriodsPerDay < 1 {
		errs = multierr.Append(errs, errors.Errorf("PERIODS_PER_DAY must be positive, got %d", c.PeriodsPerDay))
	}

	weekday, ok := calendar.ParseWeekday(v.GetString("NON_WORKING_WEEKDAY"))
	if !ok {
		errs = multierr.Append(errs, errors.Errorf("NON_WORKING_WEEKDAY: unknown weekday %q", v.GetString("NON_WORKING_WEEKDAY")))
	}

	holidays, err := calendar.ParseHolidayList(strings.Split(v.GetString("HOLIDAYS"), ","))
	if err != nil {
		errs = multierr.Append(errs, errors.Wrap(err, "HOLIDAYS"))
	}
	if path := v.GetString("HOLIDAYS_FILE"); path != "" {
		more, err := calendar.LoadHolidays(fs, path)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrap(err, "HOLIDAYS_FILE"))
		}
		holidays = append(holidays, more...)
	}
	c.Calendar = calendar.NewPolicy(weekday, holidays...)

	if errs != nil {
		return nil, errs
	}
	return c, nil
}

// CheckServe reports settings the HTTP server cannot start without.
func (c *Config) CheckServe() error {
	var errs error
	if c.JWTSecret == "" {
		errs = multierr.Append(errs, errors.New("JWT_SECRET environment variable is not set"))
	}
	if c.StoreDriver == DriverPostgres && c.DatabaseURL == "" {
		errs = multierr.Append(errs, errors.New("DATABASE_URL environment variable is not set"))
	}
	return errs
}
