package cmd

import (
	"context"

	"github.com/pkg/errors"

	"attendance-backend/capture"
	"attendance-backend/config"
	"attendance-backend/db"
	"attendance-backend/handlers/auth"
	"attendance-backend/handlers/dashboard"
	"attendance-backend/handlers/health"
	"attendance-backend/handlers/staff"
	"attendance-backend/handlers/students"
	"attendance-backend/report"
	"attendance-backend/roster"
	"attendance-backend/store/directory"
	"attendance-backend/store/memory"
	"attendance-backend/store/postgres"
)

type recordStore interface {
	capture.RecordStore
	report.RecordSource
}

type directoryStore interface {
	roster.Directory
	students.Directory
	staff.Store
	dashboard.Counter
}

// backend is the set of stores one driver provides.
type backend struct {
	records   recordStore
	directory directoryStore
	users     auth.Store
	pinger    health.Pinger
	close     func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	if cfg.StoreDriver == config.DriverMemory {
		mem := memory.New()
		return &backend{records: mem, directory: mem, users: mem, pinger: mem, close: func() {}}, nil
	}

	pool, err := db.Open(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return nil, err
	}
	gdb, err := db.OpenGorm(pool)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "open directory")
	}
	pg := postgres.New(pool)
	return &backend{
		records:   pg,
		directory: directory.New(gdb),
		users:     pg,
		pinger:    pg,
		close:     pool.Close,
	}, nil
}
