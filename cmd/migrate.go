package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"attendance-backend/db"
)

var migrateCommands = map[string]bool{
	"up": true, "up-by-one": true, "up-to": true,
	"down": true, "down-to": true, "redo": true,
	"reset": true, "status": true, "version": true,
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate [up|down|status|version|reset] [args]",
		Short: "Apply or inspect database migrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !migrateCommands[args[0]] {
				return errors.Errorf("unknown migrate command %q", args[0])
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL environment variable is not set")
			}
			pool := db.MustPool(db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
			defer pool.Close()
			return db.Migrate(cmd.Context(), pool, args[0], args[1:]...)
		},
	}
}
