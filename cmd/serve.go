package cmd

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"attendance-backend/capture"
	"attendance-backend/config"
	hAttendance "attendance-backend/handlers/attendance"
	hauth "attendance-backend/handlers/auth"
	hCalendar "attendance-backend/handlers/calendar"
	hDashboard "attendance-backend/handlers/dashboard"
	"attendance-backend/handlers/health"
	hReports "attendance-backend/handlers/reports"
	hStaff "attendance-backend/handlers/staff"
	hStudents "attendance-backend/handlers/students"
	mw "attendance-backend/middleware"
	"attendance-backend/models"
	"attendance-backend/report"
	"attendance-backend/roster"
	"attendance-backend/validation"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.CheckServe(); err != nil {
		return err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer be.close()
	log.Printf("store driver: %s", cfg.StoreDriver)

	if cfg.AdminUsername != "" {
		created, err := hauth.EnsureUser(ctx, be.users, cfg.AdminUsername, cfg.AdminPassword, models.UserRoleAdmin)
		if err != nil {
			return err
		}
		if created {
			log.Printf("created admin user %q", cfg.AdminUsername)
		}
	}

	app := newApp(cfg, be)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("listening on %s", cfg.Addr)
	return app.Listen(cfg.Addr)
}

func newApp(cfg *config.Config, be *backend) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "attendance-backend",
		ErrorHandler:          mw.ErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(mw.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:request_id} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + mw.RequestIDHeader,
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		ExposeHeaders: "Content-Disposition, " + mw.RequestIDHeader,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())

	app.Get("/healthz", health.Health(be.pinger))

	app.Use(mw.RateLimit(cfg.RateLimitMax, time.Minute))

	// JWT Guards and Role Requirements
	jwtGuard := mw.JwtGuard(cfg.JWTSecret)
	requireAdmin := mw.RequireRole(models.UserRoleAdmin)
	requireHOD := mw.RequireRole(models.UserRoleHOD)
	requireStaff := mw.RequireRole(models.UserRoleStaff)

	v := validation.New()
	engine := capture.NewEngine(cfg.Calendar, roster.NewResolver(be.directory), be.records, v,
		capture.WithPeriodsPerDay(cfg.PeriodsPerDay))
	builder := report.NewBuilder(be.records, cfg.Calendar)

	hauth.Register(app.Group("/auth"), be.users, hauth.Config{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}, v, jwtGuard, requireAdmin, mw.RateLimit(cfg.LoginRateLimitMax, time.Minute))

	hCalendar.Register(app.Group("/calendar"), cfg.Calendar, jwtGuard)
	hAttendance.Register(app.Group("/attendance"), engine, jwtGuard, requireStaff)
	hReports.Register(app.Group("/reports"), builder, jwtGuard, requireHOD)
	hStudents.Register(app.Group("/students"), be.directory, v, jwtGuard, requireStaff, requireAdmin)
	hStaff.Register(app.Group("/staff"), be.directory, v, jwtGuard, requireAdmin)
	hDashboard.Register(app.Group("/dashboard"), be.directory, jwtGuard, requireAdmin)

	return app
}
