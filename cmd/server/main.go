// cmd/server/main.go
// This is the entry point for the Golf Metrics API server.
// The "cmd/server" directory follows a common Go convention: the cmd/ folder holds executable
// binaries, and internal/ holds packages that are not meant to be imported by other projects.
package main

import (
	"os"
	"os/signal"
	"syscall"

	// fiber is a fast HTTP web framework inspired by Express.js
	"github.com/gofiber/fiber/v2"
	// cors lets the browser front end call the API from a different origin
	"github.com/gofiber/fiber/v2/middleware/cors"
	// recover turns a panic in a handler into a 500 instead of killing the process
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/trentd187/golf-metrics/internal/config"
	"github.com/trentd187/golf-metrics/internal/database"
	"github.com/trentd187/golf-metrics/internal/handlers"
	"github.com/trentd187/golf-metrics/internal/logging"
	"github.com/trentd187/golf-metrics/internal/middleware"
	"github.com/trentd187/golf-metrics/internal/repository"
)

func main() {
	// Load configuration from environment variables (and optionally .env / config.yaml).
	cfg, err := config.Load()
	if err != nil {
		logging.New("info", "json").WithError(err).Fatal("Failed to load configuration")
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Connect to PostgreSQL. The returned *gorm.DB is a connection pool shared by every request.
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Apply pending SQL migrations so the schema is in sync before we serve traffic.
	if cfg.RunMigrations {
		if err := database.RunMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
		log.WithField("source", cfg.MigrationsPath).Info("Migrations applied")
	}

	env := &handlers.Env{
		Store:       repository.New(db),
		Log:         log,
		PageSize:    cfg.PageSize,
		MaxPageSize: cfg.MaxPageSize,
	}

	app := fiber.New(fiber.Config{
		AppName:      "Golf Metrics API",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	// --- Global middleware ---
	// These run on every request before any route handler, in this order.
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(log))
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSAllowOrigins}))

	handlers.Register(app, env)

	// Stop accepting connections on Ctrl+C / SIGTERM and let in-flight requests finish.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("Shutting down server")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
