// Package main implements the entry point for the taskminder server,
// which manages users' deadline-bound tasks and sends an email reminder
// before each deadline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"taskminder/internal/config"
	"taskminder/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, status, version, create) and exit")
	migrationName := flag.String("migration-name", "",
		"name for a new migration (used with -migrate create)")
	migrationsDir := flag.String("migrations-dir", "migrations",
		"directory holding the SQL migration files")
	flag.Parse()

	if err := run(*migrateCmd, *migrationName, *migrationsDir); err != nil {
		log.Fatalf("Failed to run application: %v", err)
	}
}

// run loads configuration, wires dependencies and either executes the
// requested migration command or starts the HTTP server.
func run(migrateCmd, migrationName, migrationsDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if migrateCmd != "" {
		return handleMigrations(cfg, migrateCmd, migrationName, migrationsDir)
	}

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		// The application owns db cleanup only once construction succeeds.
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("Error closing database connection", "error", closeErr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		return err
	}

	return nil
}
