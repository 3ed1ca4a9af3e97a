package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskminder/internal/config"
	"taskminder/internal/platform/mailer"
	"taskminder/internal/platform/postgres"
	"taskminder/internal/reminder"
	"taskminder/internal/service"
	"taskminder/internal/service/auth"
	"taskminder/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore store.UserStore
	taskStore store.TaskStore

	// Services
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	taskService      *service.TaskService

	// Reminder pipeline
	notifier  reminder.Notifier
	scheduler *reminder.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before initialization.
func newApplication(
	_ context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewUserStore(db, bcrypt.DefaultCost)
	app.taskStore = postgres.NewTaskStore(db)

	app.notifier, err = mailer.NewSMTPNotifier(cfg.Mail, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SMTP notifier: %w", err)
	}

	leadTime := time.Duration(cfg.Reminder.LeadTimeMinutes) * time.Minute
	app.scheduler = reminder.NewScheduler(app.notifier, leadTime, logger)
	logger.Info("Reminder scheduler initialized", "lead_time", leadTime)

	app.taskService, err = service.NewTaskService(app.taskStore, app.userStore, app.scheduler, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources. Pending
// reminders are discarded: the scheduler is in-memory only and does not
// survive a restart.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
