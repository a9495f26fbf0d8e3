package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/config"
	"github.com/stanstork/stratum-orgs/internal/handlers"
	"github.com/stanstork/stratum-orgs/internal/invitation"
	"github.com/stanstork/stratum-orgs/internal/middleware"
	"github.com/stanstork/stratum-orgs/internal/migration"
	"github.com/stanstork/stratum-orgs/internal/notification"
	"github.com/stanstork/stratum-orgs/internal/organization"
	"github.com/stanstork/stratum-orgs/internal/property"
	"github.com/stanstork/stratum-orgs/internal/repository"
	"github.com/stanstork/stratum-orgs/internal/revalidate"
	"github.com/stanstork/stratum-orgs/internal/routes"
	"github.com/stanstork/stratum-orgs/internal/temporal"
	"github.com/stanstork/stratum-orgs/internal/temporal/activities"
	"github.com/stanstork/stratum-orgs/internal/temporal/workflows"
	purgeworker "github.com/stanstork/stratum-orgs/internal/worker"

	_ "github.com/lib/pq" // PostgreSQL driver
	tc "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

type application struct {
	config        *config.Config
	db            *sql.DB
	store         repository.Store
	logger        zerolog.Logger
	notifications notification.Service
	invitations   *invitation.Service
	organizations *organization.Service
	properties    *property.Service
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	goose.SetLogger(migration.NewGooseAdapter(logger))

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	app := newApplication(cfg, db, logger)

	// Start the purge schedule, on Temporal when configured.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stopPurge := app.startPurge(ctx)

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.CORS.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, stopPurge)

	logger.Info().Msg("Application terminated.")
}

func newApplication(cfg *config.Config, db *sql.DB, logger zerolog.Logger) *application {
	store := repository.NewPostgresStore(db)

	var notifiers []notification.Notifier
	if cfg.Email.SMTPHost != "" && len(cfg.Email.AlertRecipients) > 0 {
		alerts, err := notification.NewAlertMailer(cfg.Email, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure alert mailer")
		}
		notifiers = append(notifiers, alerts)
	}
	notificationService := notification.NewService(store.Notifications(), logger, notifiers...)

	// Mailer for invites
	var inviteMailer notification.InviteMailer
	if cfg.Email.SMTPHost == "" {
		logger.Warn().Msg("smtp_host not set, invitation emails will only be logged")
		inviteMailer = notification.NewLogInviteMailer(cfg.Email.AcceptURLTemplate, logger)
	} else {
		smtpMailer, err := notification.NewSMTPInviteMailer(cfg.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure invite mailer")
		}
		inviteMailer = smtpMailer
	}

	hook := revalidate.New(cfg.Revalidate, logger)
	session := authz.ContextSession{}

	return &application{
		config:        cfg,
		db:            db,
		store:         store,
		logger:        logger,
		notifications: notificationService,
		invitations: invitation.NewService(store, session, inviteMailer, logger,
			invitation.WithTTL(cfg.Invitation.TTL),
			invitation.WithEvents(notificationService),
			invitation.WithRevalidation(hook),
		),
		organizations: organization.NewService(store, session, notificationService, hook, logger),
		properties:    property.NewService(store, session, logger),
	}
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	limiter := middleware.NewRateLimiter(app.config.RateLimit.RequestsPerMinute, app.config.RateLimit.Burst, app.logger)

	return routes.NewRouter(routes.Handlers{
		Auth:          handlers.NewAuthHandler(app.store.Users(), app.config, app.logger),
		Invites:       handlers.NewInviteHandler(app.invitations, app.logger),
		Organizations: handlers.NewOrganizationHandler(app.organizations, app.logger),
		Properties:    handlers.NewPropertyHandler(app.properties, app.logger),
		Notifications: handlers.NewNotificationHandler(app.organizations, app.logger),
		Health:        handlers.HealthCheck(app.store),
	}, limiter, app.store.Memberships())
}

// startPurge schedules the expired invitation purge and returns its stop function.
func (app *application) startPurge(ctx context.Context) func() {
	if !app.config.Temporal.Enabled {
		w := purgeworker.NewWorker(purgeworker.WorkerConfig{
			Purger:       app.invitations,
			PollInterval: app.config.Temporal.PurgeInterval,
			Logger:       app.logger,
		})
		purgeCtx, cancel := context.WithCancel(ctx)
		go w.Start(purgeCtx)
		return cancel
	}

	temporalClient, err := tc.Dial(tc.Options{
		HostPort:  app.config.Temporal.HostPort,
		Namespace: app.config.Temporal.Namespace,
		Logger:    temporal.NewLogAdapter(app.logger),
	})
	if err != nil {
		app.logger.Fatal().Err(err).Msg("Unable to create Temporal client")
	}

	w := worker.New(temporalClient, temporal.TaskQueueName, worker.Options{})
	w.RegisterWorkflow(workflows.PurgeExpiredInvitationsWorkflow)
	w.RegisterActivity(&activities.Activities{Invitations: app.invitations})

	// Start the worker in a goroutine so it doesn't block.
	go func() {
		app.logger.Info().Msg("Starting Temporal worker...")
		if err := w.Run(worker.InterruptCh()); err != nil {
			app.logger.Fatal().Err(err).Msg("Unable to start worker")
		}
	}()

	// A running cron workflow with the same ID is reused rather than duplicated.
	_, err = temporalClient.ExecuteWorkflow(ctx, tc.StartWorkflowOptions{
		ID:           temporal.PurgeWorkflowID,
		TaskQueue:    temporal.TaskQueueName,
		CronSchedule: app.config.Temporal.PurgeSchedule,
	}, workflows.PurgeExpiredInvitationsWorkflow)
	if err != nil {
		app.logger.Error().Err(err).Msg("Failed to schedule invitation purge workflow")
	}

	return func() {
		// Stop the Temporal worker.
		app.logger.Info().Msg("Stopping Temporal worker...")
		w.Stop()
		temporalClient.Close()
		app.logger.Info().Msg("Temporal worker stopped.")
	}
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, stopPurge func()) {
	server := &http.Server{
		Addr:              ":" + app.config.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		app.logger.Info().Msg("HTTP server shutdown complete.")
	}

	stopPurge()
}
