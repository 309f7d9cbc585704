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
	"github.com/reliefgrid/relief-api/internal/alerting"
	"github.com/reliefgrid/relief-api/internal/config"
	"github.com/reliefgrid/relief-api/internal/donation"
	"github.com/reliefgrid/relief-api/internal/geocode"
	"github.com/reliefgrid/relief-api/internal/handlers"
	"github.com/reliefgrid/relief-api/internal/middleware"
	"github.com/reliefgrid/relief-api/internal/migration"
	"github.com/reliefgrid/relief-api/internal/notification"
	"github.com/reliefgrid/relief-api/internal/payment"
	"github.com/reliefgrid/relief-api/internal/realtime"
	"github.com/reliefgrid/relief-api/internal/repository"
	"github.com/reliefgrid/relief-api/internal/routes"
	"github.com/rs/zerolog"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config *config.Config
	db     *sql.DB
	bus    *realtime.Bus
	logger zerolog.Logger
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

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
	migration.RunMigrations(cfg.DatabaseURL)

	// Broadcast bus for the realtime alert feed.
	bus := realtime.NewBus(cfg.Realtime.SubscriberBuffer, logger)
	defer bus.Close()

	app := &application{
		config: cfg,
		db:     db,
		bus:    bus,
		logger: logger,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{cfg.AllowedOrigin}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	alertRepo := repository.NewAlertRepository(app.db)
	donationRepo := repository.NewDonationRepository(app.db)
	userRepo := repository.NewUserRepository(app.db)
	contentRepo := repository.NewContentRepository(app.db)
	missionRepo := repository.NewMissionRepository(app.db)

	// Outbound adapters
	geocoder := geocode.NewClient(app.config.Geocoding.BaseURL, app.config.Geocoding.APIKey, app.config.Geocoding.Timeout)
	mailer, err := notification.NewBrevoMailer(app.config.Email, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("alert mailer not configured; active alerts will not be emailed")
		mailer = nil
	}
	payments := payment.NewIntentClient(app.config.Payment, logger)

	// Services
	alertService := alerting.NewService(
		alertRepo, userRepo, geocoder, mailerOrNil(mailer), app.bus,
		app.config.Geocoding.Timeout, app.config.Email.Timeout, logger,
	)
	donationService := donation.NewService(donationRepo, alertRepo, payments, logger)

	// Handlers
	alertHandler := handlers.NewAlertHandler(alertService, logger)
	donationHandler := handlers.NewDonationHandler(donationService, logger)
	userHandler := handlers.NewUserHandler(userRepo, logger)
	contentHandler := handlers.NewContentHandler(contentRepo, logger)
	missionHandler := handlers.NewMissionHandler(missionRepo, geocoder, logger)
	streamHandler := handlers.NewStreamHandler(app.bus, app.config.AllowedOrigin, logger)

	return routes.NewRouter(alertHandler, donationHandler, userHandler, contentHandler, missionHandler, streamHandler)
}

// mailerOrNil keeps the AlertMailer interface nil when no mailer is
// configured, so the typed-nil pointer does not defeat nil checks.
func mailerOrNil(m *notification.BrevoMailer) notification.AlertMailer {
	if m == nil {
		return nil
	}
	return m
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
