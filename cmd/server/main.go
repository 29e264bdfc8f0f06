package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/broker"
	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/router"
	"github.com/anonto42/nano-midea/socialgraph/internal/validators"
	"github.com/anonto42/nano-midea/socialgraph/pkg/config"
	"github.com/anonto42/nano-midea/socialgraph/pkg/firebase"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var logg = logger.New()

func main() {
	err := run()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run owns every deferred cleanup so that failures return here instead of
// exiting past them.
func run() error {
	// Load configuration
	cfg := config.Load()
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		logg.Error("main", "invalid log configuration, keeping defaults", err)
	}

	if cfg.AuthMode != "firebase" && cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return fail("JWT_SECRET must be set in production", errors.New("missing JWT_SECRET"))
		}
		cfg.JWTSecret = "supersecretjwtkey"
		logg.Warn("main", "JWT_SECRET not set, using development secret")
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return fail("failed to initialize databases", err)
	}
	defer db.CloseDB()

	if cfg.RunMigrations {
		if err := config.RunMigrations(cfg.PostgresConnStr); err != nil {
			return fail("failed to run migrations", err)
		}
	} else if cfg.Env != "production" {
		if err := repositories.AutoMigrate(db.Postgres); err != nil {
			return fail("failed to auto migrate models", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := router.Dependencies{Config: cfg, Postgres: db.Postgres, Mongo: db.Mongo, Publisher: broker.NoopPublisher{}}
	if db.Mongo != nil {
		deps.Devices = repositories.NewMongoDeviceTokenRepository(db.Mongo.Database(cfg.MongoDatabase))
	}

	// Initialize Firebase
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			return fail("failed to initialize firebase", err)
		}
		deps.FirebaseAuth = app.AuthClient
	}

	// Notification events
	if len(cfg.KafkaBrokers) > 0 {
		writer, err := broker.NewKafkaWriter(broker.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			WriteTimeout: cfg.KafkaWriteTimeout,
		})
		if err != nil {
			return fail("failed to create kafka writer", err)
		}
		publisher := broker.NewKafkaPublisher(writer)
		defer publisher.Close()
		deps.Publisher = publisher
		logg.Info("main", "publishing notification events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		logg.Warn("main", "KAFKA_BROKERS not set, push delivery disabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, deps); err != nil {
		return fail("failed to set up routes", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logg.Info("main", "server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		serverErr <- e.Start(":" + cfg.Port)
	}()

	return serve(ctx, e, serverErr)
}

// serve blocks until a shutdown signal or until the listener fails. A
// listener failure is returned; a signal shuts the server down gracefully.
func serve(ctx context.Context, e *echo.Echo, serverErr <-chan error) error {
	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fail("server stopped", err)
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info("main", "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logg.Error("main", "graceful shutdown failed", err)
	}
	return nil
}

func fail(msg string, err error) error {
	logg.Error("main", msg, err)
	return err
}
