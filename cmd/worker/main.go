package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/nano-midea/socialgraph/internal/broker"
	"github.com/anonto42/nano-midea/socialgraph/internal/logger"
	"github.com/anonto42/nano-midea/socialgraph/internal/repositories"
	"github.com/anonto42/nano-midea/socialgraph/internal/worker"
	"github.com/anonto42/nano-midea/socialgraph/pkg/config"
	"github.com/anonto42/nano-midea/socialgraph/pkg/firebase"
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

func run() error {
	cfg := config.Load()
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		logg.Error("main", "invalid log configuration, keeping defaults", err)
	}

	switch {
	case len(cfg.KafkaBrokers) == 0:
		return fail("worker needs KAFKA_BROKERS", errors.New("missing KAFKA_BROKERS"))
	case cfg.MongoURI == "":
		return fail("worker needs MONGO_URI", errors.New("missing MONGO_URI"))
	case cfg.FirebaseCredentialsPath == "":
		return fail("worker needs FIREBASE_CREDENTIALS_PATH", errors.New("missing FIREBASE_CREDENTIALS_PATH"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := config.InitMongo(cfg.MongoURI)
	if err != nil {
		return fail("failed to connect to MongoDB", err)
	}
	defer (&config.DB{Mongo: mongoClient}).CloseDB()

	devices := repositories.NewMongoDeviceTokenRepository(mongoClient.Database(cfg.MongoDatabase))
	idxCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = devices.EnsureIndexes(idxCtx)
	cancel()
	if err != nil {
		return fail("failed to create device token indexes", err)
	}

	app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		return fail("failed to initialize firebase", err)
	}

	reader := broker.NewKafkaReader(broker.KafkaConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
	})

	w := worker.New(reader, devices, app.MessagingClient, worker.NewDeduper(cfg.DedupeWindow), cfg.WorkerConcurrency, 0)
	defer w.Close()

	logg.Info("main", "push worker consuming",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.Duration("dedupe_window", cfg.DedupeWindow))
	w.Run(ctx)
	logg.Info("main", "push worker stopped")
	return nil
}

func fail(msg string, err error) error {
	logg.Error("main", msg, err)
	return err
}
