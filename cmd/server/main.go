package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/vendorfair/internal/activity"
	"github.com/rpattn/vendorfair/internal/config"
	"github.com/rpattn/vendorfair/internal/dataset"
	"github.com/rpattn/vendorfair/internal/db"
	"github.com/rpattn/vendorfair/internal/domain"
	"github.com/rpattn/vendorfair/internal/export"
	"github.com/rpattn/vendorfair/internal/ingestion"
	"github.com/rpattn/vendorfair/internal/ledger"
	"github.com/rpattn/vendorfair/internal/logging"
	"github.com/rpattn/vendorfair/internal/metrics"
	"github.com/rpattn/vendorfair/internal/registration"
	"github.com/rpattn/vendorfair/internal/repository"
	"github.com/rpattn/vendorfair/internal/verification"
)

func main() {
	configPath := flag.String("config", ".", "directory holding config.yaml")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// A missing .env is normal outside development.
	envErr := godotenv.Load(*envFile)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build logger")
	}
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		logger.WithError(envErr).Warn("failed to load env file")
	}
	if cfg.File != "" {
		logger.WithField("file", cfg.File).Info("loaded config file")
	} else {
		logger.Info("no config.yaml found, using defaults and env vars")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activityRepo := repository.NewNopActivityRepository()
	if cfg.Database.Enabled {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to database")
		}
		defer conn.Close()

		if err := db.RunMigrations(cfg.Database, logger); err != nil {
			logger.WithError(err).Fatal("failed to run migrations")
		}
		activityRepo = repository.NewActivityRepository(conn.Pool)
	}

	masterStore, err := dataset.NewStore(cfg.Data.MasterPath, domain.MasterColumns,
		dataset.WithSheetName("registro"), dataset.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("invalid master dataset path")
	}
	ledgerStore, err := dataset.NewStore(cfg.Data.LedgerPath, ledger.Columns,
		dataset.WithSheetName("verificaciones"), dataset.WithLogger(logger))
	if err != nil {
		logger.WithError(err).Fatal("invalid verification dataset path")
	}
	// Touch both files so a fresh install starts with header-only datasets.
	for _, store := range []*dataset.Store{masterStore, ledgerStore} {
		if _, err := store.Load(ctx); err != nil {
			logger.WithError(err).WithField("path", store.Path()).Fatal("failed to open dataset")
		}
	}

	fairMetrics := metrics.New()
	recorder := activity.NewRecorder(activityRepo, logger)

	svc := services{
		registration: registration.NewService(masterStore, registration.NewBuilder(cfg.Data.PhoneRegion),
			registration.WithRecorder(recorder),
			registration.WithMetrics(fairMetrics),
			registration.WithLogger(logger),
		),
		verification: verification.NewService(masterStore, ledgerStore,
			verification.WithRecorder(recorder),
			verification.WithMetrics(fairMetrics),
			verification.WithLogger(logger),
		),
		ingestion: ingestion.NewService(masterStore, recorder, fairMetrics, logger),
		export: export.NewService(masterStore, ledgerStore,
			export.WithMetrics(fairMetrics),
			export.WithLogger(logger),
		),
		recorder: recorder,
		metrics:  fairMetrics,
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newRouter(svc, cfg.Server.AllowedOrigins, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":   cfg.Server.Addr,
			"master": masterStore.Path(),
			"ledger": ledgerStore.Path(),
		}).Info("starting fair registry server")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}

	logger.Info("server exited")
}
