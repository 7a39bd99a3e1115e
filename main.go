package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/brettboylen/creator-tracker/api"
	"github.com/brettboylen/creator-tracker/creator"
	"github.com/brettboylen/creator-tracker/db"
	"github.com/brettboylen/creator-tracker/server"
	"github.com/brettboylen/creator-tracker/stats"
	"github.com/brettboylen/creator-tracker/utils"
)

func main() {
	envPath := flag.String("env", ".env", "Path to .env file")
	logLevel := flag.String("log-level", "info", "Logging level (debug, info, warn, error)")
	flag.Parse()

	log := setupLogger(*logLevel)
	log.Info("Starting Creator Tracker")

	config, err := utils.LoadConfig(*envPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log.WithFields(logrus.Fields{
		"usernames":        config.Tracker.Usernames,
		"polling_interval": config.Tracker.PollingInterval,
		"default_timezone": config.Tracker.DefaultTimezone,
		"server_port":      config.Server.Port,
	}).Info("Configuration loaded")

	database, err := db.NewDatabase(config.Database.Path, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close()

	registry, err := creator.LoadRegistry(config.Tracker.CreatorProfilesPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to load creator profiles")
	}

	ensembleAPI := api.NewEnsembleAPI(
		config.Ensemble.Root,
		config.Ensemble.Token,
		config.Ensemble.MaxRequestsPerMinute,
		log,
	)

	collector := stats.NewCollector(
		ensembleAPI,
		database,
		config.Tracker.Usernames,
		config.Ensemble.Depth,
		config.Tracker.PollingInterval,
		log,
	)

	dashboard := stats.NewDashboard(database, registry, config.Tracker.DefaultTimezone, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiServer := server.New(dashboard, collector, config.Server.MaxRequestsPerMinute, log)
	go func() {
		if err := apiServer.Start(ctx, config.Server.Port); err != nil {
			log.WithError(err).Fatal("API server stopped")
		}
	}()

	go func() {
		if err := collector.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("Collector stopped unexpectedly")
		}
	}()

	waitForShutdown(cancel, ensembleAPI, log)
}

// setupLogger sets up the logger with the specified log level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)

	return log
}

// waitForShutdown waits for a shutdown signal
func waitForShutdown(cancel context.CancelFunc, ensembleAPI *api.EnsembleAPI, log *logrus.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig.String()).Info("Shutdown signal received")

	cancel()

	// give the server time to drain
	time.Sleep(1 * time.Second)
	log.WithField("units_charged", ensembleAPI.UnitsCharged()).Info("Creator Tracker stopped")
}
