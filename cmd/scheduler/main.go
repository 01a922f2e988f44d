package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/trendscout/internal/ai"
	"github.com/trendscout/internal/classify"
	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/ingest"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/source"
	"github.com/trendscout/internal/source/github"
	"github.com/trendscout/internal/source/rss"
	"github.com/trendscout/internal/storage"
	"github.com/trendscout/internal/storage/sqlite"
	"github.com/trendscout/internal/tracker"
	"github.com/trendscout/pkg/logger"
	"github.com/trendscout/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "trendscout-scheduler",
		Short: "Background scheduler for the trending tools tracker",
		Long: `Runs scheduled ingestion syncs and retention sweeps in the background.
This daemon should be run as a service for autonomous operation.`,
		RunE: runScheduler,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runScheduler(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting TrendScout Scheduler")

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := repo.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	// Health check server for the hosting platform
	go startHealthServer()

	// Initialize rate limiter and connectors
	limiter := ratelimit.NewDefaultLimiter()

	registry := source.NewRegistry()
	if cfg.Sources.GitHub.Enabled {
		registry.Register(github.New(cfg.Sources.GitHub, limiter, log))
	}
	if cfg.Sources.RSS.Enabled {
		for _, src := range rss.NewMultiple(cfg.Sources.RSS, limiter, log) {
			registry.Register(src)
		}
	}
	if len(registry.Connectors()) == 0 {
		return fmt.Errorf("no sources enabled")
	}

	// Register source rows for all connectors up front
	for _, connector := range registry.Connectors() {
		if _, err := ingest.EnsureSource(context.Background(), repo, connector); err != nil {
			return fmt.Errorf("failed to register source %s: %w", connector.Name(), err)
		}
	}

	// Build one ingestion service per connector
	classifier := classify.New(classify.DefaultKeywords(),
		classify.WithMinRelevance(cfg.Classifier.MinRelevanceScore),
		classify.WithMaxTags(cfg.Classifier.MaxTags),
	)

	var runTracker ingest.RunTracker
	if cfg.Tracker.Enabled {
		t, err := tracker.NewSheetsTracker(cfg.Tracker, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create tracker")
		} else if t != nil {
			if err := t.InitializeSheet(context.Background()); err != nil {
				log.Warn().Err(err).Msg("Failed to initialize tracker sheet")
			}
			runTracker = t
		}
	}

	var services []*ingest.Service
	for _, connector := range registry.Connectors() {
		svc := ingest.NewService(connector, classifier, repo, log)
		if cfg.Anthropic.Enabled {
			svc.SetEnricher(ai.NewClient(cfg.Anthropic, limiter, log))
		}
		if runTracker != nil {
			svc.SetTracker(runTracker)
		}
		services = append(services, svc)
	}

	sweeper := ingest.NewSweeper(repo, cfg.Retention, log)

	// Create cron scheduler
	c := cron.New(cron.WithLogger(cronLogger{log}))

	runAll := func(timespan models.Timespan) {
		ctx := context.Background()
		for _, svc := range services {
			result, err := svc.Run(ctx, ingest.Options{Timespan: timespan})
			if err != nil {
				log.Error().Err(err).Str("timespan", string(timespan)).Msg("Scheduled sync failed")
				continue
			}
			log.Info().
				Str("timespan", string(timespan)).
				Int("processed", result.Processed).
				Int("errors", result.Errors).
				Msg("Scheduled sync completed")
		}
	}

	// Schedule daily sync
	_, err = c.AddFunc(cfg.Scheduler.DailySyncCron, func() { runAll(models.TimespanDaily) })
	if err != nil {
		return fmt.Errorf("failed to schedule daily sync: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.DailySyncCron).Msg("Daily sync scheduled")

	// Schedule weekly sync
	_, err = c.AddFunc(cfg.Scheduler.WeeklySyncCron, func() { runAll(models.TimespanWeekly) })
	if err != nil {
		return fmt.Errorf("failed to schedule weekly sync: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.WeeklySyncCron).Msg("Weekly sync scheduled")

	// Schedule retention sweep
	_, err = c.AddFunc(cfg.Scheduler.CleanupCron, func() {
		itemsDeleted, tagsDeleted, err := sweeper.Run(context.Background())
		if err != nil {
			log.Error().Err(err).Msg("Scheduled cleanup failed")
			return
		}
		log.Info().
			Int64("items_deleted", itemsDeleted).
			Int64("tags_deleted", tagsDeleted).
			Msg("Scheduled cleanup completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.CleanupCron).Msg("Cleanup scheduled")

	// Start scheduler
	c.Start()
	log.Info().Msg("Scheduler started")

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down scheduler")
	c.Stop()

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

// startHealthServer starts a simple HTTP server for health checks
func startHealthServer() {
	port := os.Getenv("PORT")
	if port == "" {
		port = fmt.Sprintf("%d", cfg.Scheduler.HealthPort)
	}

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("TrendScout Scheduler"))
	})

	log.Info().Str("port", port).Msg("Health check server starting")
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Error().Err(err).Msg("Health server failed")
	}
}
