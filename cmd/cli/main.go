package main

import (
	"context"
	"fmt"
	"os"
	"strings"

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
		Use:   "trendscout",
		Short: "Trending AI tools tracker",
		Long: `Fetches trending repositories and feeds, classifies them for AI/LLM
relevance and maintains a tagged, searchable catalog.`,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(itemsCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(sourcesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
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

	// Initialize storage
	repo, err = sqlite.New(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations and seed the tag catalog
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := repo.Seed(context.Background()); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

// buildRegistry wires the enabled connectors
func buildRegistry(limiter *ratelimit.MultiLimiter) *source.Registry {
	registry := source.NewRegistry()

	if cfg.Sources.GitHub.Enabled {
		registry.Register(github.New(cfg.Sources.GitHub, limiter, log))
	}
	if cfg.Sources.RSS.Enabled {
		for _, src := range rss.NewMultiple(cfg.Sources.RSS, limiter, log) {
			registry.Register(src)
		}
	}

	return registry
}

// buildService assembles the ingestion service for one connector,
// wiring the optional AI enricher and run tracker
func buildService(connector source.Connector, limiter *ratelimit.MultiLimiter) *ingest.Service {
	classifier := classify.New(classify.DefaultKeywords(),
		classify.WithMinRelevance(cfg.Classifier.MinRelevanceScore),
		classify.WithMaxTags(cfg.Classifier.MaxTags),
	)

	svc := ingest.NewService(connector, classifier, repo, log)

	if cfg.Anthropic.Enabled {
		svc.SetEnricher(ai.NewClient(cfg.Anthropic, limiter, log))
	}

	if cfg.Tracker.Enabled {
		t, err := tracker.NewSheetsTracker(cfg.Tracker, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to create tracker")
		} else if t != nil {
			svc.SetTracker(t)
		}
	}

	return svc
}

// ============ SYNC COMMANDS ============

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ingestion sync commands",
	}

	cmd.AddCommand(syncRunCmd())
	return cmd
}

func syncRunCmd() *cobra.Command {
	var timespan string
	var sourceName string
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an ingestion sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			limiter := ratelimit.NewDefaultLimiter()
			registry := buildRegistry(limiter)

			connectors := registry.Connectors()
			if sourceName != "" {
				c := registry.ByName(sourceName)
				if c == nil {
					return fmt.Errorf("unknown source %q", sourceName)
				}
				connectors = []source.Connector{c}
			}
			if len(connectors) == 0 {
				return fmt.Errorf("no sources enabled")
			}

			opts := ingest.Options{
				Timespan: models.Timespan(timespan),
				DryRun:   dryRun,
				Verbose:  verbose,
			}

			for _, connector := range connectors {
				if _, err := ingest.EnsureSource(ctx, repo, connector); err != nil {
					return fmt.Errorf("failed to register source %s: %w", connector.Name(), err)
				}

				svc := buildService(connector, limiter)
				result, err := svc.Run(ctx, opts)
				if err != nil {
					return err
				}

				fmt.Printf("\n=== Sync Results: %s ===\n", connector.Name())
				fmt.Printf("Fetched:   %d\n", result.Fetched)
				fmt.Printf("Relevant:  %d\n", result.Relevant)
				fmt.Printf("Processed: %d\n", result.Processed)
				fmt.Printf("Errors:    %d\n", result.Errors)
				fmt.Printf("Duration:  %s\n", result.Duration)
				if dryRun {
					fmt.Printf("(dry run: nothing was persisted)\n")
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&timespan, "timespan", "daily", "Trailing window: daily, weekly or monthly")
	cmd.Flags().StringVar(&sourceName, "source", "", "Sync a specific source only")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify without persisting")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log per-item classification detail")
	return cmd
}

// ============ ITEM COMMANDS ============

func itemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Catalog item commands",
	}

	cmd.AddCommand(itemsListCmd())
	cmd.AddCommand(itemsSearchCmd())
	return cmd
}

func itemsListCmd() *cobra.Command {
	var category string
	var tag string
	var language string
	var timespan string
	var minPopularity int
	var sortBy string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.DefaultItemFilter()
			if category != "" {
				filter.Categories = []string{category}
			}
			if tag != "" {
				filter.Tags = []string{tag}
			}
			filter.Language = language
			filter.Timespan = models.Timespan(timespan)
			filter.MinPopularity = minPopularity
			filter.SortBy = sortBy
			filter.Limit = limit

			items, err := repo.ListItems(ctx, filter)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No items found.")
				return nil
			}

			printItems(items)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by primary category")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag name")
	cmd.Flags().StringVar(&language, "language", "", "Filter by implementation language")
	cmd.Flags().StringVar(&timespan, "timespan", "", "Only items trending within daily/weekly/monthly window")
	cmd.Flags().IntVar(&minPopularity, "min-popularity", 0, "Minimum popularity score")
	cmd.Flags().StringVar(&sortBy, "sort", "popularity", "Sort by: popularity or date")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of items")
	return cmd
}

func itemsSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search items by title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			items, err := repo.SearchItems(ctx, args[0], limit)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No items match.")
				return nil
			}

			printItems(items)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of items")
	return cmd
}

func printItems(items []*models.Item) {
	fmt.Printf("\n%-5s %-8s %-12s %-45s %s\n", "ID", "SCORE", "CATEGORY", "TITLE", "URL")
	fmt.Println(strings.Repeat("-", 110))
	for _, item := range items {
		title := item.Title
		if len(title) > 43 {
			title = title[:40] + "..."
		}
		fmt.Printf("%-5d %-8d %-12s %-45s %s\n",
			item.ID, item.PopularityScore, item.PrimaryCategory, title, item.URL)
	}
}

// ============ TAG COMMANDS ============

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Tag catalog commands",
	}

	cmd.AddCommand(tagsListCmd())
	cmd.AddCommand(tagsStatsCmd())
	return cmd
}

func tagsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tag catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			tags, err := repo.ListTags(ctx, category)
			if err != nil {
				return err
			}

			fmt.Printf("\n%-20s %-12s %-10s %s\n", "NAME", "CATEGORY", "FEATURED", "DESCRIPTION")
			fmt.Println(strings.Repeat("-", 80))
			for _, tag := range tags {
				featured := ""
				if tag.IsFeatured {
					featured = "yes"
				}
				fmt.Printf("%-20s %-12s %-10s %s\n", tag.Name, tag.Category, featured, tag.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by tag category")
	return cmd
}

func tagsStatsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show tag usage counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			counts, err := repo.GetTagStats(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Printf("\n%-20s %s\n", "TAG", "ITEMS")
			fmt.Println(strings.Repeat("-", 30))
			for _, c := range counts {
				fmt.Printf("%-20s %d\n", c.Tag, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of tags")
	return cmd
}

// ============ JOB COMMANDS ============

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Processing job commands",
	}

	cmd.AddCommand(jobsListCmd())
	return cmd
}

func jobsListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List processing jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			filter := storage.JobFilter{Limit: limit}
			if status != "" {
				s := models.JobStatus(status)
				filter.Status = &s
			}

			jobs, err := repo.ListJobs(ctx, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\n%-5s %-8s %-10s %-10s %-22s %s\n", "ID", "SOURCE", "TYPE", "STATUS", "STARTED", "PROCESSED")
			fmt.Println(strings.Repeat("-", 75))
			for _, job := range jobs {
				fmt.Printf("%-5d %-8d %-10s %-10s %-22s %d\n",
					job.ID, job.SourceID, job.JobType, job.Status,
					job.StartedAt.Format("2006-01-02 15:04:05"), job.ItemsProcessed)
				if job.ErrorMessage != "" {
					fmt.Printf("      error: %s\n", job.ErrorMessage)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: pending, running, completed, failed")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of jobs")
	return cmd
}

// ============ SOURCE COMMANDS ============

func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Registered source commands",
	}

	cmd.AddCommand(sourcesListCmd())
	return cmd
}

func sourcesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sources, err := repo.ListSources(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n%-5s %-15s %-12s %s\n", "ID", "NAME", "TYPE", "ENABLED")
			fmt.Println(strings.Repeat("-", 45))
			for _, src := range sources {
				fmt.Printf("%-5d %-15s %-12s %v\n", src.ID, src.Name, src.Type, src.Enabled)
			}
			return nil
		},
	}
}

// ============ STATS COMMAND ============

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			stats, err := repo.GetItemStats(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Catalog Stats ===\n")
			fmt.Printf("Total items: %d\n", stats.Total)
			fmt.Printf("Added today: %d\n", stats.Today)

			if len(stats.TopCategories) > 0 {
				fmt.Printf("\nTop categories:\n")
				for _, c := range stats.TopCategories {
					fmt.Printf("  %-15s %d\n", c.Category, c.Count)
				}
			}
			return nil
		},
	}
}

// ============ CLEANUP COMMAND ============

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Retention sweep commands",
	}

	cmd.AddCommand(cleanupRunCmd())
	return cmd
}

func cleanupRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Delete stale items and unused tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			sweeper := ingest.NewSweeper(repo, cfg.Retention, log)
			itemsDeleted, tagsDeleted, err := sweeper.Run(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Cleanup Results ===\n")
			fmt.Printf("Items deleted: %d\n", itemsDeleted)
			fmt.Printf("Tags deleted:  %d\n", tagsDeleted)
			return nil
		},
	}
}
