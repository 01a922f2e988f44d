package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trendscout/internal/classify"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/source"
	"github.com/trendscout/internal/storage"
	"github.com/trendscout/pkg/logger"
)

// ErrConnectivity marks a pre-run connectivity failure: the repository
// or the upstream source was unreachable before any job row was created
var ErrConnectivity = errors.New("connectivity check failed")

// Enricher supplies supplementary AI-sourced tag matches for an item
type Enricher interface {
	SuggestTags(ctx context.Context, item *models.StandardItem, knownTags []string) ([]models.TagMatch, error)
}

// RunTracker records completed sync runs in an external report
type RunTracker interface {
	RecordRun(ctx context.Context, report RunReport) error
}

// RunReport is one row of the external run report
type RunReport struct {
	StartedAt time.Time
	Source    string
	Timespan  models.Timespan
	DryRun    bool
	Status    models.JobStatus
	Fetched   int
	Processed int
	Relevant  int
	Errors    int
}

// Options control a single sync run
type Options struct {
	Timespan models.Timespan
	DryRun   bool
	Verbose  bool
}

// Result holds the aggregate counts of one sync run. A non-zero Errors
// count after a completed run is a degraded-success signal, not a
// failure.
type Result struct {
	Fetched   int
	Processed int
	Relevant  int
	Errors    int
	Duration  time.Duration
}

// runLocks serializes sync runs per source. Two concurrent runs
// against the same source would race on the upsert key and create
// duplicate job records.
var runLocks sync.Map

func lockSource(name string) *sync.Mutex {
	mu, _ := runLocks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Service drives one ingestion sync run: fetch, dedup, normalize,
// classify, upsert, and job-lifecycle tracking
type Service struct {
	connector  source.Connector
	classifier *classify.Classifier
	repo       storage.Repository
	enricher   Enricher
	tracker    RunTracker
	log        *logger.Logger
	now        func() time.Time
}

// NewService creates a new ingestion service
func NewService(
	connector source.Connector,
	classifier *classify.Classifier,
	repo storage.Repository,
	log *logger.Logger,
) *Service {
	return &Service{
		connector:  connector,
		classifier: classifier,
		repo:       repo,
		log:        log.WithComponent("ingest"),
		now:        time.Now,
	}
}

// SetEnricher enables the optional AI tag-enrichment pass
func (s *Service) SetEnricher(e Enricher) {
	s.enricher = e
}

// SetTracker enables the optional external run report
func (s *Service) SetTracker(t RunTracker) {
	s.tracker = t
}

// Run executes one sync run against the service's source. Fetch-phase
// failures mark the job failed and are returned; per-item failures are
// counted and the loop continues.
func (s *Service) Run(ctx context.Context, opts Options) (*Result, error) {
	if !opts.Timespan.Valid() {
		return nil, fmt.Errorf("invalid timespan %q", opts.Timespan)
	}

	mu := lockSource(s.connector.Name())
	mu.Lock()
	defer mu.Unlock()

	startTime := s.now()
	result := &Result{}

	s.log.Info().
		Str("source", s.connector.Name()).
		Str("timespan", string(opts.Timespan)).
		Bool("dry_run", opts.DryRun).
		Msg("Starting sync run")

	// Connectivity must be verified before any job row exists
	if err := s.repo.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: repository: %v", ErrConnectivity, err)
	}
	if err := s.connector.HealthCheck(ctx); err != nil {
		return nil, fmt.Errorf("%w: source %s: %v", ErrConnectivity, s.connector.Name(), err)
	}

	src, err := s.repo.GetSourceByName(ctx, s.connector.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to look up source: %w", err)
	}
	if src == nil {
		return nil, fmt.Errorf("source %q is not registered", s.connector.Name())
	}

	job := &models.ProcessingJob{
		SourceID:  src.ID,
		JobType:   "fetch",
		Status:    models.JobStatusRunning,
		StartedAt: startTime,
		Metadata: models.JSON{
			"timespan": string(opts.Timespan),
			"dry_run":  opts.DryRun,
		},
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	log := s.log.WithJobID(job.ID)

	raw, err := s.connector.FetchWindow(ctx, opts.Timespan)
	if err != nil {
		// Fetch-phase failure is fatal for the run; capture it on the
		// job before propagating
		s.finishJob(ctx, job, models.JobStatusFailed, 0, err.Error(), nil)
		return result, fmt.Errorf("fetch phase failed: %w", err)
	}

	unique := source.Deduplicate(raw)
	result.Fetched = len(unique)

	log.Info().
		Int("fetched", len(raw)).
		Int("unique", len(unique)).
		Msg("Fetched candidate records")

	for _, record := range unique {
		if err := s.processRecord(ctx, src, record, opts, result); err != nil {
			result.Errors++
			log.Warn().
				Err(err).
				Str("external_id", record.ExternalID).
				Msg("Failed to process record")
		}
	}

	stats := models.JSON{
		"fetched":   result.Fetched,
		"processed": result.Processed,
		"relevant":  result.Relevant,
		"errors":    result.Errors,
	}
	if err := s.finishJob(ctx, job, models.JobStatusCompleted, result.Processed, "", stats); err != nil {
		return result, err
	}

	result.Duration = s.now().Sub(startTime)

	log.Info().
		Int("fetched", result.Fetched).
		Int("processed", result.Processed).
		Int("relevant", result.Relevant).
		Int("errors", result.Errors).
		Dur("duration", result.Duration).
		Msg("Sync run completed")

	s.recordRun(ctx, startTime, opts, models.JobStatusCompleted, result)

	return result, nil
}

// processRecord handles one deduplicated raw record end to end.
// Returned errors are per-item: counted by the caller, never fatal.
func (s *Service) processRecord(
	ctx context.Context,
	src *models.Source,
	record *models.RawItem,
	opts Options,
	result *Result,
) error {
	item, err := s.connector.Normalize(record)
	if err != nil {
		return fmt.Errorf("normalize: %w", err)
	}

	classification := s.classifier.Classify(item)
	if !classification.IsRelevant {
		if opts.Verbose {
			s.log.Debug().
				Str("title", item.Title).
				Float64("relevance", classification.RelevanceScore).
				Msg("Skipping irrelevant item")
		}
		return nil
	}
	result.Relevant++

	tags := classification.SuggestedTags
	if s.enricher != nil {
		aiTags, err := s.enricher.SuggestTags(ctx, item, knownTagNames(tags))
		if err != nil {
			// Enrichment is best-effort; the heuristic tags still stand
			s.log.Warn().Err(err).Str("title", item.Title).Msg("Tag enrichment failed")
		} else {
			tags = s.classifier.MergeTags(tags, aiTags)
		}
	}

	if opts.Verbose {
		s.log.Info().
			Str("title", item.Title).
			Str("category", classification.PrimaryCategory).
			Float64("confidence", classification.Confidence).
			Int("tags", len(tags)).
			Msg("Classified relevant item")
	}

	if !opts.DryRun {
		if err := s.persistItem(ctx, src.ID, record, item, classification, tags); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
	}

	result.Processed++
	return nil
}

// persistItem creates or updates the persisted item and replaces its
// auto/AI tag associations. PublishedAt and CreatedAt are immutable
// once set.
func (s *Service) persistItem(
	ctx context.Context,
	sourceID uint,
	record *models.RawItem,
	item *models.StandardItem,
	classification *models.Classification,
	tags []models.TagMatch,
) error {
	existing, err := s.repo.GetItemBySourceAndExternalID(ctx, sourceID, record.ExternalID)
	if err != nil {
		return err
	}

	score := classify.PopularityScore(
		item.Metrics.Primary,
		item.Metrics.Secondary,
		item.Metrics.Engagement,
	)
	metrics := models.JSON{
		"primary":    item.Metrics.Primary,
		"secondary":  item.Metrics.Secondary,
		"engagement": item.Metrics.Engagement,
	}
	processedMetadata := models.JSON{
		"language": item.Language,
		"license":  item.License,
		"topics":   item.Topics,
		"classification": map[string]interface{}{
			"confidence":      classification.Confidence,
			"relevance_score": classification.RelevanceScore,
			"reasoning":       classification.Reasoning,
		},
	}

	var persisted *models.Item
	if existing == nil {
		persisted = &models.Item{
			SourceID:          sourceID,
			ExternalID:        record.ExternalID,
			Title:             item.Title,
			Description:       item.Description,
			URL:               item.URL,
			AuthorName:        item.Author.Name,
			AuthorURL:         item.Author.URL,
			PopularityScore:   score,
			Metrics:           metrics,
			PrimaryCategory:   classification.PrimaryCategory,
			ContentType:       s.connector.Type(),
			PublishedAt:       item.PublishedAt,
			TrendingDate:      s.now(),
			RawData:           models.JSON(record.Data),
			ProcessedMetadata: processedMetadata,
		}
		if err := s.repo.CreateItem(ctx, persisted); err != nil {
			return err
		}
	} else {
		existing.Title = item.Title
		existing.Description = item.Description
		existing.URL = item.URL
		existing.AuthorName = item.Author.Name
		existing.AuthorURL = item.Author.URL
		existing.PopularityScore = score
		existing.Metrics = metrics
		existing.PrimaryCategory = classification.PrimaryCategory
		existing.TrendingDate = s.now()
		existing.RawData = models.JSON(record.Data)
		existing.ProcessedMetadata = processedMetadata
		if err := s.repo.UpdateItem(ctx, existing); err != nil {
			return err
		}
		persisted = existing
	}

	return s.repo.ReplaceAutoTags(ctx, persisted.ID, tags)
}

// finishJob moves the job to a terminal status exactly once
func (s *Service) finishJob(
	ctx context.Context,
	job *models.ProcessingJob,
	status models.JobStatus,
	processed int,
	errorMessage string,
	stats models.JSON,
) error {
	completedAt := s.now()
	job.Status = status
	job.CompletedAt = &completedAt
	job.ItemsProcessed = processed
	job.ErrorMessage = errorMessage
	if stats != nil {
		job.Metadata["stats"] = map[string]interface{}(stats)
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update job %d: %w", job.ID, err)
	}
	return nil
}

func (s *Service) recordRun(ctx context.Context, startedAt time.Time, opts Options, status models.JobStatus, result *Result) {
	if s.tracker == nil {
		return
	}
	report := RunReport{
		StartedAt: startedAt,
		Source:    s.connector.Name(),
		Timespan:  opts.Timespan,
		DryRun:    opts.DryRun,
		Status:    status,
		Fetched:   result.Fetched,
		Processed: result.Processed,
		Relevant:  result.Relevant,
		Errors:    result.Errors,
	}
	if err := s.tracker.RecordRun(ctx, report); err != nil {
		s.log.Warn().Err(err).Msg("Failed to record run in tracker")
	}
}

func knownTagNames(tags []models.TagMatch) []string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.TagName
	}
	return names
}

// EnsureSource registers a connector's source row if it is missing
func EnsureSource(ctx context.Context, repo storage.Repository, c source.Connector) (*models.Source, error) {
	existing, err := repo.GetSourceByName(ctx, c.Name())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	src := &models.Source{
		Name:    c.Name(),
		Type:    c.Type(),
		Enabled: true,
	}
	if err := repo.SaveSource(ctx, src); err != nil {
		return nil, err
	}
	return src, nil
}
