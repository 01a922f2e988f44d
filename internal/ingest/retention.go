package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/storage"
	"github.com/trendscout/pkg/logger"
)

// Sweeper removes items that have aged out of the catalog and tags
// that no longer have any associations
type Sweeper struct {
	repo          storage.Repository
	maxAge        time.Duration
	minPopularity int
	log           *logger.Logger
	now           func() time.Time
}

// NewSweeper creates a retention sweeper from config
func NewSweeper(repo storage.Repository, cfg config.RetentionConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		repo:          repo,
		maxAge:        time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		minPopularity: cfg.MinPopularity,
		log:           log.WithComponent("retention"),
		now:           time.Now,
	}
}

// Run deletes items created before the retention cutoff whose
// popularity is below the keep threshold, then drops tags left without
// any association. Popular items are kept regardless of age.
func (s *Sweeper) Run(ctx context.Context) (itemsDeleted, tagsDeleted int64, err error) {
	cutoff := s.now().Add(-s.maxAge)

	s.log.Info().
		Time("cutoff", cutoff).
		Int("min_popularity", s.minPopularity).
		Msg("Starting retention sweep")

	itemsDeleted, err = s.repo.DeleteStaleItems(ctx, cutoff, s.minPopularity)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete stale items: %w", err)
	}

	tagsDeleted, err = s.repo.CleanupUnusedTags(ctx)
	if err != nil {
		return itemsDeleted, 0, fmt.Errorf("failed to clean up unused tags: %w", err)
	}

	s.log.Info().
		Int64("items_deleted", itemsDeleted).
		Int64("tags_deleted", tagsDeleted).
		Msg("Retention sweep completed")

	return itemsDeleted, tagsDeleted, nil
}
