package storage

import (
	"context"
	"time"

	"github.com/trendscout/internal/models"
)

// Repository defines the interface for data persistence
type Repository interface {
	// Item operations
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id uint) (*models.Item, error)
	GetItemBySourceAndExternalID(ctx context.Context, sourceID uint, externalID string) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	ListItems(ctx context.Context, filter ItemFilter) ([]*models.Item, error)
	SearchItems(ctx context.Context, query string, limit int) ([]*models.Item, error)
	GetItemStats(ctx context.Context) (*ItemStats, error)
	DeleteStaleItems(ctx context.Context, cutoff time.Time, minPopularity int) (int64, error)

	// Tag operations
	SaveTag(ctx context.Context, tag *models.Tag) error
	GetTagByName(ctx context.Context, name string) (*models.Tag, error)
	ListTags(ctx context.Context, category string) ([]*models.Tag, error)
	ReplaceAutoTags(ctx context.Context, itemID uint, matches []models.TagMatch) error
	GetItemTags(ctx context.Context, itemID uint) ([]*models.ItemTag, error)
	GetTagStats(ctx context.Context, limit int) ([]TagCount, error)
	CleanupUnusedTags(ctx context.Context) (int64, error)

	// Job operations
	CreateJob(ctx context.Context, job *models.ProcessingJob) error
	UpdateJob(ctx context.Context, job *models.ProcessingJob) error
	ListJobs(ctx context.Context, filter JobFilter) ([]*models.ProcessingJob, error)

	// Source operations
	GetSourceByName(ctx context.Context, name string) (*models.Source, error)
	SaveSource(ctx context.Context, source *models.Source) error
	ListSources(ctx context.Context) ([]*models.Source, error)

	// Maintenance
	Ping(ctx context.Context) error
	Migrate() error
	Seed(ctx context.Context) error
	Close() error
}

// ItemFilter defines filtering options for persisted items
type ItemFilter struct {
	Categories    []string
	Tags          []string
	Timespan      models.Timespan // empty means no trending-date cut
	MinPopularity int
	Language      string
	SortBy        string // "popularity" or "date"
	SortDesc      bool
	Limit         int
	Offset        int
}

// DefaultItemFilter returns a filter with sensible defaults
func DefaultItemFilter() ItemFilter {
	return ItemFilter{
		SortBy:   "popularity",
		SortDesc: true,
		Limit:    50,
	}
}

// JobFilter defines filtering options for processing jobs
type JobFilter struct {
	SourceID *uint
	Status   *models.JobStatus
	Limit    int
}

// ItemStats summarizes the persisted item corpus
type ItemStats struct {
	Total         int64
	Today         int64
	TopCategories []CategoryCount
}

// CategoryCount is one category bucket in the stats breakdown
type CategoryCount struct {
	Category string
	Count    int64
}

// TagCount is one tag bucket in the tag usage breakdown
type TagCount struct {
	Tag   string
	Count int64
}
