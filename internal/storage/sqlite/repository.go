package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.Source{},
		&models.Item{},
		&models.Tag{},
		&models.ItemTag{},
		&models.ProcessingJob{},
	)
}

// Ping verifies the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Item operations

func (r *Repository) CreateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) GetItemByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	if err := r.db.WithContext(ctx).Preload("Tags.Tag").First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) GetItemBySourceAndExternalID(ctx context.Context, sourceID uint, externalID string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Where("source_id = ? AND external_id = ?", sourceID, externalID).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) UpdateItem(ctx context.Context, item *models.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) ListItems(ctx context.Context, filter storage.ItemFilter) ([]*models.Item, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{}).Preload("Tags.Tag")

	if filter.MinPopularity > 0 {
		query = query.Where("popularity_score >= ?", filter.MinPopularity)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("primary_category IN ?", filter.Categories)
	}
	if filter.Timespan != "" {
		cutoff := time.Now().AddDate(0, 0, -filter.Timespan.Days())
		query = query.Where("trending_date >= ?", cutoff)
	}
	if filter.Language != "" {
		query = query.Where("json_extract(processed_metadata, '$.language') = ?", filter.Language)
	}
	if len(filter.Tags) > 0 {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&models.ItemTag{}).
				Select("item_tags.item_id").
				Joins("JOIN tags ON tags.id = item_tags.tag_id").
				Where("tags.name IN ?", filter.Tags),
		)
	}

	orderCol := "popularity_score"
	if filter.SortBy == "date" {
		orderCol = "published_at"
	}
	if filter.SortDesc {
		query = query.Order(orderCol + " DESC")
	} else {
		query = query.Order(orderCol + " ASC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var items []*models.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) SearchItems(ctx context.Context, search string, limit int) ([]*models.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + search + "%"

	var items []*models.Item
	err := r.db.WithContext(ctx).
		Where("title LIKE ? OR description LIKE ? OR author_name LIKE ?", pattern, pattern, pattern).
		Order("popularity_score DESC").
		Limit(limit).
		Preload("Tags.Tag").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) GetItemStats(ctx context.Context) (*storage.ItemStats, error) {
	stats := &storage.ItemStats{}

	if err := r.db.WithContext(ctx).Model(&models.Item{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	if err := r.db.WithContext(ctx).Model(&models.Item{}).
		Where("created_at >= ?", today).
		Count(&stats.Today).Error; err != nil {
		return nil, err
	}

	err := r.db.WithContext(ctx).Model(&models.Item{}).
		Select("primary_category AS category, COUNT(*) AS count").
		Group("primary_category").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopCategories).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// DeleteStaleItems removes items that are both old and unpopular,
// together with their tag associations. Popular items are kept
// regardless of age. Returns the number of items deleted.
func (r *Repository) DeleteStaleItems(ctx context.Context, cutoff time.Time, minPopularity int) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Item{}).
			Where("created_at < ? AND popularity_score < ?", cutoff, minPopularity).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("item_id IN ?", ids).Delete(&models.ItemTag{}).Error; err != nil {
			return err
		}

		result := tx.Where("id IN ?", ids).Delete(&models.Item{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})

	return deleted, err
}

// Tag operations

func (r *Repository) SaveTag(ctx context.Context, tag *models.Tag) error {
	return r.db.WithContext(ctx).Save(tag).Error
}

func (r *Repository) GetTagByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *Repository) ListTags(ctx context.Context, category string) ([]*models.Tag, error) {
	query := r.db.WithContext(ctx).Model(&models.Tag{}).
		Order("category ASC, sort_order ASC, name ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var tags []*models.Tag
	if err := query.Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// ReplaceAutoTags swaps an item's auto and AI sourced tag associations
// for the given matches in one transaction, so readers never observe a
// window with no tags. Manual associations are untouched; matches for
// tags missing from the catalog are skipped.
func (r *Repository) ReplaceAutoTags(ctx context.Context, itemID uint, matches []models.TagMatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("item_id = ? AND source IN ?", itemID, []string{models.ItemTagSourceAuto, models.ItemTagSourceAI}).
			Delete(&models.ItemTag{}).Error; err != nil {
			return err
		}

		for _, match := range matches {
			var tag models.Tag
			err := tx.Where("name = ?", match.TagName).First(&tag).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}

			assoc := models.ItemTag{
				ItemID:     itemID,
				TagID:      tag.ID,
				Confidence: match.Confidence,
				Source:     match.PersistedSource(),
			}

			// A manual association for the same tag may still exist;
			// leave it in place rather than violating the unique pair
			var existing models.ItemTag
			err = tx.Where("item_id = ? AND tag_id = ?", itemID, tag.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if err := tx.Create(&assoc).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *Repository) GetItemTags(ctx context.Context, itemID uint) ([]*models.ItemTag, error) {
	var tags []*models.ItemTag
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("confidence DESC").
		Preload("Tag").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *Repository) GetTagStats(ctx context.Context, limit int) ([]storage.TagCount, error) {
	if limit <= 0 {
		limit = 20
	}

	var stats []storage.TagCount
	err := r.db.WithContext(ctx).Model(&models.ItemTag{}).
		Select("tags.name AS tag, COUNT(item_tags.item_id) AS count").
		Joins("JOIN tags ON tags.id = item_tags.tag_id").
		Group("tags.name").
		Order("count DESC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// CleanupUnusedTags deletes non-featured tags with no item associations
func (r *Repository) CleanupUnusedTags(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_featured = ?", false).
		Where("id NOT IN (?)", r.db.Model(&models.ItemTag{}).Select("DISTINCT tag_id")).
		Delete(&models.Tag{})
	return result.RowsAffected, result.Error
}

// Job operations

func (r *Repository) CreateJob(ctx context.Context, job *models.ProcessingJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repository) UpdateJob(ctx context.Context, job *models.ProcessingJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

func (r *Repository) ListJobs(ctx context.Context, filter storage.JobFilter) ([]*models.ProcessingJob, error) {
	query := r.db.WithContext(ctx).Model(&models.ProcessingJob{}).Order("started_at DESC")

	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []*models.ProcessingJob
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Source operations

func (r *Repository) GetSourceByName(ctx context.Context, name string) (*models.Source, error) {
	var src models.Source
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&src).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &src, nil
}

func (r *Repository) SaveSource(ctx context.Context, source *models.Source) error {
	return r.db.WithContext(ctx).Save(source).Error
}

func (r *Repository) ListSources(ctx context.Context) ([]*models.Source, error) {
	var sources []*models.Source
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)
