package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringSlice is a custom type for storing string arrays in JSON
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	return json.Unmarshal(value.([]byte), s)
}

// JSON is a custom type for storing arbitrary JSON data
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	return json.Unmarshal(value.([]byte), j)
}

// Metrics holds raw engagement numbers reported by a source.
// For GitHub repositories: stars, forks and open issues.
type Metrics struct {
	Primary    int `json:"primary"`
	Secondary  int `json:"secondary"`
	Engagement int `json:"engagement"`
}

// Author identifies the creator of an item
type Author struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// RawItem is an unprocessed record as returned by a source connector.
// Data holds the source-native payload and is never persisted as-is.
type RawItem struct {
	SourceName string
	ExternalID string
	Data       map[string]interface{}
}

// StandardItem is the canonical item shape, independent of source schema
type StandardItem struct {
	Title       string
	Description string
	URL         string
	Author      Author
	PublishedAt time.Time
	Metrics     Metrics
	Language    string
	License     string
	Topics      []string
}

// Item represents a persisted content item. The (SourceID, ExternalID)
// pair is the upsert key: an item is created on first sighting and
// updated in place on every re-sighting.
type Item struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	SourceID          uint      `gorm:"uniqueIndex:idx_items_source_external;not null" json:"source_id"`
	ExternalID        string    `gorm:"uniqueIndex:idx_items_source_external;not null" json:"external_id"`
	Title             string    `gorm:"not null" json:"title"`
	Description       string    `json:"description"`
	URL               string    `gorm:"not null" json:"url"`
	AuthorName        string    `json:"author_name"`
	AuthorURL         string    `json:"author_url"`
	PopularityScore   int       `gorm:"index" json:"popularity_score"` // 0-100
	Metrics           JSON      `gorm:"type:json" json:"metrics"`
	PrimaryCategory   string    `gorm:"index" json:"primary_category"`
	ContentType       string    `gorm:"default:'repository'" json:"content_type"`
	PublishedAt       time.Time `json:"published_at"`
	TrendingDate      time.Time `gorm:"index" json:"trending_date"` // last time the item was seen as relevant
	RawData           JSON      `gorm:"type:json" json:"raw_data"`
	ProcessedMetadata JSON      `gorm:"type:json" json:"processed_metadata"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastUpdated       time.Time `gorm:"autoUpdateTime" json:"last_updated"`

	Tags []ItemTag `gorm:"foreignKey:ItemID" json:"tags,omitempty"`
}
