package models

import "time"

// TagMatch source values (classifier provenance)
const (
	TagSourceKeyword     = "keyword"
	TagSourceDescription = "description"
	TagSourceAI          = "ai"
	TagSourceManual      = "manual"
)

// ItemTag source values (persisted provenance). Keyword and description
// matches collapse to "auto" when stored; auto and ai associations are
// replaced wholesale on every re-classification, manual ones survive.
const (
	ItemTagSourceAuto   = "auto"
	ItemTagSourceManual = "manual"
	ItemTagSourceAI     = "ai"
)

// TagMatch is a candidate tag association produced by the classifier.
// Only the winning set per item is ever persisted.
type TagMatch struct {
	TagName    string  `json:"tag_name"`
	Confidence float64 `json:"confidence"` // 0-1
	Source     string  `json:"source"`     // keyword, description, ai, manual
	Reasoning  string  `json:"reasoning"`
}

// PersistedSource maps the classifier provenance to the stored provenance
func (m TagMatch) PersistedSource() string {
	switch m.Source {
	case TagSourceAI:
		return ItemTagSourceAI
	case TagSourceManual:
		return ItemTagSourceManual
	default:
		return ItemTagSourceAuto
	}
}

// Classification is the classifier's verdict for one StandardItem.
// It is derived deterministically and immutable once produced.
type Classification struct {
	PrimaryCategory string     `json:"primary_category"`
	Confidence      float64    `json:"confidence"`       // 0-1
	SuggestedTags   []TagMatch `json:"suggested_tags"`   // at most 8, each confidence > 0.3
	IsRelevant      bool       `json:"is_relevant"`
	RelevanceScore  float64    `json:"relevance_score"` // 0-1
	Reasoning       string     `json:"reasoning"`
}

// Tag is a curated category label items can be associated with
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	DisplayName string    `json:"display_name"`
	Category    string    `gorm:"index" json:"category"` // framework, application, technology
	Description string    `json:"description"`
	IsFeatured  bool      `gorm:"default:false" json:"is_featured"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ItemTag associates an item with a tag. The (ItemID, TagID) pair is unique.
type ItemTag struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ItemID     uint      `gorm:"uniqueIndex:idx_item_tags_item_tag;not null" json:"item_id"`
	TagID      uint      `gorm:"uniqueIndex:idx_item_tags_item_tag;not null" json:"tag_id"`
	Confidence float64   `json:"confidence"`
	Source     string    `gorm:"default:'auto'" json:"source"` // auto, manual, ai
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	Tag *Tag `gorm:"foreignKey:TagID" json:"tag,omitempty"`
}
