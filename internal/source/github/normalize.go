package github

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/trendscout/internal/models"
)

// Normalize maps one raw GitHub record to the canonical StandardItem
// shape. It never fabricates values: optional upstream fields that are
// absent stay zero-valued. The same raw record always normalizes
// identically.
func (s *Source) Normalize(raw *models.RawItem) (*models.StandardItem, error) {
	repo, err := decodeRepo(raw)
	if err != nil {
		return nil, err
	}

	if repo.FullName == "" || repo.HTMLURL == "" {
		return nil, fmt.Errorf("record %s is missing title or url", raw.ExternalID)
	}

	var publishedAt time.Time
	if repo.CreatedAt != "" {
		publishedAt, err = time.Parse(time.RFC3339, repo.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", repo.CreatedAt, err)
		}
	}

	item := &models.StandardItem{
		Title:       repo.FullName,
		Description: repo.Description,
		URL:         repo.HTMLURL,
		Author: models.Author{
			Name:      repo.Owner.Login,
			URL:       repo.Owner.HTMLURL,
			AvatarURL: repo.Owner.AvatarURL,
		},
		PublishedAt: publishedAt,
		Metrics: models.Metrics{
			Primary:    repo.StargazersCount,
			Secondary:  repo.ForksCount,
			Engagement: repo.OpenIssuesCount,
		},
		Language: repo.Language,
		Topics:   repo.Topics,
	}
	if repo.License != nil {
		item.License = repo.License.Name
	}

	return item, nil
}

func decodeRepo(raw *models.RawItem) (*Repo, error) {
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("empty raw record")
	}
	data, err := json.Marshal(raw.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal raw record: %w", err)
	}
	var repo Repo
	if err := json.Unmarshal(data, &repo); err != nil {
		return nil, fmt.Errorf("failed to decode raw record: %w", err)
	}
	return &repo, nil
}
