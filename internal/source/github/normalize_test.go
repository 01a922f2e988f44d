package github

import (
	"testing"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/models"
)

func normalizeSource() *Source {
	return New(config.GitHubConfig{}, testLimiter(), testLogger())
}

func repoData() map[string]interface{} {
	return map[string]interface{}{
		"id":                float64(101),
		"full_name":         "acme/langchain-kit",
		"description":       "LangChain building blocks",
		"html_url":          "https://github.com/acme/langchain-kit",
		"created_at":        "2026-03-01T10:00:00Z",
		"stargazers_count":  float64(1200),
		"forks_count":       float64(80),
		"open_issues_count": float64(14),
		"language":          "Python",
		"topics":            []interface{}{"langchain", "llm"},
		"owner": map[string]interface{}{
			"login":    "acme",
			"html_url": "https://github.com/acme",
		},
		"license": map[string]interface{}{"name": "MIT License"},
	}
}

func TestNormalize(t *testing.T) {
	s := normalizeSource()

	item, err := s.Normalize(&models.RawItem{
		SourceName: "github",
		ExternalID: "101",
		Data:       repoData(),
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if item.Title != "acme/langchain-kit" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.URL != "https://github.com/acme/langchain-kit" {
		t.Errorf("URL = %q", item.URL)
	}
	if item.Author.Name != "acme" {
		t.Errorf("Author.Name = %q", item.Author.Name)
	}
	if item.Metrics.Primary != 1200 || item.Metrics.Secondary != 80 || item.Metrics.Engagement != 14 {
		t.Errorf("Metrics = %+v", item.Metrics)
	}
	if item.Language != "Python" {
		t.Errorf("Language = %q", item.Language)
	}
	if item.License != "MIT License" {
		t.Errorf("License = %q", item.License)
	}
	if len(item.Topics) != 2 || item.Topics[0] != "langchain" {
		t.Errorf("Topics = %v", item.Topics)
	}
	if item.PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}
}

func TestNormalizeOptionalFieldsStayZero(t *testing.T) {
	s := normalizeSource()

	item, err := s.Normalize(&models.RawItem{
		ExternalID: "102",
		Data: map[string]interface{}{
			"full_name": "acme/bare",
			"html_url":  "https://github.com/acme/bare",
		},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if item.Description != "" || item.Language != "" || item.License != "" {
		t.Errorf("optional fields fabricated: %+v", item)
	}
	if !item.PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want zero", item.PublishedAt)
	}
	if item.Metrics != (models.Metrics{}) {
		t.Errorf("Metrics = %+v, want zero", item.Metrics)
	}
}

func TestNormalizeRejectsInvalidRecords(t *testing.T) {
	s := normalizeSource()

	tests := []struct {
		name string
		raw  *models.RawItem
	}{
		{"nil record", nil},
		{"nil data", &models.RawItem{ExternalID: "x"}},
		{"missing title", &models.RawItem{
			ExternalID: "x",
			Data:       map[string]interface{}{"html_url": "https://github.com/a/b"},
		}},
		{"missing url", &models.RawItem{
			ExternalID: "x",
			Data:       map[string]interface{}{"full_name": "a/b"},
		}},
		{"bad created_at", &models.RawItem{
			ExternalID: "x",
			Data: map[string]interface{}{
				"full_name":  "a/b",
				"html_url":   "https://github.com/a/b",
				"created_at": "yesterday",
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Normalize(tt.raw); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	s := normalizeSource()
	raw := &models.RawItem{ExternalID: "101", Data: repoData()}

	first, err := s.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}

	if first.Title != second.Title || first.Metrics != second.Metrics ||
		!first.PublishedAt.Equal(second.PublishedAt) {
		t.Errorf("normalization not stable:\n%+v\n%+v", first, second)
	}
}
