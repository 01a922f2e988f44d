package rss

import (
	"testing"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/pkg/logger"
	"github.com/trendscout/pkg/ratelimit"
)

func testSource() *Source {
	limiter := ratelimit.NewMultiLimiter()
	limiter.AddLimiter(ratelimit.LimiterRSS, 1000, 1000)
	return New(config.RSSFeed{Name: "ai-news", URL: "https://example.com/feed.xml"},
		limiter, logger.New(logger.Config{Level: "error"}))
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello world", "hello world"},
		{"strips tags", "<p>hello <b>world</b></p>", "hello world"},
		{"collapses whitespace", "hello \n\t  world ", "hello world"},
		{"tag soup", "<div><a href='x'>link</a> text</div>", "link text"},
		{"empty", "", ""},
		{"only tags", "<br/><hr>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	s := testSource()

	item, err := s.Normalize(&models.RawItem{
		SourceName: "ai-news",
		ExternalID: "abc",
		Data: map[string]interface{}{
			"title":       "<b>New LLM release</b>",
			"description": "<p>A framework   update</p>",
			"link":        "https://example.com/post/1",
			"author":      "jo",
			"categories":  []string{"llm", "release"},
			"published":   "2026-03-01T09:00:00Z",
		},
	})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	if item.Title != "New LLM release" {
		t.Errorf("Title = %q", item.Title)
	}
	if item.Description != "A framework update" {
		t.Errorf("Description = %q", item.Description)
	}
	if item.URL != "https://example.com/post/1" {
		t.Errorf("URL = %q", item.URL)
	}
	if item.Author.Name != "jo" {
		t.Errorf("Author = %q", item.Author.Name)
	}
	if len(item.Topics) != 2 || item.Topics[0] != "llm" {
		t.Errorf("Topics = %v", item.Topics)
	}
	if item.PublishedAt.IsZero() {
		t.Error("PublishedAt not parsed")
	}
}

func TestNormalizeRejectsIncompleteEntries(t *testing.T) {
	s := testSource()

	tests := []struct {
		name string
		raw  *models.RawItem
	}{
		{"nil record", nil},
		{"missing title", &models.RawItem{
			ExternalID: "x",
			Data:       map[string]interface{}{"link": "https://example.com/p"},
		}},
		{"missing link", &models.RawItem{
			ExternalID: "x",
			Data:       map[string]interface{}{"title": "post"},
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
