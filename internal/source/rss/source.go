package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/source"
	"github.com/trendscout/pkg/logger"
	"github.com/trendscout/pkg/ratelimit"
)

// Source implements source.Connector for a single RSS feed. Feed items
// carry no engagement metrics, so popularity stays zero and relevance
// rests entirely on the text signals.
type Source struct {
	name        string
	url         string
	parser      *gofeed.Parser
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
}

// New creates a new RSS connector for a single feed
func New(feed config.RSSFeed, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	return &Source{
		name:        feed.Name,
		url:         feed.URL,
		parser:      gofeed.NewParser(),
		rateLimiter: limiter,
		log:         log.WithSource("rss", feed.Name),
	}
}

// NewMultiple creates one connector per configured feed
func NewMultiple(cfg config.RSSConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) []*Source {
	sources := make([]*Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, New(feed, limiter, log))
	}
	return sources
}

// Name returns the feed name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// HealthCheck verifies the feed is accessible
func (s *Source) HealthCheck(ctx context.Context) error {
	_, err := s.parser.ParseURLWithContext(s.url, ctx)
	return err
}

// FetchByQuery retrieves feed entries whose title or description
// contains the query string
func (s *Source) FetchByQuery(ctx context.Context, query string, pageSize int) ([]*models.RawItem, error) {
	all, err := s.fetch(ctx, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	var matched []*models.RawItem
	for _, raw := range all {
		title, _ := raw.Data["title"].(string)
		desc, _ := raw.Data["description"].(string)
		if strings.Contains(strings.ToLower(title), needle) ||
			strings.Contains(strings.ToLower(desc), needle) {
			matched = append(matched, raw)
		}
		if pageSize > 0 && len(matched) >= pageSize {
			break
		}
	}
	return matched, nil
}

// FetchWindow retrieves feed entries published within the trailing window
func (s *Source) FetchWindow(ctx context.Context, timespan models.Timespan) ([]*models.RawItem, error) {
	maxAge := time.Duration(timespan.Days()) * 24 * time.Hour
	return s.fetch(ctx, maxAge)
}

func (s *Source) fetch(ctx context.Context, maxAge time.Duration) ([]*models.RawItem, error) {
	if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterRSS); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.name, err)
	}

	items := make([]*models.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		var published string
		if entry.PublishedParsed != nil {
			if maxAge > 0 && time.Since(*entry.PublishedParsed) > maxAge {
				continue
			}
			published = entry.PublishedParsed.Format(time.RFC3339)
		}

		var author string
		if entry.Author != nil {
			author = entry.Author.Name
		}

		data := map[string]interface{}{
			"title":       entry.Title,
			"description": entry.Description,
			"link":        entry.Link,
			"guid":        entry.GUID,
			"author":      author,
			"categories":  entry.Categories,
			"published":   published,
		}

		items = append(items, &models.RawItem{
			SourceName: s.name,
			ExternalID: source.GenerateExternalID("rss", entry.Link),
			Data:       data,
		})
	}

	s.log.Info().
		Int("count", len(items)).
		Str("feed", s.name).
		Msg("Fetched RSS entries")

	return items, nil
}

// Normalize maps one raw feed entry to the canonical StandardItem shape
func (s *Source) Normalize(raw *models.RawItem) (*models.StandardItem, error) {
	if raw == nil || raw.Data == nil {
		return nil, fmt.Errorf("empty raw record")
	}

	title, _ := raw.Data["title"].(string)
	link, _ := raw.Data["link"].(string)
	if title == "" || link == "" {
		return nil, fmt.Errorf("feed entry %s is missing title or link", raw.ExternalID)
	}

	desc, _ := raw.Data["description"].(string)
	author, _ := raw.Data["author"].(string)

	var publishedAt time.Time
	if published, ok := raw.Data["published"].(string); ok && published != "" {
		if t, err := time.Parse(time.RFC3339, published); err == nil {
			publishedAt = t
		}
	}

	var topics []string
	switch cats := raw.Data["categories"].(type) {
	case []string:
		topics = cats
	case []interface{}:
		for _, c := range cats {
			if s, ok := c.(string); ok {
				topics = append(topics, s)
			}
		}
	}

	return &models.StandardItem{
		Title:       cleanText(title),
		Description: cleanText(desc),
		URL:         link,
		Author:      models.Author{Name: author},
		PublishedAt: publishedAt,
		Topics:      topics,
	}, nil
}

// cleanText strips HTML tags and collapses whitespace
func cleanText(text string) string {
	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Ensure Source implements source.Connector
var _ source.Connector = (*Source)(nil)
