package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/source"
	"github.com/trendscout/pkg/logger"
	"github.com/trendscout/pkg/ratelimit"
)

const defaultBaseURL = "https://api.github.com"

// Repo is the subset of the GitHub repository payload the pipeline uses
type Repo struct {
	ID              int64    `json:"id"`
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	HTMLURL         string   `json:"html_url"`
	CreatedAt       string   `json:"created_at"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	Owner           struct {
		Login     string `json:"login"`
		HTMLURL   string `json:"html_url"`
		AvatarURL string `json:"avatar_url"`
	} `json:"owner"`
	License *struct {
		Name string `json:"name"`
	} `json:"license"`
}

type searchResponse struct {
	TotalCount int    `json:"total_count"`
	Items      []Repo `json:"items"`
}

// Source implements source.Connector against the GitHub search API
type Source struct {
	httpClient  *http.Client
	baseURL     string
	pageSize    int
	minStars    int
	keywords    []string
	topics      []string
	rateLimiter *ratelimit.MultiLimiter
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new GitHub connector. An empty token is allowed but
// subject to the much lower unauthenticated search quota.
func New(cfg config.GitHubConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.Token != "" {
		httpClient = oauth2.NewClient(
			context.Background(),
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}),
		)
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	return &Source{
		httpClient:  httpClient,
		baseURL:     baseURL,
		pageSize:    pageSize,
		minStars:    cfg.MinStars,
		keywords:    cfg.Keywords,
		topics:      cfg.Topics,
		rateLimiter: limiter,
		log:         log.WithSource("repository", "github"),
		now:         time.Now,
	}
}

// Name returns the connector name
func (s *Source) Name() string {
	return "github"
}

// Type returns "repository"
func (s *Source) Type() string {
	return "repository"
}

// HealthCheck verifies the GitHub API is reachable
func (s *Source) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/rate_limit", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("github api unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("github api returned status %d", resp.StatusCode)
	}
	return nil
}

// FetchByQuery retrieves one batch of repositories for a single search query
func (s *Source) FetchByQuery(ctx context.Context, query string, pageSize int) ([]*models.RawItem, error) {
	// Mandatory pause between search requests to stay under the quota
	if err := s.rateLimiter.Wait(ctx, ratelimit.LimiterGitHub); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("sort", "stars")
	params.Set("order", "desc")
	params.Set("per_page", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.baseURL+"/search/repositories?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("github search returned status %d: %s", resp.StatusCode, body)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	items := make([]*models.RawItem, 0, len(result.Items))
	for _, repo := range result.Items {
		data, err := repoToMap(repo)
		if err != nil {
			continue
		}
		items = append(items, &models.RawItem{
			SourceName: s.Name(),
			ExternalID: strconv.FormatInt(repo.ID, 10),
			Data:       data,
		})
	}

	s.log.Debug().
		Str("query", query).
		Int("count", len(items)).
		Msg("Fetched search batch")

	return items, nil
}

// FetchWindow retrieves candidates created in the trailing window using
// several query variants: a base trending query plus one query per
// configured keyword and topic. Batches are merged in query order;
// duplicates across variants are left for the deduplicator.
func (s *Source) FetchWindow(ctx context.Context, timespan models.Timespan) ([]*models.RawItem, error) {
	since := s.now().AddDate(0, 0, -timespan.Days()).Format("2006-01-02")

	queries := make([]string, 0, 1+len(s.keywords)+len(s.topics))
	queries = append(queries, fmt.Sprintf("created:>%s stars:>%d", since, s.minStars*2))
	for _, keyword := range s.keywords {
		queries = append(queries, fmt.Sprintf("%s created:>%s stars:>%d", keyword, since, s.minStars))
	}
	for _, topic := range s.topics {
		queries = append(queries, fmt.Sprintf("topic:%s created:>%s stars:>%d", topic, since, s.minStars))
	}

	var all []*models.RawItem
	for _, query := range queries {
		batch, err := s.FetchByQuery(ctx, query, s.pageSize)
		if err != nil {
			return nil, fmt.Errorf("query %q failed: %w", query, err)
		}
		all = append(all, batch...)
	}

	s.log.Info().
		Str("timespan", string(timespan)).
		Int("queries", len(queries)).
		Int("fetched", len(all)).
		Msg("Fetched trending window")

	return all, nil
}

func repoToMap(repo Repo) (map[string]interface{}, error) {
	data, err := json.Marshal(repo)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Ensure Source implements source.Connector
var _ source.Connector = (*Source)(nil)
