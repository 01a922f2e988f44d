package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trendscout/internal/config"
	"github.com/trendscout/pkg/logger"
	"github.com/trendscout/pkg/ratelimit"
)

func testLimiter() *ratelimit.MultiLimiter {
	m := ratelimit.NewMultiLimiter()
	m.AddLimiter(ratelimit.LimiterGitHub, 1000, 1000)
	return m
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error"})
}

func newTestSource(t *testing.T, handler http.HandlerFunc, cfg config.GitHubConfig) *Source {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg.BaseURL = server.URL
	return New(cfg, testLimiter(), testLogger())
}

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"reachable", http.StatusOK, false},
		{"unauthorized", http.StatusUnauthorized, true},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/rate_limit" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}, config.GitHubConfig{})

			err := s.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFetchByQuery(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/repositories" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort"); got != "stars" {
			t.Errorf("sort = %q, want stars", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"total_count": 2,
			"items": [
				{"id": 101, "full_name": "acme/langchain-kit", "html_url": "https://github.com/acme/langchain-kit", "stargazers_count": 1200},
				{"id": 102, "full_name": "acme/rag-server", "html_url": "https://github.com/acme/rag-server", "stargazers_count": 300}
			]
		}`))
	}, config.GitHubConfig{})

	items, err := s.FetchByQuery(context.Background(), "langchain", 50)
	if err != nil {
		t.Fatalf("FetchByQuery() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].ExternalID != "101" {
		t.Errorf("ExternalID = %q, want %q", items[0].ExternalID, "101")
	}
	if items[0].SourceName != "github" {
		t.Errorf("SourceName = %q, want %q", items[0].SourceName, "github")
	}
	if items[0].Data["full_name"] != "acme/langchain-kit" {
		t.Errorf("Data[full_name] = %v", items[0].Data["full_name"])
	}
}

func TestFetchByQueryErrorStatus(t *testing.T) {
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "rate limited"}`))
	}, config.GitHubConfig{})

	_, err := s.FetchByQuery(context.Background(), "llm", 50)
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestFetchWindowIssuesQueryVariants(t *testing.T) {
	var queries []string
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_count": 0, "items": []}`))
	}, config.GitHubConfig{
		MinStars: 5,
		Keywords: []string{"langchain", "llm"},
		Topics:   []string{"ai-agent"},
	})
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	_, err := s.FetchWindow(context.Background(), "daily")
	if err != nil {
		t.Fatalf("FetchWindow() error = %v", err)
	}

	// Base query plus one per keyword and topic
	want := []string{
		"created:>2026-03-09 stars:>10",
		"langchain created:>2026-03-09 stars:>5",
		"llm created:>2026-03-09 stars:>5",
		"topic:ai-agent created:>2026-03-09 stars:>5",
	}
	if len(queries) != len(want) {
		t.Fatalf("issued %d queries, want %d: %v", len(queries), len(want), queries)
	}
	for i, q := range want {
		if queries[i] != q {
			t.Errorf("query %d = %q, want %q", i, queries[i], q)
		}
	}
}

func TestFetchWindowPropagatesQueryError(t *testing.T) {
	var calls int
	s := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"total_count": 0, "items": []}`))
	}, config.GitHubConfig{Keywords: []string{"llm"}})

	_, err := s.FetchWindow(context.Background(), "daily")
	if err == nil {
		t.Fatal("expected error when a query variant fails")
	}
}
