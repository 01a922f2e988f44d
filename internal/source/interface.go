package source

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/trendscout/internal/models"
)

// Connector defines the interface for upstream data providers
type Connector interface {
	// Name returns the unique name of this connector
	Name() string

	// Type returns the content type produced (repository, rss)
	Type() string

	// HealthCheck verifies the upstream provider is reachable
	HealthCheck(ctx context.Context) error

	// FetchByQuery retrieves one batch of raw records for a single query
	FetchByQuery(ctx context.Context, query string, pageSize int) ([]*models.RawItem, error)

	// FetchWindow retrieves candidates for the trailing window, issuing
	// several query variants serially and merging the batches (pre-dedup)
	FetchWindow(ctx context.Context, timespan models.Timespan) ([]*models.RawItem, error)

	// Normalize maps one raw record to its canonical StandardItem shape
	Normalize(raw *models.RawItem) (*models.StandardItem, error)
}

// GenerateExternalID creates a stable identifier for sources whose
// records carry no native ID, derived from source type and URL
func GenerateExternalID(sourceType, url string) string {
	data := fmt.Sprintf("%s:%s", sourceType, url)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16])
}

// Registry holds the configured connectors by name
type Registry struct {
	connectors []Connector
}

// NewRegistry creates an empty connector registry
func NewRegistry() *Registry {
	return &Registry{connectors: make([]Connector, 0)}
}

// Register adds a connector to the registry
func (r *Registry) Register(c Connector) {
	r.connectors = append(r.connectors, c)
}

// Connectors returns all registered connectors
func (r *Registry) Connectors() []Connector {
	return r.connectors
}

// ByName returns a connector by name, or nil if not registered
func (r *Registry) ByName(name string) Connector {
	for _, c := range r.connectors {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
