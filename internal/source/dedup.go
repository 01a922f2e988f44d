package source

import "github.com/trendscout/internal/models"

// Deduplicate collapses raw-record batches into a single sequence with
// at most one record per external ID. Batches are processed in the
// caller's query order and the first occurrence wins; later duplicates
// are dropped, not merged.
func Deduplicate(batches ...[]*models.RawItem) []*models.RawItem {
	seen := make(map[string]bool)
	var unique []*models.RawItem

	for _, batch := range batches {
		for _, raw := range batch {
			if raw == nil || seen[raw.ExternalID] {
				continue
			}
			seen[raw.ExternalID] = true
			unique = append(unique, raw)
		}
	}

	return unique
}
