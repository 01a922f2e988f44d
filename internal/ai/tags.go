package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trendscout/internal/models"
)

// tagSuggestionResponse is the JSON shape Claude is asked to return
type tagSuggestionResponse struct {
	Tags []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	} `json:"tags"`
}

// stripMarkdownCodeBlock extracts the JSON object from an AI response
// that may be wrapped in markdown fences or prose
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)

	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}
	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

// SuggestTags asks Claude for supplementary tags for a relevant item.
// Suggestions carry the "ai" provenance and flow through the same
// dedup-by-max-confidence ranking as the heuristic passes, so a weaker
// AI suggestion never displaces a stronger keyword match.
func (c *Client) SuggestTags(ctx context.Context, item *models.StandardItem, knownTags []string) ([]models.TagMatch, error) {
	userPrompt := fmt.Sprintf(TagSuggestionUserPrompt,
		item.Title,
		item.Description,
		strings.Join(item.Topics, ", "),
		strings.Join(knownTags, ", "),
	)

	response, err := c.CompleteWithJSON(ctx, TagSuggestionSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	var parsed tagSuggestionResponse
	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(response)), &parsed); err != nil {
		c.log.Error().
			Err(err).
			Str("response", response).
			Msg("Failed to parse tag suggestion response")
		return nil, fmt.Errorf("failed to parse tag suggestion response: %w", err)
	}

	matches := make([]models.TagMatch, 0, len(parsed.Tags))
	for _, t := range parsed.Tags {
		if t.Name == "" || t.Confidence <= 0 {
			continue
		}
		if t.Confidence > 1 {
			t.Confidence = 1
		}
		matches = append(matches, models.TagMatch{
			TagName:    strings.ToLower(strings.TrimSpace(t.Name)),
			Confidence: t.Confidence,
			Source:     models.TagSourceAI,
			Reasoning:  t.Reasoning,
		})
	}

	return matches, nil
}
