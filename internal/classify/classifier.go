package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trendscout/internal/models"
)

const (
	// DefaultMinRelevanceScore is the threshold below which an item is
	// considered out of domain
	DefaultMinRelevanceScore = 0.3

	// DefaultMaxTags caps the suggested tag list per item
	DefaultMaxTags = 8

	belowThresholdReasoning = "Item does not meet AI/LLM relevance threshold"
)

// Per-field weights of the overall relevance score. Empirically tuned
// alongside the keyword table; change them together or not at all.
const (
	titleWeight   = 0.4
	descWeight    = 0.3
	topicsWeight  = 0.2
	metricsWeight = 0.1
)

// Classifier scores domain relevance and derives ranked tags and a
// primary category for a StandardItem. It is a pure function over its
// input: no I/O, no mutable state, identical output for identical input.
type Classifier struct {
	keywords     Keywords
	minRelevance float64
	maxTags      int
}

// Option customizes a Classifier
type Option func(*Classifier)

// WithMinRelevance overrides the relevance threshold
func WithMinRelevance(min float64) Option {
	return func(c *Classifier) { c.minRelevance = min }
}

// WithMaxTags overrides the suggested-tag cap
func WithMaxTags(max int) Option {
	return func(c *Classifier) { c.maxTags = max }
}

// New creates a Classifier over the given keyword table
func New(keywords Keywords, opts ...Option) *Classifier {
	c := &Classifier{
		keywords:     keywords,
		minRelevance: DefaultMinRelevanceScore,
		maxTags:      DefaultMaxTags,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scores one item. Irrelevant items short-circuit: no tag
// extraction is performed and the category is "other".
func (c *Classifier) Classify(item *models.StandardItem) *models.Classification {
	if item == nil {
		item = &models.StandardItem{}
	}

	relevanceScore := c.relevance(item)
	if relevanceScore < c.minRelevance {
		return &models.Classification{
			PrimaryCategory: "other",
			Confidence:      0,
			SuggestedTags:   nil,
			IsRelevant:      false,
			RelevanceScore:  relevanceScore,
			Reasoning:       belowThresholdReasoning,
		}
	}

	tags := c.extractTags(item)

	return &models.Classification{
		PrimaryCategory: primaryCategory(tags),
		Confidence:      confidence(tags, relevanceScore),
		SuggestedTags:   tags,
		IsRelevant:      true,
		RelevanceScore:  relevanceScore,
		Reasoning:       reasoning(tags, relevanceScore, item),
	}
}

// MergeTags folds supplementary matches into an already-ranked tag
// list through the same dedup-by-max-confidence ranking, so a weaker
// supplementary suggestion never displaces a stronger existing match.
func (c *Classifier) MergeTags(base, extra []models.TagMatch) []models.TagMatch {
	merged := make([]models.TagMatch, 0, len(base)+len(extra))
	merged = append(merged, base...)
	merged = append(merged, extra...)
	return c.rankTags(merged)
}

// relevance computes the weighted multi-signal relevance score in [0,1]
func (c *Classifier) relevance(item *models.StandardItem) float64 {
	score := c.analyzeText(item.Title)*titleWeight +
		c.analyzeText(item.Description)*descWeight

	if len(item.Topics) > 0 {
		score += c.analyzeText(strings.Join(item.Topics, " ")) * topicsWeight
	}

	popularityBonus := float64(item.Metrics.Primary) / 1000
	if popularityBonus > 0.2 {
		popularityBonus = 0.2
	}
	if popularityBonus > 0 {
		score += popularityBonus * metricsWeight
	}

	return clamp01(score)
}

// analyzeText scores one text field against the keyword table. The
// total rewards breadth of matches while the max term caps how far a
// single keyword can carry the field.
func (c *Classifier) analyzeText(text string) float64 {
	if text == "" {
		return 0
	}

	normalized := strings.ToLower(text)
	var total, max float64

	for keyword, entry := range c.keywords {
		if strings.Contains(normalized, keyword) {
			score := float64(entry.Weight) / 10
			total += score
			if score > max {
				max = score
			}
		}
	}

	return clamp01(total*0.3 + max*0.7)
}

// extractTags pools the keyword, semantic and feature passes, then
// dedups by tag name keeping the highest confidence, ranks and filters
func (c *Classifier) extractTags(item *models.StandardItem) []models.TagMatch {
	var all []models.TagMatch
	all = append(all, c.keywordTags(item)...)
	all = append(all, semanticTags(item)...)
	all = append(all, featureTags(item)...)
	return c.rankTags(all)
}

func (c *Classifier) keywordTags(item *models.StandardItem) []models.TagMatch {
	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)
	topics := strings.ToLower(strings.Join(item.Topics, " "))

	var matches []models.TagMatch
	for keyword, entry := range c.keywords {
		var conf float64
		var reason string

		if strings.Contains(title, keyword) {
			conf = 0.9
			reason = fmt.Sprintf("Found %q in title", keyword)
		}
		if strings.Contains(desc, keyword) && conf < 0.7 {
			conf = 0.7
			reason = fmt.Sprintf("Found %q in description", keyword)
		}
		if strings.Contains(topics, keyword) && conf < 0.8 {
			conf = 0.8
			reason = fmt.Sprintf("Found %q in topics", keyword)
		}

		if conf == 0 {
			continue
		}
		for _, tag := range entry.Tags {
			matches = append(matches, models.TagMatch{
				TagName:    tag,
				Confidence: conf * float64(entry.Weight) / 10,
				Source:     models.TagSourceKeyword,
				Reasoning:  reason,
			})
		}
	}

	return matches
}

func semanticTags(item *models.StandardItem) []models.TagMatch {
	text := item.Title + " " + item.Description

	var matches []models.TagMatch
	for _, p := range semanticPatterns {
		if p.pattern.MatchString(text) {
			matches = append(matches, models.TagMatch{
				TagName:    p.tag,
				Confidence: p.confidence,
				Source:     models.TagSourceDescription,
				Reasoning:  fmt.Sprintf("Semantic pattern match for %s", p.tag),
			})
		}
	}
	return matches
}

// featureTags derives low-confidence supplementary tags from non-text
// signals: the implementation language and the popularity level
func featureTags(item *models.StandardItem) []models.TagMatch {
	var matches []models.TagMatch

	switch item.Language {
	case "Python":
		matches = append(matches, models.TagMatch{
			TagName:    "data-analysis",
			Confidence: 0.3,
			Source:     models.TagSourceKeyword,
			Reasoning:  "Python language suggests data analysis capability",
		})
	case "JavaScript", "TypeScript":
		matches = append(matches, models.TagMatch{
			TagName:    "chatbot",
			Confidence: 0.3,
			Source:     models.TagSourceKeyword,
			Reasoning:  "JS/TS language suggests web-based AI applications",
		})
	}

	if item.Metrics.Primary > 1000 {
		text := strings.ToLower(item.Title + " " + item.Description)
		for _, name := range highValueFrameworks {
			if strings.Contains(text, name) {
				matches = append(matches, models.TagMatch{
					TagName:    "framework",
					Confidence: 0.4,
					Source:     models.TagSourceManual,
					Reasoning:  "High popularity suggests important framework",
				})
				break
			}
		}
	}

	return matches
}

// rankTags dedups by tag name keeping the strictly highest confidence,
// sorts descending (name ascending on ties, for determinism), filters
// out low-confidence entries and truncates to the cap
func (c *Classifier) rankTags(matches []models.TagMatch) []models.TagMatch {
	best := make(map[string]models.TagMatch)
	for _, m := range matches {
		if existing, ok := best[m.TagName]; !ok || m.Confidence > existing.Confidence {
			best[m.TagName] = m
		}
	}

	ranked := make([]models.TagMatch, 0, len(best))
	for _, m := range best {
		if m.Confidence > 0.3 {
			ranked = append(ranked, m)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Confidence != ranked[j].Confidence {
			return ranked[i].Confidence > ranked[j].Confidence
		}
		return ranked[i].TagName < ranked[j].TagName
	})

	if len(ranked) > c.maxTags {
		ranked = ranked[:c.maxTags]
	}
	return ranked
}

// primaryCategory resolves the classification bucket from the single
// highest-confidence tag
func primaryCategory(tags []models.TagMatch) string {
	if len(tags) == 0 {
		return "other"
	}
	if category, ok := categoryByTag[tags[0].TagName]; ok {
		return category
	}
	return "application"
}

// confidence blends the average tag confidence with the relevance score
func confidence(tags []models.TagMatch, relevanceScore float64) float64 {
	if len(tags) == 0 {
		return 0
	}
	var sum float64
	for _, t := range tags {
		sum += t.Confidence
	}
	avg := sum / float64(len(tags))
	return avg*0.7 + relevanceScore*0.3
}

func reasoning(tags []models.TagMatch, relevanceScore float64, item *models.StandardItem) string {
	var reasons []string

	if relevanceScore > 0.7 {
		reasons = append(reasons, "High AI/LLM relevance score")
	}
	if len(tags) > 0 {
		top := tags
		if len(top) > 3 {
			top = top[:3]
		}
		names := make([]string, len(top))
		for i, t := range top {
			names[i] = t.TagName
		}
		reasons = append(reasons, "Identified as: "+strings.Join(names, ", "))
	}
	if item.Metrics.Primary > 500 {
		reasons = append(reasons, "High community interest")
	}

	if len(reasons) == 0 {
		return "Automated classification based on content analysis"
	}
	return strings.Join(reasons, ". ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
