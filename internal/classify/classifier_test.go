package classify

import (
	"reflect"
	"testing"

	"github.com/trendscout/internal/models"
)

func aiItem() *models.StandardItem {
	return &models.StandardItem{
		Title:       "awesome-langchain-tools",
		Description: "A curated LangChain toolkit for building LLM chatbots",
		Topics:      []string{"langchain", "llm"},
		Language:    "Python",
		Metrics:     models.Metrics{Primary: 2000, Secondary: 300, Engagement: 40},
	}
}

func TestClassifyRelevantItem(t *testing.T) {
	c := New(DefaultKeywords())

	got := c.Classify(aiItem())

	if !got.IsRelevant {
		t.Fatalf("expected item to be relevant, relevance=%f", got.RelevanceScore)
	}
	if got.RelevanceScore <= 0.7 {
		t.Errorf("RelevanceScore = %f, want > 0.7", got.RelevanceScore)
	}
	if got.PrimaryCategory != "framework" {
		t.Errorf("PrimaryCategory = %q, want %q", got.PrimaryCategory, "framework")
	}
	if len(got.SuggestedTags) == 0 {
		t.Fatal("expected suggested tags")
	}
	if got.SuggestedTags[0].TagName != "langchain" {
		t.Errorf("top tag = %q, want %q", got.SuggestedTags[0].TagName, "langchain")
	}
	if got.Confidence <= 0 || got.Confidence > 1 {
		t.Errorf("Confidence = %f, want in (0,1]", got.Confidence)
	}
}

func TestClassifyIrrelevantItemShortCircuits(t *testing.T) {
	c := New(DefaultKeywords())

	got := c.Classify(&models.StandardItem{
		Title:       "dotfiles",
		Description: "my personal vim and tmux setup",
		Metrics:     models.Metrics{Primary: 10},
	})

	if got.IsRelevant {
		t.Fatalf("expected item to be irrelevant, relevance=%f", got.RelevanceScore)
	}
	if got.PrimaryCategory != "other" {
		t.Errorf("PrimaryCategory = %q, want %q", got.PrimaryCategory, "other")
	}
	if got.SuggestedTags != nil {
		t.Errorf("SuggestedTags = %v, want nil", got.SuggestedTags)
	}
	if got.Confidence != 0 {
		t.Errorf("Confidence = %f, want 0", got.Confidence)
	}
}

func TestClassifyNilItem(t *testing.T) {
	c := New(DefaultKeywords())

	got := c.Classify(nil)
	if got.IsRelevant {
		t.Error("nil item must be irrelevant")
	}
	if got.RelevanceScore != 0 {
		t.Errorf("RelevanceScore = %f, want 0", got.RelevanceScore)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New(DefaultKeywords())
	item := aiItem()

	first := c.Classify(item)
	for i := 0; i < 10; i++ {
		again := c.Classify(item)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed:\nfirst: %+v\nagain: %+v", i, first, again)
		}
	}
}

func TestClassifyTagProperties(t *testing.T) {
	c := New(DefaultKeywords())

	got := c.Classify(aiItem())

	if len(got.SuggestedTags) > DefaultMaxTags {
		t.Errorf("got %d tags, want at most %d", len(got.SuggestedTags), DefaultMaxTags)
	}

	seen := make(map[string]bool)
	for i, tag := range got.SuggestedTags {
		if tag.Confidence <= 0.3 {
			t.Errorf("tag %s confidence = %f, want > 0.3", tag.TagName, tag.Confidence)
		}
		if seen[tag.TagName] {
			t.Errorf("duplicate tag %s", tag.TagName)
		}
		seen[tag.TagName] = true
		if i > 0 && got.SuggestedTags[i-1].Confidence < tag.Confidence {
			t.Errorf("tags not sorted: %s (%f) after %s (%f)",
				tag.TagName, tag.Confidence,
				got.SuggestedTags[i-1].TagName, got.SuggestedTags[i-1].Confidence)
		}
	}
}

func TestClassifyWithMinRelevanceOption(t *testing.T) {
	strict := New(DefaultKeywords(), WithMinRelevance(0.99))

	got := strict.Classify(aiItem())
	if got.IsRelevant {
		t.Errorf("expected strict threshold to reject item, relevance=%f", got.RelevanceScore)
	}
}

func TestClassifyWithMaxTagsOption(t *testing.T) {
	capped := New(DefaultKeywords(), WithMaxTags(2))

	got := capped.Classify(aiItem())
	if len(got.SuggestedTags) > 2 {
		t.Errorf("got %d tags, want at most 2", len(got.SuggestedTags))
	}
}

func TestRelevanceBounds(t *testing.T) {
	c := New(DefaultKeywords())

	tests := []struct {
		name string
		item *models.StandardItem
	}{
		{"empty", &models.StandardItem{}},
		{"keyword heavy", aiItem()},
		{"huge metrics", &models.StandardItem{
			Title:   "langchain llm rag chatbot openai huggingface",
			Metrics: models.Metrics{Primary: 1_000_000},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := c.relevance(tt.item)
			if score < 0 || score > 1 {
				t.Errorf("relevance = %f, want in [0,1]", score)
			}
		})
	}
}

func TestMergeTagsKeepsStrongerMatch(t *testing.T) {
	c := New(DefaultKeywords())

	base := []models.TagMatch{
		{TagName: "langchain", Confidence: 0.9, Source: models.TagSourceKeyword},
	}
	extra := []models.TagMatch{
		{TagName: "langchain", Confidence: 0.5, Source: models.TagSourceAI},
		{TagName: "rag", Confidence: 0.8, Source: models.TagSourceAI},
	}

	merged := c.MergeTags(base, extra)

	if len(merged) != 2 {
		t.Fatalf("got %d tags, want 2: %v", len(merged), merged)
	}
	if merged[0].TagName != "langchain" || merged[0].Confidence != 0.9 {
		t.Errorf("merged[0] = %+v, want langchain at 0.9", merged[0])
	}
	if merged[0].Source != models.TagSourceKeyword {
		t.Errorf("weaker AI suggestion displaced the keyword match: %+v", merged[0])
	}
	if merged[1].TagName != "rag" {
		t.Errorf("merged[1] = %+v, want rag", merged[1])
	}
}

func TestFeatureTagsLanguageSignals(t *testing.T) {
	// Language-derived tags sit at confidence 0.3 and must be filtered
	// out by the strictly-greater cut unless another pass raises them
	c := New(DefaultKeywords())

	got := c.Classify(&models.StandardItem{
		Title:       "llm-notebook",
		Description: "Notebooks for working with large language models",
		Language:    "Python",
		Metrics:     models.Metrics{Primary: 50},
	})

	for _, tag := range got.SuggestedTags {
		if tag.TagName == "data-analysis" && tag.Confidence == 0.3 {
			t.Errorf("language-only tag at the 0.3 boundary should be filtered: %+v", tag)
		}
	}
}
