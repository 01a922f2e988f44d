package sqlite

import (
	"context"
	"fmt"

	"github.com/trendscout/internal/models"
)

// tagCatalog is the curated tag set the classifier can resolve against.
// Names must match the tag names emitted by the keyword table; matches
// for unknown names are silently dropped at persistence time.
var tagCatalog = []models.Tag{
	// Frameworks
	{Name: "langchain", DisplayName: "LangChain", Category: "framework", Description: "LLM application framework", IsFeatured: true},
	{Name: "llamaindex", DisplayName: "LlamaIndex", Category: "framework", Description: "Data framework for LLMs", IsFeatured: true},
	{Name: "autogen", DisplayName: "AutoGen", Category: "framework", Description: "Multi-agent conversation framework", IsFeatured: true},
	{Name: "crewai", DisplayName: "CrewAI", Category: "framework", Description: "AI agent collaboration platform", IsFeatured: true},
	{Name: "langgraph", DisplayName: "LangGraph", Category: "framework", Description: "Agent workflow orchestration", IsFeatured: true},
	{Name: "transformers", DisplayName: "Transformers", Category: "framework", Description: "HuggingFace model library", IsFeatured: true},
	{Name: "framework", DisplayName: "Framework", Category: "framework", Description: "High-profile AI framework"},

	// Applications
	{Name: "code-generation", DisplayName: "Code Generation", Category: "application", Description: "AI code generation tools"},
	{Name: "chatbot", DisplayName: "Chatbot", Category: "application", Description: "Dialogue systems and chatbots"},
	{Name: "rag", DisplayName: "RAG", Category: "application", Description: "Retrieval-augmented generation"},
	{Name: "agent-tools", DisplayName: "Agent Tools", Category: "application", Description: "Tooling for AI agents"},
	{Name: "content-generation", DisplayName: "Content Generation", Category: "application", Description: "AI content creation tools"},
	{Name: "data-analysis", DisplayName: "Data Analysis", Category: "application", Description: "AI data analysis tools"},

	// Technologies
	{Name: "openai-api", DisplayName: "OpenAI API", Category: "technology", Description: "OpenAI API integrations"},
	{Name: "huggingface", DisplayName: "HuggingFace", Category: "technology", Description: "HF models and tooling"},
	{Name: "vector-database", DisplayName: "Vector Database", Category: "technology", Description: "Vector storage and retrieval"},
	{Name: "fine-tuning", DisplayName: "Fine-tuning", Category: "technology", Description: "LLM fine-tuning"},
	{Name: "prompt-engineering", DisplayName: "Prompt Engineering", Category: "technology", Description: "Prompt optimization"},
	{Name: "llm", DisplayName: "LLM", Category: "technology", Description: "Large language models"},
	{Name: "ai", DisplayName: "AI", Category: "technology", Description: "General artificial intelligence"},
	{Name: "ml", DisplayName: "ML", Category: "technology", Description: "Machine learning"},
	{Name: "dl", DisplayName: "Deep Learning", Category: "technology", Description: "Deep learning"},
	{Name: "neural", DisplayName: "Neural Networks", Category: "technology", Description: "Neural network research"},
	{Name: "anthropic", DisplayName: "Anthropic", Category: "technology", Description: "Claude API integrations"},
}

// seedSources is the built-in source registry
var seedSources = []models.Source{
	{Name: "github", Type: "repository", Enabled: true},
}

// Seed inserts the tag catalog and built-in sources if missing.
// Safe to run on every startup.
func (r *Repository) Seed(ctx context.Context) error {
	for _, tag := range tagCatalog {
		var existing models.Tag
		err := r.db.WithContext(ctx).Where("name = ?", tag.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
			return fmt.Errorf("failed to seed tag %s: %w", tag.Name, err)
		}
	}

	for _, src := range seedSources {
		var existing models.Source
		err := r.db.WithContext(ctx).Where("name = ?", src.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err := r.db.WithContext(ctx).Create(&src).Error; err != nil {
			return fmt.Errorf("failed to seed source %s: %w", src.Name, err)
		}
	}

	return nil
}
