package classify

import "regexp"

// KeywordEntry describes one keyword's contribution: its weight on a
// 1-10 scale, the tags it emits and the category those tags imply.
type KeywordEntry struct {
	Weight   int
	Tags     []string
	Category string
}

// Keywords maps a lowercase keyword to its entry. The table is built
// once and shared read-only; the classifier never mutates it.
type Keywords map[string]KeywordEntry

// DefaultKeywords returns the built-in AI/LLM keyword table.
// Weights are empirically tuned; treat them as tunable parameters.
func DefaultKeywords() Keywords {
	return Keywords{
		// Framework keywords
		"langchain":    {Weight: 10, Tags: []string{"langchain"}, Category: "framework"},
		"llamaindex":   {Weight: 10, Tags: []string{"llamaindex"}, Category: "framework"},
		"autogen":      {Weight: 10, Tags: []string{"autogen"}, Category: "framework"},
		"crewai":       {Weight: 10, Tags: []string{"crewai"}, Category: "framework"},
		"langgraph":    {Weight: 10, Tags: []string{"langgraph"}, Category: "framework"},
		"transformers": {Weight: 9, Tags: []string{"transformers"}, Category: "framework"},

		// Application keywords
		"chatbot":            {Weight: 8, Tags: []string{"chatbot"}, Category: "application"},
		"chat-bot":           {Weight: 8, Tags: []string{"chatbot"}, Category: "application"},
		"code-generation":    {Weight: 9, Tags: []string{"code-generation"}, Category: "application"},
		"code-generator":     {Weight: 9, Tags: []string{"code-generation"}, Category: "application"},
		"rag":                {Weight: 9, Tags: []string{"rag"}, Category: "application"},
		"retrieval-augmented": {Weight: 9, Tags: []string{"rag"}, Category: "application"},
		"agent-tools":        {Weight: 8, Tags: []string{"agent-tools"}, Category: "application"},
		"ai-agent":           {Weight: 9, Tags: []string{"agent-tools"}, Category: "application"},
		"content-generation": {Weight: 7, Tags: []string{"content-generation"}, Category: "application"},
		"data-analysis":      {Weight: 7, Tags: []string{"data-analysis"}, Category: "application"},

		// Technology keywords
		"openai":             {Weight: 8, Tags: []string{"openai-api"}, Category: "technology"},
		"openai-api":         {Weight: 9, Tags: []string{"openai-api"}, Category: "technology"},
		"huggingface":        {Weight: 8, Tags: []string{"huggingface"}, Category: "technology"},
		"hugging-face":       {Weight: 8, Tags: []string{"huggingface"}, Category: "technology"},
		"vector-database":    {Weight: 8, Tags: []string{"vector-database"}, Category: "technology"},
		"vector-db":          {Weight: 8, Tags: []string{"vector-database"}, Category: "technology"},
		"fine-tuning":        {Weight: 8, Tags: []string{"fine-tuning"}, Category: "technology"},
		"finetune":           {Weight: 8, Tags: []string{"fine-tuning"}, Category: "technology"},
		"prompt-engineering": {Weight: 7, Tags: []string{"prompt-engineering"}, Category: "technology"},
		"prompt-optimizer":   {Weight: 7, Tags: []string{"prompt-engineering"}, Category: "technology"},

		// General AI keywords
		"llm":                     {Weight: 9, Tags: []string{"llm"}, Category: "technology"},
		"large-language-model":    {Weight: 9, Tags: []string{"llm"}, Category: "technology"},
		"artificial-intelligence": {Weight: 6, Tags: []string{"ai"}, Category: "technology"},
		"machine-learning":        {Weight: 5, Tags: []string{"ml"}, Category: "technology"},
		"deep-learning":           {Weight: 5, Tags: []string{"dl"}, Category: "technology"},
		"neural-network":          {Weight: 5, Tags: []string{"neural"}, Category: "technology"},
		"gpt":                     {Weight: 7, Tags: []string{"openai-api"}, Category: "technology"},
		"claude":                  {Weight: 7, Tags: []string{"anthropic"}, Category: "technology"},
		"anthropic":               {Weight: 7, Tags: []string{"anthropic"}, Category: "technology"},
	}
}

// categoryByTag resolves a tag name to its primary classification bucket
var categoryByTag = map[string]string{
	"langchain":          "framework",
	"llamaindex":         "framework",
	"autogen":            "framework",
	"crewai":             "framework",
	"langgraph":          "framework",
	"transformers":       "framework",
	"chatbot":            "application",
	"code-generation":    "application",
	"rag":                "application",
	"agent-tools":        "application",
	"content-generation": "application",
	"data-analysis":      "application",
	"openai-api":         "technology",
	"huggingface":        "technology",
	"vector-database":    "technology",
	"fine-tuning":        "technology",
	"prompt-engineering": "technology",
}

// semanticPattern describes a phrase pattern that suggests a tag even
// when no table keyword matches literally
type semanticPattern struct {
	pattern    *regexp.Regexp
	tag        string
	confidence float64
}

var semanticPatterns = []semanticPattern{
	{regexp.MustCompile(`(?i)(conversational|dialogue|chat|talk)`), "chatbot", 0.6},
	{regexp.MustCompile(`(?i)(generate|creation|synthesis|produce)`), "content-generation", 0.5},
	{regexp.MustCompile(`(?i)(analysis|analyze|insight|examine)`), "data-analysis", 0.5},
	{regexp.MustCompile(`(?i)(assistant|helper|tool|utility)`), "agent-tools", 0.4},
	{regexp.MustCompile(`(?i)(embedding|vector|similarity|search)`), "vector-database", 0.6},
	{regexp.MustCompile(`(?i)(training|train|finetune|adapt)`), "fine-tuning", 0.6},
}

// highValueFrameworks are names whose presence on a popular item marks
// it as an important framework in the feature pass
var highValueFrameworks = []string{"langchain", "llamaindex", "transformers"}
