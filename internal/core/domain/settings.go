package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHuggingFace is the Hugging Face inference API.
	AIProviderHuggingFace AIProvider = "huggingface"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHuggingFace, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderHuggingFace || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHuggingFace:
		return "Hugging Face (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (Hugging Face, OpenAI).
	APIKey string

	// Timeout bounds each HTTP exchange. Zero uses the provider default.
	Timeout time.Duration
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey is the API key (Hugging Face, OpenAI, Anthropic).
	APIKey string

	// Timeout bounds each HTTP exchange. Zero uses the provider default.
	Timeout time.Duration
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHuggingFace,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderHuggingFace,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHuggingFace: "sentence-transformers/all-MiniLM-L6-v2",
		AIProviderOllama:      "nomic-embed-text",
		AIProviderOpenAI:      "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHuggingFace: "meta-llama/Llama-3.1-8B-Instruct",
		AIProviderOllama:      "llama3.2",
		AIProviderOpenAI:      "gpt-4o-mini",
		AIProviderAnthropic:   "claude-3-5-sonnet-latest",
	}
}

// KnownEmbeddingModels returns the built-in model catalogue.
func KnownEmbeddingModels() []EmbeddingModel {
	return []EmbeddingModel{
		{
			ID: "sentence-transformers/all-MiniLM-L6-v2", Name: "all-MiniLM-L6-v2", Dimensions: 384,
			Description: "Small, fast general-purpose sentence embeddings",
		},
		{
			ID: "sentence-transformers/all-mpnet-base-v2", Name: "all-mpnet-base-v2", Dimensions: 768,
			Description: "Higher quality general-purpose sentence embeddings",
		},
		{
			ID: "BAAI/bge-small-en-v1.5", Name: "bge-small-en-v1.5", Dimensions: 384,
			Description: "Compact English retrieval embeddings",
		},
		{
			ID: "BAAI/bge-base-en-v1.5", Name: "bge-base-en-v1.5", Dimensions: 768,
			Description: "English retrieval embeddings",
		},
		{ID: "nomic-embed-text", Name: "nomic-embed-text", Dimensions: 768, Description: "Ollama local embeddings"},
		{ID: "mxbai-embed-large", Name: "mxbai-embed-large", Dimensions: 1024, Description: "Ollama local embeddings"},
		{ID: "all-minilm", Name: "all-minilm", Dimensions: 384, Description: "Ollama local embeddings"},
		{ID: "text-embedding-3-small", Name: "text-embedding-3-small", Dimensions: 1536, Description: "OpenAI embeddings"},
		{ID: "text-embedding-3-large", Name: "text-embedding-3-large", Dimensions: 3072, Description: "OpenAI embeddings"},
		{ID: "text-embedding-ada-002", Name: "text-embedding-ada-002", Dimensions: 1536, Description: "OpenAI embeddings"},
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	models := KnownEmbeddingModels()
	dims := make(map[string]int, len(models))
	for _, m := range models {
		dims[m.ID] = m.Dimensions
	}
	return dims
}
