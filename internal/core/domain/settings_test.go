package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range AllLLMProviders() {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("cohere").IsValid())
	assert.False(t, AIProvider("").IsValid())
}

func TestAIProvider_Properties(t *testing.T) {
	tests := []struct {
		provider AIProvider
		apiKey   bool
		local    bool
		desc     string
	}{
		{AIProviderHuggingFace, true, false, "Hugging Face (cloud)"},
		{AIProviderOllama, false, true, "Ollama (local)"},
		{AIProviderOpenAI, true, false, "OpenAI (cloud)"},
		{AIProviderAnthropic, true, false, "Anthropic (cloud)"},
		{AIProvider("x"), false, false, "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.provider.String(), func(t *testing.T) {
			assert.Equal(t, tt.apiKey, tt.provider.RequiresAPIKey())
			assert.Equal(t, tt.local, tt.provider.IsLocal())
			assert.Equal(t, tt.desc, tt.provider.Description())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings EmbeddingSettings
		expected bool
	}{
		{"empty", EmbeddingSettings{}, false},
		{"ollama without key", EmbeddingSettings{Provider: AIProviderOllama}, true},
		{"huggingface without key", EmbeddingSettings{Provider: AIProviderHuggingFace}, false},
		{"huggingface with key", EmbeddingSettings{Provider: AIProviderHuggingFace, APIKey: "hf_x"}, true},
		{"anthropic has no embeddings", EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestLLMSettings_IsConfigured(t *testing.T) {
	assert.False(t, LLMSettings{}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, LLMSettings{Provider: AIProviderAnthropic}.IsConfigured())
	assert.True(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestDefaultModels(t *testing.T) {
	for _, p := range AllEmbeddingProviders() {
		assert.NotEmpty(t, DefaultEmbeddingModels()[p], p)
	}
	for _, p := range AllLLMProviders() {
		assert.NotEmpty(t, DefaultLLMModels()[p], p)
	}
}

func TestKnownEmbeddingModels(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 384, dims["sentence-transformers/all-MiniLM-L6-v2"])
	assert.Equal(t, 768, dims["nomic-embed-text"])
	assert.Equal(t, 1536, dims["text-embedding-3-small"])

	for _, m := range KnownEmbeddingModels() {
		assert.NotEmpty(t, m.ID)
		assert.Positive(t, m.Dimensions, m.ID)
	}
	// Every provider default must be in the catalogue.
	for _, id := range DefaultEmbeddingModels() {
		assert.Contains(t, dims, id)
	}
}
