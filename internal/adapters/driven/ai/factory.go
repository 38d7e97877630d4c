// Package ai provides factory functions for creating AI provider adapters.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	hfembed "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/embedding/huggingface"
	ollamaembed "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/llm/ollama"
	openaillm "github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/llm/openai"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// errNoEmbeddings is returned for providers without an embedding endpoint.
var errNoEmbeddings = errors.New("anthropic does not support embeddings, use huggingface, ollama or openai")

// Providers holds the AI adapters built from settings.
type Providers struct {
	Embedding driven.EmbeddingProvider
	Chat      driven.ChatProvider
	Warnings  []string // Non-fatal issues, such as an unreachable chat provider.
}

// Close releases all resources held by the providers.
func (p *Providers) Close() {
	if p.Embedding != nil {
		p.Embedding.Close()
	}
	if p.Chat != nil {
		p.Chat.Close()
	}
}

// Init creates both providers. An embedding failure is fatal. A chat
// failure is recorded as a warning so retrieval still works without
// generation.
func Init(embedding *domain.EmbeddingSettings, llm *domain.LLMSettings, validate bool) (*Providers, error) {
	create := CreateEmbeddingProvider
	createChat := CreateChatProvider
	if validate {
		create = CreateAndValidateEmbeddingProvider
		createChat = CreateAndValidateChatProvider
	}

	emb, err := create(embedding)
	if err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	p := &Providers{Embedding: emb}
	chat, err := createChat(llm)
	switch {
	case err != nil:
		p.Warnings = append(p.Warnings, err.Error())
	case chat == nil:
		p.Warnings = append(p.Warnings, "no LLM provider configured, answers are unavailable")
	default:
		p.Chat = chat
	}
	return p, nil
}

// CreateAndValidateEmbeddingProvider creates an embedding provider and validates connectivity.
// Returns the provider if successful, or an error with guidance.
func CreateAndValidateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	p, err := CreateEmbeddingProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [embedding] section of your config",
			domain.ErrEmbeddingUnavailable, err)
	}
	if p == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check the [embedding] section of your config",
			domain.ErrEmbeddingUnavailable, err)
	}
	return p, nil
}

// CreateAndValidateChatProvider creates a chat provider and validates connectivity.
// Returns the provider if successful, or an error with guidance.
func CreateAndValidateChatProvider(settings *domain.LLMSettings) (driven.ChatProvider, error) {
	p, err := CreateChatProvider(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Check the [generation] section of your config",
			domain.ErrLLMUnavailable, err)
	}
	if p == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Check the [generation] section of your config",
			domain.ErrLLMUnavailable, err)
	}
	return p, nil
}

// CreateEmbeddingProvider creates the embedding provider named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingProvider(settings *domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	if settings == nil {
		return nil, nil
	}
	if settings.Provider == domain.AIProviderAnthropic {
		return nil, errNoEmbeddings
	}
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHuggingFace:
		p, err := hfembed.NewEmbeddingProvider(hfembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingProvider(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		p, err := openaiembed.NewEmbeddingProvider(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: embedding provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateChatProvider creates the chat provider named by settings.
// Returns nil if the provider is not configured.
func CreateChatProvider(settings *domain.LLMSettings) (driven.ChatProvider, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderHuggingFace:
		baseURL := settings.BaseURL
		if baseURL == "" {
			baseURL = openaillm.HuggingFaceRouterURL
		}
		p, err := openaillm.NewChatProvider(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: baseURL,
			Model:   modelOrDefault(settings.Model, settings.Provider),
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.AIProviderOllama:
		return ollamallm.NewChatProvider(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		}), nil

	case domain.AIProviderOpenAI:
		p, err := openaillm.NewChatProvider(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	case domain.AIProviderAnthropic:
		p, err := anthropicllm.NewChatProvider(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: settings.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: LLM provider %s", domain.ErrUnsupportedType, settings.Provider)
	}
}

func modelOrDefault(model string, provider domain.AIProvider) string {
	if model != "" {
		return model
	}
	return domain.DefaultLLMModels()[provider]
}

