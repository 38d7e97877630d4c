package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/resilience"
)

// GenerationClient requests chat completions, retrying transient failures.
// Credential and content-policy rejections are client errors and are never retried.
type GenerationClient struct {
	provider driven.ChatProvider
	exec     *resilience.Executor
	policy   resilience.Policy
}

// NewGenerationClient creates a generation client.
func NewGenerationClient(provider driven.ChatProvider, exec *resilience.Executor, policy resilience.Policy) *GenerationClient {
	return &GenerationClient{provider: provider, exec: exec, policy: policy}
}

// Generate returns the assistant reply. Unset options fall back to the chat
// defaults. An empty reply is a protocol error.
func (g *GenerationClient) Generate(
	ctx context.Context, messages []domain.ChatMessage, opts domain.GenerationOptions,
) (string, error) {
	if g.provider == nil {
		return "", domain.ErrLLMUnavailable
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", domain.ErrInvalidInput)
	}
	if opts.Temperature == nil {
		opts.Temperature = domain.Float64(domain.DefaultChatTemperature)
	}
	opts.MaxTokens = opts.MaxTokensOrDefault()

	return resilience.Execute(ctx, g.exec, "generate", g.policy, func(ctx context.Context) (string, error) {
		reply, err := g.provider.Chat(ctx, messages, opts)
		if err != nil {
			return "", err
		}
		reply = strings.TrimSpace(reply)
		if reply == "" {
			return "", resilience.Protocolf("%s returned an empty completion", g.provider.ModelName())
		}
		return reply, nil
	})
}

// ModelName returns the generation model, or "" when unconfigured.
func (g *GenerationClient) ModelName() string {
	if g.provider == nil {
		return ""
	}
	return g.provider.ModelName()
}
