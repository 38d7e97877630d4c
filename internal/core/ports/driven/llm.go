package driven

import (
	"context"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// ChatProvider produces chat completions.
//
// Implementations include:
//   - OpenAI-compatible endpoints (OpenAI, Hugging Face router)
//   - Anthropic (Claude)
//   - Ollama (local models)
type ChatProvider interface {
	// Chat returns the assistant reply to the given conversation.
	Chat(ctx context.Context, messages []domain.ChatMessage, opts domain.GenerationOptions) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
