package domain

// ScoredDocument is a document paired with its cosine similarity to a query.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// RetrievalResult is ordered by descending score, ties in insertion order.
type RetrievalResult []ScoredDocument

// DocumentIDs returns the ids in result order.
func (r RetrievalResult) DocumentIDs() []string {
	ids := make([]string, len(r))
	for i, sd := range r {
		ids[i] = sd.Document.ID
	}
	return ids
}

// GeneratedAnswer is the outcome of a retrieval-augmented query.
type GeneratedAnswer struct {
	// Text is the model's answer.
	Text string

	// GroundedOn lists the ids of the documents placed in the prompt.
	GroundedOn []string

	// NoContext is set when nothing was retrieved and the model answered
	// without supporting documents.
	NoContext bool

	// Capability is the prompt variant chosen for the query.
	Capability CapabilityKind

	// Sources holds the retrieved documents with their scores.
	Sources RetrievalResult
}

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a chat completion request.
type ChatMessage struct {
	Role    Role
	Content string
}

// Default generation temperatures. Grounded answers run cooler than free chat.
const (
	DefaultChatTemperature      = 0.7
	DefaultRetrievalTemperature = 0.2
	DefaultMaxTokens            = 1024
)

// GenerationOptions tunes a chat completion.
type GenerationOptions struct {
	// Model overrides the provider's configured model.
	Model string

	// Temperature is the sampling temperature. Nil uses the caller's default.
	Temperature *float64

	// MaxTokens caps the reply length. Zero uses DefaultMaxTokens.
	MaxTokens int
}

// TemperatureOr returns the configured temperature or def.
func (o GenerationOptions) TemperatureOr(def float64) float64 {
	if o.Temperature == nil {
		return def
	}
	return *o.Temperature
}

// MaxTokensOrDefault returns MaxTokens or DefaultMaxTokens.
func (o GenerationOptions) MaxTokensOrDefault() int {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

// Float64 returns a pointer to v, for optional option fields.
func Float64(v float64) *float64 {
	return &v
}

// IndexStats summarises the state of the index.
type IndexStats struct {
	Documents   int
	Vectors     int
	ActiveModel EmbeddingModel
}
