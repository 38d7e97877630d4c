package driven

// Prompt names.
const (
	PromptGroundedSystem  = "grounded_system"
	PromptNoContextSystem = "no_context_system"
)

// PromptStore loads user-editable prompt templates.
type PromptStore interface {
	// Load returns the prompt with the given name.
	Load(name string) (string, error)
}
