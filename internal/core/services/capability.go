package services

import (
	"strings"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
)

// Capability is a prompt variant selected by inspecting the query.
type Capability struct {
	Kind domain.CapabilityKind

	// Trigger reports whether the capability applies to the query.
	Trigger func(query string) bool

	// Instruction is appended to the system prompt when selected.
	Instruction string
}

// CapabilityRouter picks the first capability whose trigger matches, in a
// fixed priority order. Answer is the fallback.
type CapabilityRouter struct {
	capabilities []Capability
}

// NewCapabilityRouter creates a router. With no arguments it uses DefaultCapabilities.
func NewCapabilityRouter(capabilities ...Capability) *CapabilityRouter {
	if len(capabilities) == 0 {
		capabilities = DefaultCapabilities()
	}
	return &CapabilityRouter{capabilities: capabilities}
}

// Select returns the capability for query.
func (r *CapabilityRouter) Select(query string) Capability {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range r.capabilities {
		if c.Trigger == nil || c.Trigger(q) {
			return c
		}
	}
	return answerCapability()
}

// DefaultCapabilities returns summarize, compare, define and answer, in that order.
func DefaultCapabilities() []Capability {
	return []Capability{
		{
			Kind:        domain.CapabilitySummarize,
			Trigger:     hasAnyPrefix("summarize", "summarise", "summary of", "tl;dr", "give me a summary"),
			Instruction: "Summarise the relevant context as a short list of key points.",
		},
		{
			Kind: domain.CapabilityCompare,
			Trigger: func(q string) bool {
				return strings.HasPrefix(q, "compare") ||
					strings.Contains(q, " vs ") ||
					strings.Contains(q, " versus ") ||
					strings.Contains(q, "difference between")
			},
			Instruction: "Compare the items asked about point by point, noting similarities and differences.",
		},
		{
			Kind:        domain.CapabilityDefine,
			Trigger:     hasAnyPrefix("define ", "definition of", "meaning of"),
			Instruction: "Give a concise definition in one or two sentences.",
		},
		answerCapability(),
	}
}

func answerCapability() Capability {
	return Capability{
		Kind:    domain.CapabilityAnswer,
		Trigger: func(string) bool { return true },
	}
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(q string) bool {
		for _, p := range prefixes {
			if strings.HasPrefix(q, p) {
				return true
			}
		}
		return false
	}
}
