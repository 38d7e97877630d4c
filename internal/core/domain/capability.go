package domain

// CapabilityKind names a prompt variant chosen from the shape of a query.
type CapabilityKind string

// Capabilities, in the order they are tried. Answer always matches.
const (
	CapabilitySummarize CapabilityKind = "summarize"
	CapabilityCompare   CapabilityKind = "compare"
	CapabilityDefine    CapabilityKind = "define"
	CapabilityAnswer    CapabilityKind = "answer"
)

// IsValid returns true if the capability is recognised.
func (c CapabilityKind) IsValid() bool {
	switch c {
	case CapabilitySummarize, CapabilityCompare, CapabilityDefine, CapabilityAnswer:
		return true
	default:
		return false
	}
}

// AllCapabilities returns the capabilities in priority order.
func AllCapabilities() []CapabilityKind {
	return []CapabilityKind{
		CapabilitySummarize,
		CapabilityCompare,
		CapabilityDefine,
		CapabilityAnswer,
	}
}
