package model

import "time"

// IntentKind classifies what one input event asks for.
type IntentKind string

const (
	KindCommand   IntentKind = "command"
	KindDictation IntentKind = "dictation"
	KindQuestion  IntentKind = "question"
	KindControl   IntentKind = "control"
	KindUnknown   IntentKind = "unknown"
)

// ConfidenceSource names the parser layer that produced an Intent.
// It is set by the layer that matched, never inferred afterwards.
type ConfidenceSource string

const (
	SourceKeyword ConfidenceSource = "keyword"
	SourcePattern ConfidenceSource = "pattern"
	SourceContext ConfidenceSource = "context"
)

// Mode is the assistant's current interaction state. Exactly one is
// active at any time; owned exclusively by the mode state machine.
type Mode string

const (
	ModeListening Mode = "listening"
	ModeCommand   Mode = "command"
	ModeDictation Mode = "dictation"
	ModeQuestion  Mode = "question"
	ModeDisabled  Mode = "disabled"
)

// ParseMode maps a string to a Mode. Fail-closed: unknown → Disabled.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeListening, ModeCommand, ModeDictation, ModeQuestion, ModeDisabled:
		return Mode(s)
	default:
		return ModeDisabled
	}
}

// Entity is one extracted named value with per-entity confidence.
type Entity struct {
	Label      string  `json:"label"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Intent is the parsed meaning of one input event.
//
// Invariants: Confidence ∈ [0,1]; RiskLevel ∈ [0,9];
// Kind == KindUnknown ⇒ Action is empty.
type Intent struct {
	Kind                 IntentKind       `json:"kind"`
	Action               string           `json:"action,omitempty"`
	Target               string           `json:"target,omitempty"`
	Entities             []Entity         `json:"entities,omitempty"`
	Confidence           float64          `json:"confidence"`
	Source               ConfidenceSource `json:"confidence_source"`
	RiskLevel            int              `json:"risk_level"`
	RequiresConfirmation bool             `json:"requires_confirmation"`
	RawText              string           `json:"raw_text"`

	// InferredFrom records memory-based target inference provenance
	// ("last_target", "target_stack"), empty when the target came from
	// the input text itself.
	InferredFrom string `json:"inferred_from,omitempty"`
}

// Valid reports whether the intent satisfies its structural invariants.
func (i Intent) Valid() bool {
	if i.Confidence < 0 || i.Confidence > 1 {
		return false
	}
	if i.RiskLevel < 0 || i.RiskLevel > 9 {
		return false
	}
	if i.Kind == KindUnknown && i.Action != "" {
		return false
	}
	return true
}

// SafetyVerdict is the output of policy evaluation. Never mutated
// after creation.
type SafetyVerdict struct {
	Allowed              bool   `json:"allowed"`
	Reason               string `json:"reason,omitempty"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	RiskLevel            int    `json:"risk_level"`
	PolicyID             string `json:"policy_id,omitempty"`
}

// DecisionStatus is the terminal outcome of one fusion cycle.
type DecisionStatus string

const (
	StatusApproved              DecisionStatus = "approved"
	StatusBlocked               DecisionStatus = "blocked"
	StatusNeedsConfirmation     DecisionStatus = "needs_confirmation"
	StatusAwaitingClarification DecisionStatus = "awaiting_clarification"
	StatusRejected              DecisionStatus = "rejected"
)

// ParseStatus maps a string to a DecisionStatus. Fail-closed:
// unknown → Rejected.
func ParseStatus(s string) DecisionStatus {
	switch DecisionStatus(s) {
	case StatusApproved, StatusBlocked, StatusNeedsConfirmation,
		StatusAwaitingClarification, StatusRejected:
		return DecisionStatus(s)
	default:
		return StatusRejected
	}
}

// StageLatency carries per-stage timings for one fusion cycle.
// Informational only; never affects the decision.
type StageLatency struct {
	Parse  time.Duration `json:"parse_ns"`
	Policy time.Duration `json:"policy_ns"`
	Total  time.Duration `json:"total_ns"`
}

// Decision is the single terminal output of one fusion cycle.
// Exactly one Decision is produced per input event.
type Decision struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id"`
	Status    DecisionStatus `json:"status"`
	Intent    *Intent        `json:"intent,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Prompt    string         `json:"prompt,omitempty"`
	Mode      Mode           `json:"mode"`
	Timestamp time.Time      `json:"timestamp"`
	Latency   StageLatency   `json:"latency"`
}

// Open reports whether the decision is awaiting a confirmation reply.
// At most one open decision exists per session at any time.
func (d Decision) Open() bool {
	return d.Status == StatusNeedsConfirmation
}

// PendingAction is an intent awaiting a yes/no reply.
type PendingAction struct {
	DecisionID string    `json:"decision_id"`
	Intent     Intent    `json:"intent"`
	CreatedAt  time.Time `json:"created_at"`
	Prompts    int       `json:"prompts"`
}
