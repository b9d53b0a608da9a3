package audit

import (
	"github.com/dkoval/voxgate/internal/model"
)

// Entry is one line in the hash-chained JSONL decision log.
// All fields are flat scalars (no map[string]any) to guarantee
// deterministic json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string  `json:"ts"`
	SessionID  string  `json:"session_id"`
	DecisionID string  `json:"decision_id"`
	RawText    string  `json:"raw_text"`
	Kind       string  `json:"kind"`
	Action     string  `json:"action,omitempty"`
	Target     string  `json:"target,omitempty"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Risk       int     `json:"risk"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
	Mode       string  `json:"mode"`
	PolicyHash string  `json:"policy_hash"`
	LatencyMS  float64 `json:"latency_ms"`
	PrevHash   string  `json:"prev_hash"`
}

// FromDecision flattens a fusion decision into an audit entry.
// PrevHash is filled in by Log.Record.
func FromDecision(d model.Decision, policyHash string) Entry {
	e := Entry{
		SessionID:  d.SessionID,
		DecisionID: d.ID,
		Status:     string(d.Status),
		Reason:     d.Reason,
		Mode:       string(d.Mode),
		PolicyHash: policyHash,
		LatencyMS:  float64(d.Latency.Total.Microseconds()) / 1000,
	}
	if !d.Timestamp.IsZero() {
		e.Timestamp = d.Timestamp.UTC().Format(TimestampFormat)
	}
	if d.Intent != nil {
		e.RawText = d.Intent.RawText
		e.Kind = string(d.Intent.Kind)
		e.Action = d.Intent.Action
		e.Target = d.Intent.Target
		e.Risk = d.Intent.RiskLevel
		e.Confidence = d.Intent.Confidence
		e.Source = string(d.Intent.Source)
	}
	return e
}
