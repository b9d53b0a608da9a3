package memory

import (
	"time"

	"github.com/dkoval/voxgate/internal/model"
)

// defaultStackDepth bounds the target stack.
const defaultStackDepth = 8

// TargetEntry is one executed (action, target) pair.
type TargetEntry struct {
	Action string `json:"action"`
	Target string `json:"target"`
}

// Memory is the session-scoped short-term reference store: the last
// executed action and target, a bounded most-recent-first target stack
// for back-references, and the pending confirmation slot.
//
// Memory is not goroutine-safe. The fusion session is its only writer
// and serializes access under the session lock.
type Memory struct {
	lastAction string
	lastTarget string
	stack      []TargetEntry
	pending    *model.PendingAction
	maxStack   int
}

// New creates an empty Memory with the given stack depth. Depth <= 0
// uses the default of 8.
func New(depth int) *Memory {
	if depth <= 0 {
		depth = defaultStackDepth
	}
	return &Memory{maxStack: depth}
}

// LastTarget returns the most recently executed target, or "".
func (m *Memory) LastTarget() string { return m.lastTarget }

// LastAction returns the most recently executed action, or "".
func (m *Memory) LastAction() string { return m.lastAction }

// PushExecuted records a successfully executed action. Called only
// from the execution-result callback — approval alone never touches
// the stack.
func (m *Memory) PushExecuted(action, target string) {
	m.lastAction = action
	m.lastTarget = target
	if target == "" {
		return
	}
	m.stack = append([]TargetEntry{{Action: action, Target: target}}, m.stack...)
	if len(m.stack) > m.maxStack {
		m.stack = m.stack[:m.maxStack]
	}
}

// Back returns the target one step behind the most recent one, for
// "go back" style references. Empty when history is too shallow.
func (m *Memory) Back() string {
	if len(m.stack) < 2 {
		return ""
	}
	return m.stack[1].Target
}

// Recent returns up to n stack entries, most recent first.
func (m *Memory) Recent(n int) []TargetEntry {
	if n <= 0 || n > len(m.stack) {
		n = len(m.stack)
	}
	out := make([]TargetEntry, n)
	copy(out, m.stack[:n])
	return out
}

// Pending returns the confirmation currently awaiting a reply, or nil.
func (m *Memory) Pending() *model.PendingAction { return m.pending }

// SetPending stores the single pending confirmation. Fusion guarantees
// no second confirmation is opened while one is pending.
func (m *Memory) SetPending(decisionID string, in model.Intent, now time.Time) {
	m.pending = &model.PendingAction{
		DecisionID: decisionID,
		Intent:     in,
		CreatedAt:  now,
	}
}

// ClearPending drops the pending confirmation, returning what was
// cleared (nil if none was set).
func (m *Memory) ClearPending() *model.PendingAction {
	p := m.pending
	m.pending = nil
	return p
}

// Expired reports whether the pending confirmation is older than ttl
// at the given instant.
func (m *Memory) Expired(now time.Time, ttl time.Duration) bool {
	return m.pending != nil && now.Sub(m.pending.CreatedAt) > ttl
}

// Clear wipes all session memory.
func (m *Memory) Clear() {
	m.lastAction = ""
	m.lastTarget = ""
	m.stack = nil
	m.pending = nil
}

// Snapshot is a read-only view for status displays.
type Snapshot struct {
	LastAction          string `json:"last_action,omitempty"`
	LastTarget          string `json:"last_target,omitempty"`
	StackDepth          int    `json:"stack_depth"`
	PendingConfirmation bool   `json:"pending_confirmation"`
}

// Snapshot returns the current read-only view.
func (m *Memory) Snapshot() Snapshot {
	return Snapshot{
		LastAction:          m.lastAction,
		LastTarget:          m.lastTarget,
		StackDepth:          len(m.stack),
		PendingConfirmation: m.pending != nil,
	}
}
