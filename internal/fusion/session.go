package fusion

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dkoval/voxgate/internal/audit"
	"github.com/dkoval/voxgate/internal/intent"
	"github.com/dkoval/voxgate/internal/memory"
	"github.com/dkoval/voxgate/internal/mode"
	"github.com/dkoval/voxgate/internal/model"
	"github.com/dkoval/voxgate/internal/safety"
)

// maxTrackedExecutions bounds the approved-decision table awaiting an
// execution result.
const maxTrackedExecutions = 32

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Config     *safety.Config
	PolicyHash string
	Vocabulary *intent.Vocabulary
	Audit      *audit.Log // nil disables the decision log
	Now        func() time.Time
}

// Session is the decision fusion pipeline: one input event in, exactly
// one Decision out. It owns the parser, the mode machine, the reference
// memory, and the pending-confirmation slot, and serializes every cycle
// under a single lock so concurrent callers observe a total order of
// decisions.
type Session struct {
	mu sync.Mutex

	id      string
	parser  *intent.Parser
	machine *mode.Machine
	mem     *memory.Memory
	cfg     *safety.Config
	hash    string
	log     *audit.Log
	now     func() time.Time

	// Approved decisions awaiting an execution result, insertion order.
	tracked map[string]model.Intent
	order   []string

	decisions int
}

// NewSession creates a fusion session in Listening mode.
func NewSession(opts Options) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = safety.DefaultConfig()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Session{
		id:      uuid.NewString(),
		parser:  intent.NewParser(opts.Vocabulary),
		machine: mode.NewMachine(),
		mem:     memory.New(cfg.Session.TargetStackDepth),
		cfg:     cfg,
		hash:    opts.PolicyHash,
		log:     opts.Audit,
		now:     now,
		tracked: map[string]model.Intent{},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Mode returns the current interaction mode.
func (s *Session) Mode() model.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Process runs one input event through the full pipeline and returns
// exactly one Decision. It never returns an error: failures degrade to
// rejected or clarification decisions.
func (s *Session) Process(text string) model.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.now()

	// An expired confirmation is cancelled before the new input is
	// interpreted, so a late "yes" can never approve a stale action.
	// The lapse is surfaced as this event's decision: the arriving
	// input is consumed by the rejection and the audit trail records
	// the expiry.
	timeout := time.Duration(s.cfg.Session.ConfirmTimeoutSec) * time.Second
	if s.mem.Expired(now, timeout) {
		p := s.mem.ClearPending()
		in := p.Intent
		return s.finish(model.Decision{
			Status: model.StatusRejected,
			Intent: &in,
			Reason: "timeout",
			Prompt: confirmTimeoutPrompt(p.Intent),
		}, start)
	}

	if p := s.mem.Pending(); p != nil {
		return s.finish(s.routeReply(text, p, now), start)
	}

	if strings.TrimSpace(text) == "" {
		return s.finish(model.Decision{
			Status: model.StatusAwaitingClarification,
			Reason: "empty input",
			Prompt: "I didn't catch that. Could you say it again?",
		}, start)
	}

	parseStart := time.Now()
	resolved := s.parser.ResolveReferences(text, s.mem.LastTarget())
	in := s.parser.Parse(resolved, s.machine.Current(), intent.Context{LastTarget: s.mem.LastTarget()})
	parseLatency := time.Since(parseStart)
	in.RawText = text

	if in.Kind == model.KindUnknown || in.Confidence < s.cfg.Session.ClarifyBelow {
		d := model.Decision{
			Status: model.StatusAwaitingClarification,
			Intent: &in,
			Reason: "could not understand input",
			Prompt: "I'm not sure what you meant. Could you rephrase?",
		}
		d.Latency.Parse = parseLatency
		return s.finish(d, start)
	}

	// A target that is still a pronoun had no remembered referent.
	if in.Kind != model.KindDictation && s.parser.Vocab().IsPronoun(in.Target) {
		d := model.Decision{
			Status: model.StatusAwaitingClarification,
			Intent: &in,
			Reason: "unresolved reference",
			Prompt: fmt.Sprintf("%s what?", in.Action),
		}
		d.Latency.Parse = parseLatency
		return s.finish(d, start)
	}

	if in.Kind == model.KindControl {
		d := s.applyControl(in)
		d.Latency.Parse = parseLatency
		return s.finish(d, start)
	}

	if !s.machine.CanExecute(in.Kind) {
		d := model.Decision{
			Status: model.StatusRejected,
			Intent: &in,
			Reason: fmt.Sprintf("%s intents are not allowed in %s mode", in.Kind, s.machine.Current()),
		}
		d.Latency.Parse = parseLatency
		return s.finish(d, start)
	}

	policyStart := time.Now()
	verdict := safety.Evaluate(in, s.machine.Current(), s.cfg)
	policyLatency := time.Since(policyStart)

	in.RiskLevel = verdict.RiskLevel
	in.RequiresConfirmation = verdict.RequiresConfirmation

	var d model.Decision
	switch {
	case !verdict.Allowed:
		d = model.Decision{
			Status: model.StatusBlocked,
			Intent: &in,
			Reason: verdict.Reason,
		}
	case verdict.RequiresConfirmation:
		d = model.Decision{
			ID:     uuid.NewString(),
			Status: model.StatusNeedsConfirmation,
			Intent: &in,
			Reason: verdict.Reason,
			Prompt: confirmPrompt(in),
		}
		s.mem.SetPending(d.ID, in, now)
	default:
		d = s.approve(in, verdict.Reason)
	}

	d.Latency.Parse = parseLatency
	d.Latency.Policy = policyLatency
	return s.finish(d, start)
}

// routeReply interprets input while a confirmation is pending. The
// first recognizable token decides: affirmative approves, negative
// cancels, anything else re-prompts up to the configured limit.
func (s *Session) routeReply(text string, p *model.PendingAction, now time.Time) model.Decision {
	vocab := s.parser.Vocab()

	// Empty input is a no-op: the confirmation stays pending and the
	// re-prompt budget is not consumed.
	if strings.TrimSpace(text) == "" {
		in := p.Intent
		return model.Decision{
			Status: model.StatusAwaitingClarification,
			Intent: &in,
			Reason: "empty input",
			Prompt: confirmPrompt(p.Intent),
		}
	}

	switch {
	case vocab.IsAffirmative(text):
		in := p.Intent
		s.mem.ClearPending()
		return s.approve(in, "confirmed")

	case vocab.IsNegative(text):
		in := p.Intent
		s.mem.ClearPending()
		return model.Decision{
			Status: model.StatusRejected,
			Intent: &in,
			Reason: "cancelled",
		}

	default:
		if p.Prompts >= s.cfg.Session.MaxReprompts {
			in := p.Intent
			s.mem.ClearPending()
			return model.Decision{
				Status: model.StatusRejected,
				Intent: &in,
				Reason: fmt.Sprintf("confirmation abandoned after %d re-prompts", p.Prompts),
			}
		}
		p.Prompts++
		in := p.Intent
		return model.Decision{
			ID:     p.DecisionID,
			Status: model.StatusNeedsConfirmation,
			Intent: &in,
			Reason: "reply not understood",
			Prompt: confirmPrompt(p.Intent) + " Please answer yes or no.",
		}
	}
}

// applyControl executes a control intent against the mode machine.
// Control bypasses CanExecute: it must work even while disabled.
func (s *Session) applyControl(in model.Intent) model.Decision {
	var err error
	switch in.Action {
	case "disable":
		_, err = s.machine.Request(mode.TriggerDisable)
	case "enable":
		_, err = s.machine.Request(mode.TriggerEnable)
	case "dictation_on":
		if _, err = s.machine.Request(mode.TriggerDictationRequest); err != nil {
			_, err = s.machine.Request(mode.TriggerSwitchToDictation)
		}
	case "dictation_off":
		_, err = s.machine.Request(mode.TriggerExitDictation)
	default:
		err = fmt.Errorf("unrecognized control action %q", in.Action)
	}

	if err != nil {
		return model.Decision{
			Status: model.StatusRejected,
			Intent: &in,
			Reason: err.Error(),
		}
	}
	return model.Decision{
		ID:     uuid.NewString(),
		Status: model.StatusApproved,
		Intent: &in,
	}
}

// approve produces an approved decision and tracks it until the
// execution result arrives. The mode machine is nudged best-effort:
// an already-active mode is not an error.
func (s *Session) approve(in model.Intent, reason string) model.Decision {
	d := model.Decision{
		ID:     uuid.NewString(),
		Status: model.StatusApproved,
		Intent: &in,
		Reason: reason,
	}

	switch in.Kind {
	case model.KindCommand:
		s.machine.Request(mode.TriggerCommandDetected)
	case model.KindQuestion:
		s.machine.Request(mode.TriggerQuestionDetected)
	}

	s.tracked[d.ID] = in
	s.order = append(s.order, d.ID)
	if len(s.order) > maxTrackedExecutions {
		delete(s.tracked, s.order[0])
		s.order = s.order[1:]
	}
	return d
}

// ExecutionResult reports the outcome of an approved decision. Only a
// successful result feeds the reference memory; failures leave memory
// untouched so "it" keeps pointing at the last thing that worked.
func (s *Session) ExecutionResult(decisionID string, success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in, ok := s.tracked[decisionID]
	if !ok {
		return fmt.Errorf("unknown or already-settled decision %q", decisionID)
	}
	delete(s.tracked, decisionID)
	for i, id := range s.order {
		if id == decisionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if success && in.Kind == model.KindCommand {
		s.mem.PushExecuted(in.Action, in.Target)
	}

	switch in.Kind {
	case model.KindCommand:
		s.machine.Request(mode.TriggerCommandCompleted)
	case model.KindQuestion:
		s.machine.Request(mode.TriggerQuestionAnswered)
	}
	return nil
}

// finish stamps identity, mode, and latency onto the decision, logs it,
// and counts it. Exactly one path out of Process.
func (s *Session) finish(d model.Decision, start time.Time) model.Decision {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.SessionID = s.id
	d.Mode = s.machine.Current()
	d.Timestamp = s.now()
	d.Latency.Total = time.Since(start)

	s.decisions++

	if s.log != nil {
		if err := s.log.Record(audit.FromDecision(d, s.hash)); err != nil {
			fmt.Fprintf(os.Stderr, "voxgate: audit: %v\n", err)
		}
	}
	return d
}

// UpdatePolicy swaps the safety configuration in place. Decisions in
// flight are unaffected; the next Process call sees the new tables.
func (s *Session) UpdatePolicy(cfg *safety.Config, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cfg == nil {
		cfg = safety.DefaultConfig()
	}
	s.cfg = cfg
	s.hash = hash
}

// UpdateVocabulary swaps the parser's word tables in place.
func (s *Session) UpdateVocabulary(v *intent.Vocabulary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.parser = intent.NewParser(v)
}

// Status is a read-only view of the session for status displays.
type Status struct {
	SessionID  string          `json:"session_id"`
	Mode       model.Mode      `json:"mode"`
	Memory     memory.Snapshot `json:"memory"`
	PolicyHash string          `json:"policy_hash,omitempty"`
	Decisions  int             `json:"decisions"`
	InFlight   int             `json:"in_flight"`
}

// Snapshot returns the current session status.
func (s *Session) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SessionID:  s.id,
		Mode:       s.machine.Current(),
		Memory:     s.mem.Snapshot(),
		PolicyHash: s.hash,
		Decisions:  s.decisions,
		InFlight:   len(s.tracked),
	}
}

// Transitions returns up to limit recent mode transitions, oldest first.
func (s *Session) Transitions(limit int) []mode.Transition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.History(limit)
}

func confirmPrompt(in model.Intent) string {
	if in.Target != "" {
		return fmt.Sprintf("Confirm: %s %s?", in.Action, in.Target)
	}
	return fmt.Sprintf("Confirm: %s?", in.Action)
}

func confirmTimeoutPrompt(in model.Intent) string {
	if in.Target != "" {
		return fmt.Sprintf("Confirmation timed out, %s %s was cancelled.", in.Action, in.Target)
	}
	return fmt.Sprintf("Confirmation timed out, %s was cancelled.", in.Action)
}
