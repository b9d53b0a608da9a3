package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dkoval/voxgate/internal/fusion"
	"github.com/dkoval/voxgate/internal/model"
	"github.com/dkoval/voxgate/internal/safety"
)

// SubmitInput defines parameters for the voxgate_submit tool.
type SubmitInput struct {
	Text string `json:"text" jsonschema:"transcribed utterance"`
}

// SubmitOutput is the decision for one utterance.
type SubmitOutput struct {
	DecisionID string  `json:"decision_id"`
	Status     string  `json:"status"`
	Action     string  `json:"action,omitempty"`
	Target     string  `json:"target,omitempty"`
	Kind       string  `json:"kind,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Risk       int     `json:"risk"`
	Category   string  `json:"category,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Prompt     string  `json:"prompt,omitempty"`
	Mode       string  `json:"mode"`
	LatencyMS  float64 `json:"latency_ms"`
}

// ResultInput defines parameters for the voxgate_result tool.
type ResultInput struct {
	DecisionID string `json:"decision_id" jsonschema:"id of the approved decision"`
	Success    bool   `json:"success" jsonschema:"whether execution succeeded"`
}

// ResultOutput confirms the result was recorded.
type ResultOutput struct {
	DecisionID string `json:"decision_id"`
	Recorded   bool   `json:"recorded"`
	Mode       string `json:"mode"`
}

// CheckInput defines parameters for the voxgate_check tool.
type CheckInput struct {
	Action string `json:"action" jsonschema:"action to evaluate (open/close/delete/...)"`
	Target string `json:"target,omitempty" jsonschema:"action target"`
}

// CheckOutput contains the policy verdict.
type CheckOutput struct {
	Allowed              bool   `json:"allowed"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Risk                 int    `json:"risk"`
	Reason               string `json:"reason,omitempty"`
	PolicyID             string `json:"policy_id,omitempty"`
}

// StatusInput is empty, no parameters needed.
type StatusInput struct{}

// StatusOutput is the session status snapshot.
type StatusOutput struct {
	SessionID           string `json:"session_id"`
	Mode                string `json:"mode"`
	LastAction          string `json:"last_action,omitempty"`
	LastTarget          string `json:"last_target,omitempty"`
	StackDepth          int    `json:"stack_depth"`
	PendingConfirmation bool   `json:"pending_confirmation"`
	Decisions           int    `json:"decisions"`
	InFlight            int    `json:"in_flight"`
	PolicyHash          string `json:"policy_hash,omitempty"`
}

func (s *Server) handleSubmit(ctx context.Context, req *mcpsdk.CallToolRequest, input SubmitInput) (*mcpsdk.CallToolResult, SubmitOutput, error) {
	d := s.session.Process(input.Text)

	out := SubmitOutput{
		DecisionID: d.ID,
		Status:     string(d.Status),
		Reason:     d.Reason,
		Prompt:     d.Prompt,
		Mode:       string(d.Mode),
		LatencyMS:  float64(d.Latency.Total.Microseconds()) / 1000,
	}
	if d.Intent != nil {
		out.Action = d.Intent.Action
		out.Target = d.Intent.Target
		out.Kind = string(d.Intent.Kind)
		out.Confidence = d.Intent.Confidence
		out.Risk = d.Intent.RiskLevel
	}
	if d.Status == model.StatusApproved && d.Intent != nil {
		out.Category = string(fusion.Categorize(*d.Intent))
	}

	if d.Status == model.StatusBlocked {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleResult(ctx context.Context, req *mcpsdk.CallToolRequest, input ResultInput) (*mcpsdk.CallToolResult, ResultOutput, error) {
	err := s.session.ExecutionResult(input.DecisionID, input.Success)
	out := ResultOutput{
		DecisionID: input.DecisionID,
		Recorded:   err == nil,
		Mode:       string(s.session.Mode()),
	}
	if err != nil {
		return &mcpsdk.CallToolResult{IsError: true}, out, nil
	}
	return nil, out, nil
}

func (s *Server) handleCheck(ctx context.Context, req *mcpsdk.CallToolRequest, input CheckInput) (*mcpsdk.CallToolResult, CheckOutput, error) {
	in := model.Intent{
		Kind:       model.KindCommand,
		Action:     input.Action,
		Target:     input.Target,
		Confidence: 1,
		Source:     model.SourceKeyword,
		RawText:    input.Action + " " + input.Target,
	}
	v := safety.Evaluate(in, s.session.Mode(), s.cfg)

	return nil, CheckOutput{
		Allowed:              v.Allowed,
		RequiresConfirmation: v.RequiresConfirmation,
		Risk:                 v.RiskLevel,
		Reason:               v.Reason,
		PolicyID:             v.PolicyID,
	}, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st := s.session.Snapshot()
	return nil, StatusOutput{
		SessionID:           st.SessionID,
		Mode:                string(st.Mode),
		LastAction:          st.Memory.LastAction,
		LastTarget:          st.Memory.LastTarget,
		StackDepth:          st.Memory.StackDepth,
		PendingConfirmation: st.Memory.PendingConfirmation,
		Decisions:           st.Decisions,
		InFlight:            st.InFlight,
		PolicyHash:          st.PolicyHash,
	}, nil
}
