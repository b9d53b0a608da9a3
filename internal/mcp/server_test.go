package mcp

import (
	"context"
	"path/filepath"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	// Nonexistent paths fall back to built-in defaults.
	dir := t.TempDir()
	s, err := New(Config{
		PolicyPath: filepath.Join(dir, "policy.yaml"),
		VocabPath:  filepath.Join(dir, "vocab.yaml"),
	})
	if err != nil {
		t.Fatalf("failed to create MCP server: %v", err)
	}
	return s
}

func TestSubmitApproved(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "open chrome"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success result")
	}
	if out.Status != "approved" || out.Action != "open" || out.Target != "chrome" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Category != "execution" {
		t.Errorf("expected execution category, got %q", out.Category)
	}
	if out.DecisionID == "" {
		t.Error("decision id missing")
	}
}

func TestSubmitBlockedIsError(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "delete all files"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("blocked decisions must surface as IsError")
	}
	if out.Status != "blocked" || out.Risk != 9 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestSubmitConfirmationRoundTrip(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "delete report.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != "needs_confirmation" || out.Prompt == "" {
		t.Fatalf("unexpected output: %+v", out)
	}

	_, out, err = s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "yes"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != "approved" || out.Action != "delete" {
		t.Fatalf("unexpected output after yes: %+v", out)
	}
}

func TestResultFeedsMemory(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, submitted, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "open chrome"})
	if err != nil {
		t.Fatal(err)
	}

	result, out, err := s.handleResult(ctx, &mcpsdk.CallToolRequest{}, ResultInput{
		DecisionID: submitted.DecisionID,
		Success:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected result to be recorded")
	}
	if !out.Recorded {
		t.Fatal("expected recorded=true")
	}

	_, status, err := s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatal(err)
	}
	if status.LastTarget != "chrome" || status.StackDepth != 1 {
		t.Errorf("memory not updated: %+v", status)
	}
}

func TestResultUnknownDecision(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	result, out, err := s.handleResult(ctx, &mcpsdk.CallToolRequest{}, ResultInput{DecisionID: "nope", Success: true})
	if err != nil {
		t.Fatal(err)
	}
	if result == nil || !result.IsError {
		t.Fatal("unknown decision must be an error result")
	}
	if out.Recorded {
		t.Fatal("expected recorded=false")
	}
}

func TestCheckDryRun(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, out, err := s.handleCheck(ctx, &mcpsdk.CallToolRequest{}, CheckInput{Action: "shutdown"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Allowed {
		t.Fatalf("shutdown must not be allowed: %+v", out)
	}
	if out.Risk != 8 {
		t.Errorf("expected risk 8, got %d", out.Risk)
	}

	// Dry-run must not create session state.
	_, status, err := s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatal(err)
	}
	if status.Decisions != 0 {
		t.Errorf("check must not count as a decision: %+v", status)
	}
}

func TestStatusReportsMode(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	if _, _, err := s.handleSubmit(ctx, &mcpsdk.CallToolRequest{}, SubmitInput{Text: "go to sleep"}); err != nil {
		t.Fatal(err)
	}

	_, status, err := s.handleStatus(ctx, &mcpsdk.CallToolRequest{}, StatusInput{})
	if err != nil {
		t.Fatal(err)
	}
	if status.Mode != "disabled" {
		t.Errorf("expected disabled, got %q", status.Mode)
	}
	if status.SessionID == "" {
		t.Error("session id missing")
	}
}
