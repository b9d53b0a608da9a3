package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllStepsPass(t *testing.T) {
	s := &Scenario{
		Name: "basic approval",
		Steps: []Step{
			{Say: "open chrome", Expect: "approved", Action: "open", Target: "chrome"},
			{Say: "close it", Expect: "approved", Action: "close", Target: "chrome"},
		},
	}

	result := Run(s, nil, nil)
	if result.Failed != 0 {
		t.Errorf("expected 0 failures, got %d: %+v", result.Failed, result.Steps)
	}
	if result.Passed != 2 {
		t.Errorf("expected 2 passed, got %d", result.Passed)
	}
}

func TestFailedAssertionDetected(t *testing.T) {
	s := &Scenario{
		Name: "wrong expectation",
		Steps: []Step{
			{Say: "delete all files", Expect: "approved"},
		},
	}

	result := Run(s, nil, nil)
	if result.Failed != 1 {
		t.Errorf("expected 1 failure, got %d", result.Failed)
	}
	if !strings.Contains(result.Steps[0].Detail, "blocked") {
		t.Errorf("detail must name the actual status: %q", result.Steps[0].Detail)
	}
}

func TestStepsShareSession(t *testing.T) {
	no := false
	s := &Scenario{
		Name: "memory carries forward",
		Steps: []Step{
			{Say: "open chrome", Expect: "approved", Execute: &no},
			// Not executed, so "it" has nothing to point at.
			{Say: "close it", Expect: "awaiting_clarification"},
		},
	}

	result := Run(s, nil, nil)
	if result.Failed != 0 {
		t.Errorf("expected all steps to pass, got %+v", result.Steps)
	}
}

func TestConfirmationScript(t *testing.T) {
	s := &Scenario{
		Name: "confirm and cancel",
		Steps: []Step{
			{Say: "delete report.txt", Expect: "needs_confirmation"},
			{Say: "no", Expect: "rejected"},
			{Say: "delete report.txt", Expect: "needs_confirmation"},
			{Say: "yes", Expect: "approved", Action: "delete"},
		},
	}

	result := Run(s, nil, nil)
	if result.Failed != 0 {
		t.Errorf("expected all steps to pass, got %+v", result.Steps)
	}
}

func TestModeAssertion(t *testing.T) {
	s := &Scenario{
		Name: "dictation round trip",
		Steps: []Step{
			{Say: "enter dictation", Expect: "approved", Mode: "dictation"},
			{Say: "hello world", Expect: "approved", Action: "type"},
			{Say: "exit dictation", Expect: "approved", Mode: "listening"},
		},
	}

	result := Run(s, nil, nil)
	if result.Failed != 0 {
		t.Errorf("expected all steps to pass, got %+v", result.Steps)
	}
}

func TestLoadAndRun(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "smoke.yaml", `name: smoke
steps:
  - say: open chrome
    expect: approved
  - say: delete all files
    expect: blocked
`)

	result, err := LoadAndRun(path, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		t.Errorf("expected all steps to pass, got %+v", result.Steps)
	}
	if result.File != path {
		t.Errorf("file not recorded: %q", result.File)
	}
}

func TestLoadAndRunBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "bad.yaml", "steps: [not a step")

	if _, err := LoadAndRun(path, "", ""); err == nil {
		t.Fatal("invalid YAML must error")
	}
}

func TestFormatText(t *testing.T) {
	s := &Scenario{
		Name: "mixed",
		Steps: []Step{
			{Say: "open chrome", Expect: "approved"},
			{Say: "delete all files", Expect: "approved"},
		},
	}

	out := FormatText([]*RunResult{Run(s, nil, nil)})
	if !strings.Contains(out, "FAIL  mixed (1/2)") {
		t.Errorf("unexpected render:\n%s", out)
	}
	if !strings.Contains(out, "1 of 2 steps passed") {
		t.Errorf("missing totals:\n%s", out)
	}
}
