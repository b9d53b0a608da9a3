package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkoval/voxgate/internal/fusion"
	"github.com/dkoval/voxgate/internal/intent"
	"github.com/dkoval/voxgate/internal/model"
	"github.com/dkoval/voxgate/internal/safety"
)

// Run plays a scripted conversation through a fresh session and checks
// every step's assertions. Steps share the session: mode changes and
// reference memory carry forward, which is the point of scripting.
func Run(s *Scenario, cfg *safety.Config, vocab *intent.Vocabulary) *RunResult {
	session := fusion.NewSession(fusion.Options{
		Config:     cfg,
		Vocabulary: vocab,
	})

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Steps),
	}

	for i, step := range s.Steps {
		d := session.Process(step.Say)

		sr := StepResult{
			Index:    i + 1,
			Say:      step.Say,
			Expected: strings.ToLower(step.Expect),
			Actual:   string(d.Status),
			Reason:   d.Reason,
		}

		sr.Passed, sr.Detail = check(step, d, session)
		if sr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Steps = append(result.Steps, sr)

		// Scripted conversations assume the host executed approved
		// actions unless the step says otherwise.
		if d.Status == model.StatusApproved && (step.Execute == nil || *step.Execute) {
			session.ExecutionResult(d.ID, true)
		}
	}

	return result
}

func check(step Step, d model.Decision, session *fusion.Session) (bool, string) {
	if step.Expect != "" && string(d.Status) != strings.ToLower(step.Expect) {
		return false, fmt.Sprintf("status %s, want %s", d.Status, strings.ToLower(step.Expect))
	}
	if step.Action != "" {
		if d.Intent == nil || d.Intent.Action != step.Action {
			got := "<none>"
			if d.Intent != nil {
				got = d.Intent.Action
			}
			return false, fmt.Sprintf("action %s, want %s", got, step.Action)
		}
	}
	if step.Target != "" {
		if d.Intent == nil || d.Intent.Target != step.Target {
			got := "<none>"
			if d.Intent != nil {
				got = d.Intent.Target
			}
			return false, fmt.Sprintf("target %q, want %q", got, step.Target)
		}
	}
	if step.Mode != "" && session.Mode() != model.ParseMode(step.Mode) {
		return false, fmt.Sprintf("mode %s, want %s", session.Mode(), step.Mode)
	}
	return true, ""
}

// LoadAndRun loads a scenario YAML file plus policy and vocabulary, and
// runs it.
func LoadAndRun(path, policyPath, vocabPath string) (*RunResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	cfg, err := safety.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	vocab, err := intent.LoadVocabulary(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	result := Run(&s, cfg, vocab)
	result.File = path

	return result, nil
}
