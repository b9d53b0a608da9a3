package scenario

// Step is one utterance in a scripted conversation, with assertions on
// the resulting decision. Steps run in order against a single session,
// so earlier steps shape mode and memory for later ones.
type Step struct {
	Say    string `yaml:"say"`
	Expect string `yaml:"expect"`           // decision status
	Action string `yaml:"action,omitempty"` // optional intent assertions
	Target string `yaml:"target,omitempty"`
	Mode   string `yaml:"mode,omitempty"` // expected mode after the step
	Note   string `yaml:"note,omitempty"`

	// Execute controls whether an approved step reports a successful
	// execution result before the next step. Defaults to true: scripted
	// conversations assume the host did what it was told.
	Execute *bool `yaml:"execute,omitempty"`
}

// Scenario is one scripted conversation.
type Scenario struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Say      string `json:"say"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Detail   string `json:"detail,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of running one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Steps  []StepResult `json:"steps"`
}
