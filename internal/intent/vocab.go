package intent

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dkoval/voxgate/internal/model"
)

// KeywordGroup maps a set of trigger words to one action. Groups are
// evaluated in registration order; within the layer the first group
// containing any word of the normalized text wins. This is strict
// priority, not best-match scoring, so parsing stays reproducible.
type KeywordGroup struct {
	Action     string   `yaml:"action"`
	Kind       string   `yaml:"kind,omitempty"` // command|control|dictation|question, default command
	Words      []string `yaml:"words"`
	Confidence float64  `yaml:"confidence,omitempty"` // default 0.92
}

// PatternRule is one structured pattern with named capture groups,
// evaluated only when no keyword fired. First match wins.
type PatternRule struct {
	Name   string `yaml:"name"`
	Action string `yaml:"action"`
	Kind   string `yaml:"kind,omitempty"`
	Regex  string `yaml:"regex"`

	compiled *regexp.Regexp
}

// Vocabulary holds the parser's word tables. Loadable from YAML with
// built-in defaults, like the safety policy.
type Vocabulary struct {
	Fillers       []string          `yaml:"fillers"`
	Canonical     map[string]string `yaml:"canonical"`
	Keywords      []KeywordGroup    `yaml:"keywords"`
	Patterns      []PatternRule     `yaml:"patterns"`
	QuestionWords []string          `yaml:"question_words"`
	Pronouns      []string          `yaml:"pronouns"`
	Affirmative   []string          `yaml:"affirmative"`
	Negative      []string          `yaml:"negative"`

	// TargetTaking lists actions whose bare form ("close", "switch")
	// may borrow the remembered target when none was spoken.
	TargetTaking []string `yaml:"target_taking"`
}

// DefaultVocabulary returns the built-in word tables.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		Fillers: []string{"please", "could you", "can you", "would you", "kindly"},
		Canonical: map[string]string{
			"shut down":       "shutdown",
			"power off":       "shutdown",
			"log out":         "logout",
			"enter dictation": "dictation_on",
			"start dictation": "dictation_on",
			"exit dictation":  "dictation_off",
			"stop dictation":  "dictation_off",
			"go to sleep":     "disable",
			"stop listening":  "disable",
			"wake up":         "enable",
		},
		Keywords: []KeywordGroup{
			// Control keywords are registered first so "disable" wins
			// over any overlapping command vocabulary in every mode.
			{Action: "disable", Kind: "control", Words: []string{"disable"}, Confidence: 0.90},
			{Action: "enable", Kind: "control", Words: []string{"enable", "resume"}, Confidence: 0.90},
			{Action: "dictation_on", Kind: "control", Words: []string{"dictation_on"}, Confidence: 0.90},
			{Action: "dictation_off", Kind: "control", Words: []string{"dictation_off"}, Confidence: 0.90},

			{Action: "open", Words: []string{"open", "launch", "start", "run"}, Confidence: 0.95},
			{Action: "close", Words: []string{"close", "quit"}, Confidence: 0.93},
			{Action: "delete", Words: []string{"delete", "remove", "erase"}, Confidence: 0.92},
			{Action: "type", Kind: "dictation", Words: []string{"type", "write", "dictate"}, Confidence: 0.93},
			{Action: "shutdown", Words: []string{"shutdown"}, Confidence: 0.92},
			{Action: "restart", Words: []string{"restart", "reboot"}, Confidence: 0.92},
			{Action: "search", Kind: "question", Words: []string{"search", "lookup"}, Confidence: 0.90},
		},
		Patterns: []PatternRule{
			{Name: "set_value", Action: "set", Regex: `^set\s+(?P<parameter>\S+)\s+to\s+(?P<value>.+)$`},
			{Name: "go_back", Action: "back", Regex: `^(?:go\s+)?back$`},
			{Name: "switch_app", Action: "switch", Regex: `^switch\s+to\s+(?P<target>.+)$`},
			{Name: "answer_query", Action: "answer", Kind: "question", Regex: `^(?:who|what|when|where)\s+(?:is|are|was|were)\s+(?P<target>.+)$`},
		},
		QuestionWords: []string{"what", "how", "why", "who", "when", "where", "tell", "explain"},
		Pronouns:      []string{"it", "that", "this"},
		Affirmative:   []string{"yes", "yeah", "ok", "okay", "confirm", "proceed", "sure"},
		Negative:      []string{"no", "nope", "cancel", "abort", "stop", "wait", "nevermind"},
		TargetTaking:  []string{"close", "switch"},
	}
	if err := v.compile(); err != nil {
		// Built-in patterns are static; a compile failure here is a
		// programming error, not an input error.
		panic(err)
	}
	return v
}

// LoadVocabulary reads word tables from a YAML file. Empty path or a
// missing file returns the defaults. Fields present in the file replace
// the corresponding default table wholesale.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultVocabulary(), nil
		}
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	v := DefaultVocabulary()
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if err := v.compile(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vocabulary) compile() error {
	for i := range v.Patterns {
		re, err := regexp.Compile(v.Patterns[i].Regex)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", v.Patterns[i].Name, err)
		}
		v.Patterns[i].compiled = re
	}
	return nil
}

// kindOf maps a group/pattern kind string to a model kind.
// Fail-closed for safety-relevant values: anything unrecognized is a
// plain command, never a control.
func kindOf(s string) model.IntentKind {
	switch s {
	case "control":
		return model.KindControl
	case "dictation":
		return model.KindDictation
	case "question":
		return model.KindQuestion
	default:
		return model.KindCommand
	}
}

// IsAffirmative reports whether the first token of text is a yes-token.
func (v *Vocabulary) IsAffirmative(text string) bool {
	return firstTokenIn(text, v.Affirmative)
}

// IsNegative reports whether the first token of text is a no/cancel token.
func (v *Vocabulary) IsNegative(text string) bool {
	return firstTokenIn(text, v.Negative)
}

// IsPronoun reports whether word is a back-reference pronoun. A target
// that is still a pronoun after reference resolution had nothing to
// resolve against.
func (v *Vocabulary) IsPronoun(word string) bool {
	for _, p := range v.Pronouns {
		if strings.EqualFold(word, p) {
			return true
		}
	}
	return false
}

// TakesTarget reports whether action may borrow a remembered target
// when spoken without one.
func (v *Vocabulary) TakesTarget(action string) bool {
	for _, a := range v.TargetTaking {
		if a == action {
			return true
		}
	}
	return false
}

func firstTokenIn(text string, set []string) bool {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return false
	}
	for _, w := range set {
		if fields[0] == w {
			return true
		}
	}
	return false
}
