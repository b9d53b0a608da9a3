package safety

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Thresholds defines the risk boundaries for policy decisions on the
// 0–9 scale: 0 none, 1–2 low, 3–4 medium, 5–6 high, 7–8 critical,
// 9 forbidden.
type Thresholds struct {
	ConfirmMin  int `yaml:"confirm_min"`  // risk >= this requires confirmation
	CriticalMin int `yaml:"critical_min"` // risk >= this is blocked unless allow-listed
	Forbidden   int `yaml:"forbidden"`    // risk >= this is never executable
}

// Escalation raises the configured risk when dangerous lexical
// patterns appear in the target text, before any layer runs. This is
// how "delete file" (confirm) becomes "delete all files" (blocked)
// without separate rule authoring.
type Escalation struct {
	Patterns []string `yaml:"patterns"`
	Delta    int      `yaml:"delta"`
}

// BlockRule is one absolute-prohibition entry. Action alone, target
// pattern alone, or both. No override path exists anywhere in the
// pipeline.
type BlockRule struct {
	Action        string `yaml:"action,omitempty"`
	TargetPattern string `yaml:"target_pattern,omitempty"`
	Reason        string `yaml:"reason"`
}

// Allowlist is the access-control layer's permitted-surface tables.
type Allowlist struct {
	Apps          []string `yaml:"apps"`           // permitted application names (open/close/switch)
	PathPrefixes  []string `yaml:"path_prefixes"`  // permitted path prefixes for file targets
	CriticalAllow []string `yaml:"critical_allow"` // actions permitted (with confirmation) at critical risk
}

// SessionConfig holds the fusion-session knobs that ride along in the
// policy file.
type SessionConfig struct {
	ConfirmTimeoutSec int     `yaml:"confirm_timeout_sec"`
	MaxReprompts      int     `yaml:"max_reprompts"`
	TargetStackDepth  int     `yaml:"target_stack_depth"`
	ClarifyBelow      float64 `yaml:"clarify_below"`
}

// Config holds all configurable policy parameters.
type Config struct {
	Thresholds  Thresholds     `yaml:"thresholds"`
	ActionRisks map[string]int `yaml:"action_risks"`
	DefaultRisk int            `yaml:"default_risk"`
	Escalation  Escalation     `yaml:"escalation"`
	Blocklist   []BlockRule    `yaml:"blocklist"`
	Allowlist   Allowlist      `yaml:"allowlist"`
	Session     SessionConfig  `yaml:"session"`
}

// DefaultConfig returns the built-in policy.
func DefaultConfig() *Config {
	return &Config{
		Thresholds: Thresholds{
			ConfirmMin:  6,
			CriticalMin: 7,
			Forbidden:   9,
		},
		ActionRisks: map[string]int{
			"open":          1,
			"close":         2,
			"switch":        1,
			"back":          1,
			"type":          1,
			"set":           2,
			"search":        1,
			"answer":        0,
			"logout":        4,
			"delete":        6,
			"restart":       7,
			"shutdown":      8,
			"format":        8,
			"uninstall":     7,
			"disable":       2,
			"enable":        0,
			"dictation_on":  0,
			"dictation_off": 0,
		},
		DefaultRisk: 1,
		Escalation: Escalation{
			Patterns: []string{"all", "everything", "every file", "wipe", "c:", "d:", "/"},
			Delta:    3,
		},
		Blocklist: []BlockRule{
			{Action: "delete", TargetPattern: "*system32*", Reason: "restricted system path"},
			{Action: "delete", TargetPattern: "*windows*", Reason: "restricted system path"},
			{Action: "format", Reason: "drive formatting forbidden"},
			{Action: "uninstall", TargetPattern: "*assistant*", Reason: "self-removal forbidden"},
		},
		Allowlist: Allowlist{
			Apps:          []string{"chrome", "firefox", "notepad", "calculator", "explorer", "terminal"},
			PathPrefixes:  []string{"documents", "downloads", "desktop"},
			CriticalAllow: []string{"restart"},
		},
		Session: SessionConfig{
			ConfirmTimeoutSec: 10,
			MaxReprompts:      2,
			TargetStackDepth:  8,
			ClarifyBelow:      0.4,
		},
	}
}

// LoadConfig loads policy configuration from a YAML file. Empty path
// or a missing file returns defaults. Invalid YAML returns an error.
// YAML overwrites only specified fields.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns the
// SHA-256 hash of the raw YAML bytes on disk, for the audit trail.
// When no file exists the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".voxgate", "policy.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("read policy config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("parse policy config: %w", err)
	}

	return cfg, hash, nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

// DefaultConfigYAML returns a commented YAML string for init-policy.
func DefaultConfigYAML() string {
	return `# voxgate policy configuration
# Generated by: voxgate init-policy
#
# Evaluation order (cannot be changed):
#   1. Escalation  -> dangerous lexical patterns raise the configured risk
#   2. Block layer -> blocklist match or risk >= forbidden: blocked, no override
#   3. Critical    -> risk >= critical_min: blocked unless allow-listed
#   4. Confirm     -> risk >= confirm_min: allowed, confirmation required
#   5. Allow-list  -> app/path targets outside the allow-list are rejected
#   6. Allow

# Risk thresholds on the 0-9 scale.
thresholds:
  confirm_min: 6
  critical_min: 7
  forbidden: 9

# Configured base risk per action. Unlisted actions use default_risk.
action_risks:
  open: 1
  close: 2
  delete: 6
  restart: 7
  shutdown: 8
  format: 8
default_risk: 1

# Lexical escalation: any pattern found in the target raises risk by
# delta (capped at 9) before the layers above run.
escalation:
  delta: 3
  patterns:
    - all
    - everything
    - wipe
    - "c:"
    - "/"

# Absolute prohibitions. Action alone, target pattern alone, or both.
# Patterns: *x* contains, *.ext suffix, prefix/* prefix, exact otherwise.
blocklist:
  - action: delete
    target_pattern: "*system32*"
    reason: restricted system path
  - action: format
    reason: drive formatting forbidden

# Access-control layer.
allowlist:
  apps: [chrome, firefox, notepad, calculator, explorer, terminal]
  path_prefixes: [documents, downloads, desktop]
  critical_allow: [restart]

# Session behavior.
session:
  confirm_timeout_sec: 10
  max_reprompts: 2
  target_stack_depth: 8
  clarify_below: 0.4
`
}
