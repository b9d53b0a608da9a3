package safety

import (
	"fmt"
	"strings"

	"github.com/dkoval/voxgate/internal/model"
)

// Evaluate evaluates one intent against the policy. Pure function of
// (action, target, mode, tables): same inputs, same verdict.
//
// Evaluation order (must not be changed):
//  1. Escalation  — dangerous lexical patterns raise the configured risk
//  2. Block layer — blocklist match or risk >= forbidden: no override path
//  3. Critical    — risk >= critical_min blocked unless allow-listed
//  4. Confirm     — risk >= confirm_min requires confirmation
//  5. Allow-list  — app/path targets outside the allow-list are rejected
//  6. Allow
func Evaluate(in model.Intent, mode model.Mode, cfg *Config) model.SafetyVerdict {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// A disabled assistant admits only control intents. Fusion checks
	// this through the state machine as well; the policy repeats it so
	// the verdict alone is safe to act on.
	if mode == model.ModeDisabled && in.Kind != model.KindControl {
		return model.SafetyVerdict{
			Allowed:   false,
			Reason:    "assistant is disabled",
			RiskLevel: clampRisk(riskFor(in.Action, cfg)),
			PolicyID:  "mode.disabled",
		}
	}

	risk := riskFor(in.Action, cfg)

	// Step 1: lexical escalation, before any layer. The matched pattern
	// is carried into the verdict reason so the decision trail shows
	// what raised the risk.
	var danger string
	if pat, hit := escalationHit(in, cfg.Escalation.Patterns); hit {
		danger = pat
		risk += cfg.Escalation.Delta
	}
	risk = clampRisk(risk)

	// Step 2: block layer.
	if rule, blocked := blocklistHit(in, cfg.Blocklist); blocked {
		return model.SafetyVerdict{
			Allowed:   false,
			Reason:    rule.Reason,
			RiskLevel: 9,
			PolicyID:  blockPolicyID(rule),
		}
	}
	if risk >= cfg.Thresholds.Forbidden {
		return model.SafetyVerdict{
			Allowed:   false,
			Reason:    withDanger(fmt.Sprintf("risk %d is forbidden", risk), danger),
			RiskLevel: 9,
			PolicyID:  "risk.forbidden",
		}
	}

	// Step 3: critical band — blocked unless explicitly allow-listed,
	// in which case confirmation is still required.
	if risk >= cfg.Thresholds.CriticalMin {
		if !containsFold(cfg.Allowlist.CriticalAllow, in.Action) {
			return model.SafetyVerdict{
				Allowed:   false,
				Reason:    withDanger(fmt.Sprintf("critical risk %d, action not allow-listed", risk), danger),
				RiskLevel: risk,
				PolicyID:  "risk.critical",
			}
		}
		return model.SafetyVerdict{
			Allowed:              true,
			RequiresConfirmation: true,
			Reason:               withDanger(fmt.Sprintf("critical risk %d, allow-listed with confirmation", risk), danger),
			RiskLevel:            risk,
			PolicyID:             "risk.critical.allowlisted",
		}
	}

	// Step 4: confirmation layer.
	if risk >= cfg.Thresholds.ConfirmMin {
		return model.SafetyVerdict{
			Allowed:              true,
			RequiresConfirmation: true,
			Reason:               withDanger(fmt.Sprintf("risk %d requires confirmation", risk), danger),
			RiskLevel:            risk,
			PolicyID:             "risk.confirm",
		}
	}

	// Step 5: access-control layer. Empty targets are legal and skip
	// the check — there is nothing to match against the allow-list.
	if reason, ok := allowlisted(in, cfg.Allowlist); !ok {
		r := risk
		if r < 4 {
			r = 4
		}
		return model.SafetyVerdict{
			Allowed:   false,
			Reason:    reason,
			RiskLevel: r,
			PolicyID:  "acl.deny",
		}
	}

	return model.SafetyVerdict{
		Allowed:   true,
		RiskLevel: risk,
		PolicyID:  "risk.allow",
	}
}

func riskFor(action string, cfg *Config) int {
	if action == "" {
		return 0
	}
	if r, ok := cfg.ActionRisks[strings.ToLower(action)]; ok {
		return r
	}
	return cfg.DefaultRisk
}

// withDanger appends the escalating pattern to a tier reason.
func withDanger(reason, danger string) string {
	if danger == "" {
		return reason
	}
	return fmt.Sprintf("%s (danger pattern %q)", reason, danger)
}

func clampRisk(r int) int {
	if r < 0 {
		return 0
	}
	if r > 9 {
		return 9
	}
	return r
}

// appActions are the actions whose target is an application name.
var appActions = map[string]bool{"open": true, "close": true, "switch": true}

// fileActions are the actions whose target is a file path.
var fileActions = map[string]bool{"delete": true}

// allowlisted applies the access-control layer. Only app and file
// actions with a non-empty target are constrained.
func allowlisted(in model.Intent, al Allowlist) (string, bool) {
	target := strings.ToLower(strings.TrimSpace(in.Target))
	if target == "" {
		return "", true
	}
	action := strings.ToLower(in.Action)

	if appActions[action] && len(al.Apps) > 0 {
		for _, app := range al.Apps {
			if strings.Contains(target, strings.ToLower(app)) {
				return "", true
			}
		}
		return fmt.Sprintf("%q not in application allow-list", in.Target), false
	}

	if fileActions[action] && len(al.PathPrefixes) > 0 {
		for _, prefix := range al.PathPrefixes {
			if strings.HasPrefix(target, strings.ToLower(prefix)) {
				return "", true
			}
		}
		return fmt.Sprintf("%q not under a permitted path prefix", in.Target), false
	}

	return "", true
}

// escalationHit reports whether any dangerous pattern appears in the
// intent's target or raw text. Word-only patterns match whole words;
// patterns carrying punctuation (drive roots) match as substrings of
// the raw input, since normalization strips punctuation.
func escalationHit(in model.Intent, patterns []string) (string, bool) {
	target := strings.ToLower(in.Target)
	raw := strings.ToLower(in.RawText)

	for _, p := range patterns {
		p = strings.ToLower(p)
		if p == "" {
			continue
		}
		if isWordPattern(p) {
			if containsPhrase(target, p) || containsPhrase(raw, p) {
				return p, true
			}
		} else if strings.Contains(raw, p) || strings.Contains(target, p) {
			return p, true
		}
	}
	return "", false
}

func isWordPattern(p string) bool {
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
		default:
			return false
		}
	}
	return true
}

// containsPhrase reports whether phrase occurs in text on word
// boundaries ("all" matches "delete all files" but not "install").
func containsPhrase(text, phrase string) bool {
	words := strings.Fields(text)
	parts := strings.Fields(phrase)
	if len(parts) == 0 || len(words) < len(parts) {
		return false
	}
	for i := 0; i+len(parts) <= len(words); i++ {
		match := true
		for j := range parts {
			if words[i+j] != parts[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func blocklistHit(in model.Intent, rules []BlockRule) (BlockRule, bool) {
	action := strings.ToLower(in.Action)
	target := strings.ToLower(in.Target)

	for _, rule := range rules {
		if rule.Action != "" && !strings.EqualFold(rule.Action, action) {
			continue
		}
		if rule.TargetPattern != "" && !matchPattern(target, rule.TargetPattern) {
			continue
		}
		if rule.Action == "" && rule.TargetPattern == "" {
			continue // an empty rule must never block everything
		}
		return rule, true
	}
	return BlockRule{}, false
}

// matchPattern supports the same shapes as the policy rules:
// *x* contains, *.ext suffix, prefix/* prefix, exact otherwise.
// Matching is case-insensitive.
func matchPattern(value, pattern string) bool {
	value = strings.ToLower(value)
	pattern = strings.ToLower(pattern)

	if pattern == "" || pattern == "*" {
		return true
	}
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(value, pattern[1:len(pattern)-1])
	}
	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(value, pattern[1:])
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, pattern[:len(pattern)-1])
	}
	return value == pattern
}

func blockPolicyID(rule BlockRule) string {
	switch {
	case rule.Action != "" && rule.TargetPattern != "":
		return fmt.Sprintf("block.%s.%s", rule.Action, strings.Trim(rule.TargetPattern, "*."))
	case rule.Action != "":
		return "block." + rule.Action
	default:
		return "block." + strings.Trim(rule.TargetPattern, "*.")
	}
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
