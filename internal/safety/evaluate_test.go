package safety

import (
	"strings"
	"testing"

	"github.com/dkoval/voxgate/internal/model"
)

func intent(action, target, raw string) model.Intent {
	return model.Intent{
		Kind:       model.KindCommand,
		Action:     action,
		Target:     target,
		Confidence: 0.92,
		Source:     model.SourceKeyword,
		RawText:    raw,
	}
}

func TestDeleteFileRequiresConfirmation(t *testing.T) {
	v := Evaluate(intent("delete", "report.txt", "delete the file report.txt"), model.ModeCommand, nil)

	if !v.Allowed {
		t.Fatalf("delete of a plain file must be allowed with confirmation: %+v", v)
	}
	if !v.RequiresConfirmation {
		t.Error("risk 6 must require confirmation")
	}
	if v.RiskLevel != 6 {
		t.Errorf("expected risk 6, got %d", v.RiskLevel)
	}
}

func TestDeleteAllFilesEscalatesToForbidden(t *testing.T) {
	v := Evaluate(intent("delete", "all files", "delete all files"), model.ModeCommand, nil)

	if v.Allowed {
		t.Fatalf("escalated delete must be blocked: %+v", v)
	}
	if v.RequiresConfirmation {
		t.Error("blocked verdicts never carry a confirmation path")
	}
	if v.RiskLevel != 9 {
		t.Errorf("expected risk 9, got %d", v.RiskLevel)
	}
	if !strings.Contains(v.Reason, `danger pattern "all"`) {
		t.Errorf("verdict must name the escalating pattern, got %q", v.Reason)
	}
}

func TestNonEscalatedReasonCarriesNoPattern(t *testing.T) {
	v := Evaluate(intent("delete", "report.txt", "delete report.txt"), model.ModeCommand, nil)

	if strings.Contains(v.Reason, "danger pattern") {
		t.Errorf("no pattern fired, reason must stay plain: %q", v.Reason)
	}
}

func TestBlocklistBeatsEverything(t *testing.T) {
	v := Evaluate(intent("delete", "c:/windows/system32", "delete system32"), model.ModeCommand, nil)

	if v.Allowed || v.RequiresConfirmation {
		t.Fatalf("blocklisted target must be hard-blocked: %+v", v)
	}
	if v.RiskLevel != 9 {
		t.Errorf("blocked verdicts report risk 9, got %d", v.RiskLevel)
	}
	if v.Reason != "restricted system path" {
		t.Errorf("reason must come from the matching rule, got %q", v.Reason)
	}
}

func TestFormatBlockedRegardlessOfTarget(t *testing.T) {
	for _, target := range []string{"", "d:", "usb drive"} {
		v := Evaluate(intent("format", target, "format "+target), model.ModeCommand, nil)
		if v.Allowed {
			t.Errorf("format %q must be blocked: %+v", target, v)
		}
	}
}

func TestCriticalBlockedUnlessAllowlisted(t *testing.T) {
	// shutdown: risk 8, not in critical_allow.
	v := Evaluate(intent("shutdown", "", "shut down the computer"), model.ModeCommand, nil)
	if v.Allowed {
		t.Fatalf("shutdown must be blocked at critical risk: %+v", v)
	}
	if v.RiskLevel != 8 {
		t.Errorf("expected risk 8, got %d", v.RiskLevel)
	}

	// restart: risk 7, allow-listed, still needs confirmation.
	v = Evaluate(intent("restart", "", "restart the computer"), model.ModeCommand, nil)
	if !v.Allowed || !v.RequiresConfirmation {
		t.Errorf("allow-listed critical action must pass with confirmation: %+v", v)
	}
	if v.RiskLevel != 7 {
		t.Errorf("expected risk 7, got %d", v.RiskLevel)
	}
}

func TestAppAllowlist(t *testing.T) {
	v := Evaluate(intent("open", "chrome", "open chrome"), model.ModeCommand, nil)
	if !v.Allowed || v.RequiresConfirmation {
		t.Errorf("allow-listed app must pass cleanly: %+v", v)
	}

	v = Evaluate(intent("open", "regedit", "open regedit"), model.ModeCommand, nil)
	if v.Allowed {
		t.Errorf("unlisted app must be rejected: %+v", v)
	}
	if v.RiskLevel < 4 {
		t.Errorf("allow-list rejections report at least risk 4, got %d", v.RiskLevel)
	}
}

func TestEmptyTargetSkipsAllowlist(t *testing.T) {
	v := Evaluate(intent("open", "", "open"), model.ModeCommand, nil)
	if !v.Allowed {
		t.Errorf("empty target must not trip the allow-list: %+v", v)
	}
}

func TestDisabledModeRejectsNonControl(t *testing.T) {
	v := Evaluate(intent("open", "chrome", "open chrome"), model.ModeDisabled, nil)
	if v.Allowed {
		t.Errorf("disabled mode must reject commands: %+v", v)
	}

	ctl := model.Intent{Kind: model.KindControl, Action: "enable", Confidence: 0.9, Source: model.SourceKeyword, RawText: "wake up"}
	v = Evaluate(ctl, model.ModeDisabled, nil)
	if !v.Allowed {
		t.Errorf("disabled mode must still admit control intents: %+v", v)
	}
}

func TestDriveRootEscalation(t *testing.T) {
	// Punctuation survives only in the raw text; the escalation layer
	// must find it there.
	v := Evaluate(intent("delete", "c", "delete c:"), model.ModeCommand, nil)
	if v.Allowed {
		t.Errorf("drive-root delete must escalate to blocked: %+v", v)
	}
	if v.RiskLevel != 9 {
		t.Errorf("expected risk 9, got %d", v.RiskLevel)
	}
}

func TestEscalationMatchesWholeWordsOnly(t *testing.T) {
	// "installer" contains "all" as a substring but not as a word.
	v := Evaluate(intent("open", "chrome installer", "open the chrome installer"), model.ModeCommand, nil)
	if !v.Allowed {
		t.Errorf("substring of an escalation word must not escalate: %+v", v)
	}
	if v.RiskLevel != 1 {
		t.Errorf("expected base risk 1, got %d", v.RiskLevel)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	cfg := DefaultConfig()
	in := intent("delete", "report.txt", "delete report.txt")

	first := Evaluate(in, model.ModeCommand, cfg)
	for i := 0; i < 100; i++ {
		if got := Evaluate(in, model.ModeCommand, cfg); got != first {
			t.Fatalf("verdict changed between identical calls: %+v vs %+v", first, got)
		}
	}
}

func TestRiskNineNeverAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActionRisks["obliterate"] = 9

	v := Evaluate(intent("obliterate", "x", "obliterate x"), model.ModeCommand, cfg)
	if v.Allowed || v.RequiresConfirmation {
		t.Errorf("risk 9 must never be allowed or confirmable: %+v", v)
	}
}

func TestUnknownActionUsesDefaultRisk(t *testing.T) {
	v := Evaluate(intent("wiggle", "window", "wiggle the window"), model.ModeCommand, nil)
	if !v.Allowed {
		t.Fatalf("unknown low-risk action must pass: %+v", v)
	}
	if v.RiskLevel != DefaultConfig().DefaultRisk {
		t.Errorf("expected default risk, got %d", v.RiskLevel)
	}
}

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		value, pattern string
		want           bool
	}{
		{"c:/windows/system32", "*system32*", true},
		{"photo.txt", "*.txt", true},
		{"photo.txtx", "*.txt", false},
		{"documents/report", "documents/*", true},
		{"chrome", "chrome", true},
		{"chrome", "firefox", false},
		{"anything", "*", true},
		{"UPPER.TXT", "*.txt", true},
	}
	for _, c := range cases {
		if got := matchPattern(c.value, c.pattern); got != c.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", c.value, c.pattern, got, c.want)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	cases := []struct {
		text, phrase string
		want         bool
	}{
		{"delete all files", "all", true},
		{"open the installer", "all", false},
		{"wipe every file on disk", "every file", true},
		{"everything must go", "everything", true},
		{"", "all", false},
	}
	for _, c := range cases {
		if got := containsPhrase(c.text, c.phrase); got != c.want {
			t.Errorf("containsPhrase(%q, %q) = %v, want %v", c.text, c.phrase, got, c.want)
		}
	}
}
