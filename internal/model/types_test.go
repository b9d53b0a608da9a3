package model

import "testing"

func TestIntentValid(t *testing.T) {
	tests := []struct {
		name   string
		intent Intent
		want   bool
	}{
		{"command", Intent{Kind: KindCommand, Action: "open", Confidence: 0.95, RiskLevel: 1}, true},
		{"unknown without action", Intent{Kind: KindUnknown, Confidence: 0.3}, true},
		{"unknown with action", Intent{Kind: KindUnknown, Action: "open", Confidence: 0.3}, false},
		{"confidence above one", Intent{Kind: KindCommand, Action: "open", Confidence: 1.2}, false},
		{"negative confidence", Intent{Kind: KindCommand, Action: "open", Confidence: -0.1}, false},
		{"risk out of range", Intent{Kind: KindCommand, Action: "open", Confidence: 0.9, RiskLevel: 10}, false},
		{"negative risk", Intent{Kind: KindCommand, Action: "open", Confidence: 0.9, RiskLevel: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.intent.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseModeFailsClosed(t *testing.T) {
	if got := ParseMode("garbage"); got != ModeDisabled {
		t.Errorf("expected unknown mode to parse as disabled, got %s", got)
	}
	if got := ParseMode("listening"); got != ModeListening {
		t.Errorf("expected listening, got %s", got)
	}
}

func TestParseStatusFailsClosed(t *testing.T) {
	if got := ParseStatus("nonsense"); got != StatusRejected {
		t.Errorf("expected unknown status to parse as rejected, got %s", got)
	}
	if got := ParseStatus("needs_confirmation"); got != StatusNeedsConfirmation {
		t.Errorf("expected needs_confirmation, got %s", got)
	}
}

func TestDecisionOpen(t *testing.T) {
	d := Decision{Status: StatusNeedsConfirmation}
	if !d.Open() {
		t.Error("needs_confirmation decision should be open")
	}
	for _, s := range []DecisionStatus{StatusApproved, StatusBlocked, StatusAwaitingClarification, StatusRejected} {
		if (Decision{Status: s}).Open() {
			t.Errorf("%s decision should not be open", s)
		}
	}
}
