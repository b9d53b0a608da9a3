package audit

import (
	"strings"
	"testing"
	"time"
)

func writeReplayFixture(t *testing.T) string {
	t.Helper()
	l, path := newTestLog(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []struct {
		session string
		status  string
		risk    int
		offset  time.Duration
	}{
		{"s-1", "approved", 1, 0},
		{"s-1", "needs_confirmation", 6, 2 * time.Second},
		{"s-1", "approved", 6, 5 * time.Second},
		{"s-2", "blocked", 9, 6 * time.Second},
		{"s-1", "rejected", 0, 9 * time.Second},
	}
	for _, r := range rows {
		e := testEntry(r.status)
		e.SessionID = r.session
		e.Risk = r.risk
		e.Timestamp = base.Add(r.offset).Format(TimestampFormat)
		if err := l.Record(e); err != nil {
			t.Fatal(err)
		}
	}
	l.Close()
	return path
}

func TestReplayFiltersBySession(t *testing.T) {
	path := writeReplayFixture(t)

	result, err := Replay(path, ReplayFilter{SessionID: "s-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 4 {
		t.Fatalf("expected 4 entries for s-1, got %d", len(result.Entries))
	}
	for _, e := range result.Entries {
		if e.SessionID != "s-1" {
			t.Errorf("foreign session leaked into replay: %+v", e)
		}
	}

	s := result.Summary
	if s.ApprovedCount != 2 || s.ConfirmationCount != 1 || s.RejectedCount != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.MaxRisk != 6 {
		t.Errorf("expected max risk 6, got %d", s.MaxRisk)
	}
}

func TestReplayTimeRange(t *testing.T) {
	path := writeReplayFixture(t)

	from := time.Date(2026, 3, 1, 12, 0, 1, 0, time.UTC)
	to := time.Date(2026, 3, 1, 12, 0, 6, 0, time.UTC)
	result, err := Replay(path, ReplayFilter{SessionID: "s-1", From: from, To: to})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries in window, got %d", len(result.Entries))
	}
}

func TestReplayEmptySession(t *testing.T) {
	path := writeReplayFixture(t)

	result, err := Replay(path, ReplayFilter{SessionID: "s-none"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Entries) != 0 || result.Summary.Total != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestFormatTimeline(t *testing.T) {
	path := writeReplayFixture(t)
	result, err := Replay(path, ReplayFilter{SessionID: "s-1"})
	if err != nil {
		t.Fatal(err)
	}

	out := FormatTimeline(result)
	if !strings.Contains(out, "Session: s-1") {
		t.Errorf("missing header:\n%s", out)
	}
	if !strings.Contains(out, "NEEDS_CONFIRMATION") {
		t.Errorf("missing status row:\n%s", out)
	}
	if !strings.Contains(out, "Max risk: 6 (high)") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestFormatTimelineEmpty(t *testing.T) {
	out := FormatTimeline(&ReplayResult{SessionID: "s-x"})
	if !strings.Contains(out, "No entries found") {
		t.Errorf("unexpected empty render: %q", out)
	}
}

func TestFormatJSON(t *testing.T) {
	path := writeReplayFixture(t)
	result, err := Replay(path, ReplayFilter{SessionID: "s-2"})
	if err != nil {
		t.Fatal(err)
	}

	out, err := FormatJSON(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"blocked_count": 1`) {
		t.Errorf("missing summary field:\n%s", out)
	}
}
