package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable text timeline.
func FormatTimeline(result *ReplayResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Session: %s | No entries found.\n", result.SessionID)
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("Session: %s | %s–%s UTC\n", result.SessionID, first, last))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		risk := fmt.Sprintf("R%d", e.Risk)
		status := strings.ToUpper(e.Status)
		action := e.Action
		if action == "" {
			action = "-"
		}
		text := truncate(e.RawText, 40)

		b.WriteString(fmt.Sprintf("%-10s %-3s %-24s %-12s %-40s\n",
			ts, risk, status, truncate(action, 12), text))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	parts := []string{}
	if s.ApprovedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d approved", s.ApprovedCount))
	}
	if s.BlockedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d blocked", s.BlockedCount))
	}
	if s.ConfirmationCount > 0 {
		parts = append(parts, fmt.Sprintf("%d confirmation", s.ConfirmationCount))
	}
	if s.ClarificationCount > 0 {
		parts = append(parts, fmt.Sprintf("%d clarification", s.ClarificationCount))
	}
	if s.RejectedCount > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", s.RejectedCount))
	}
	if len(parts) == 0 {
		parts = append(parts, "no decisions")
	}

	return fmt.Sprintf("Summary: %s | Max risk: %d (%s)\n",
		strings.Join(parts, ", "), s.MaxRisk, riskLabelFor(s.MaxRisk))
}

func riskLabelFor(risk int) string {
	switch {
	case risk <= 0:
		return "none"
	case risk <= 2:
		return "low"
	case risk <= 4:
		return "medium"
	case risk <= 6:
		return "high"
	case risk <= 8:
		return "critical"
	default:
		return "forbidden"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
