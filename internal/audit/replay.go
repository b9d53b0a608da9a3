package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dkoval/voxgate/internal/model"
)

// ReplayFilter holds filtering criteria for session replay.
type ReplayFilter struct {
	SessionID string
	From      time.Time // zero value = no lower bound
	To        time.Time // zero value = no upper bound
}

// ReplaySummary holds decision counts and metadata for a replayed session.
type ReplaySummary struct {
	Total              int    `json:"total"`
	ApprovedCount      int    `json:"approved_count"`
	BlockedCount       int    `json:"blocked_count"`
	ConfirmationCount  int    `json:"confirmation_count"`
	ClarificationCount int    `json:"clarification_count"`
	RejectedCount      int    `json:"rejected_count"`
	FirstTimestamp     string `json:"first_timestamp"`
	LastTimestamp      string `json:"last_timestamp"`
	MaxRisk            int    `json:"max_risk"`
}

// ReplayResult holds filtered entries and summary for a session replay.
type ReplayResult struct {
	SessionID string        `json:"session_id"`
	Entries   []Entry       `json:"entries"`
	Summary   ReplaySummary `json:"summary"`
}

// Replay reads the decision log and returns entries matching the filter.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	defer f.Close()

	result := &ReplayResult{
		SessionID: filter.SessionID,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if filter.SessionID != "" && entry.SessionID != filter.SessionID {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read decision log: %w", err)
	}

	return result, nil
}

func updateSummary(s *ReplaySummary, entry Entry) {
	s.Total++

	switch model.ParseStatus(entry.Status) {
	case model.StatusApproved:
		s.ApprovedCount++
	case model.StatusBlocked:
		s.BlockedCount++
	case model.StatusNeedsConfirmation:
		s.ConfirmationCount++
	case model.StatusAwaitingClarification:
		s.ClarificationCount++
	case model.StatusRejected:
		s.RejectedCount++
	}

	if entry.Risk > s.MaxRisk {
		s.MaxRisk = entry.Risk
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
