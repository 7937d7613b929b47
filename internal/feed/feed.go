package feed

import (
	"sync"
	"time"

	"cortex-sentinel/internal/types"

	"github.com/google/uuid"
)

// Feed holds the active session's log entries in memory. Entries are
// immutable once appended; the list lives until purged or saved.
type Feed struct {
	mu      sync.Mutex
	entries []types.LogEntry
}

func New() *Feed {
	return &Feed{}
}

// Append builds a LogEntry from a verdict and adds it to the feed.
func (f *Feed) Append(verdict types.ThreatAnalysis) types.LogEntry {
	source := verdict.Source
	if source == "" {
		source = "Neural_Net"
	}
	activity := verdict.Activity
	if activity == "" {
		activity = "Vector Classification"
	}

	entry := types.LogEntry{
		ID:          uuid.NewString(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Source:      source,
		Activity:    activity,
		ThreatLevel: verdict.ThreatLevel,
		Details:     verdict,
	}

	f.mu.Lock()
	f.entries = append(f.entries, entry)
	f.mu.Unlock()

	return entry
}

// Entries returns a snapshot of the feed in append order.
func (f *Feed) Entries() []types.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.LogEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Purge drops every entry in the active feed.
func (f *Feed) Purge() {
	f.mu.Lock()
	f.entries = nil
	f.mu.Unlock()
}

// Stats summarizes the feed for the dashboard. Threats blocked counts HIGH
// and CRITICAL entries; high severity counts CRITICAL alone.
func (f *Feed) Stats() types.DashboardStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := types.DashboardStats{TotalScans: len(f.entries)}
	var confidenceSum int
	for _, e := range f.entries {
		switch e.ThreatLevel {
		case types.ThreatCritical:
			stats.HighSevThreats++
			stats.ThreatsBlocked++
		case types.ThreatHigh:
			stats.ThreatsBlocked++
		}
		confidenceSum += e.Details.ConfidenceScore
	}
	if len(f.entries) > 0 {
		stats.AvgConfidence = float64(confidenceSum) / float64(len(f.entries))
	}
	return stats
}
