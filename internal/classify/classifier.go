package classify

import (
	"context"

	"cortex-sentinel/internal/types"
)

// Classifier produces a structured verdict for a raw log line.
// Implementations never fail outward: internal errors degrade to the
// fixed analysis-failure verdict.
type Classifier interface {
	Classify(ctx context.Context, logText string) types.ThreatAnalysis
}

// FallbackVerdict is returned when a classifier cannot produce a real
// assessment (model offline, malformed cloud payload, embedding failure).
func FallbackVerdict() types.ThreatAnalysis {
	return types.ThreatAnalysis{
		IsAgenticThreat:   false,
		ThreatLevel:       types.ThreatLow,
		ConfidenceScore:   0,
		DetectedPatterns:  []string{PatternAnalysisFailure},
		Explanation:       "Telemetry stream interrupted. Heuristics engine offline.",
		RecommendedAction: "Manual Log Inspection Required",
		Source:            "System",
		Activity:          "Error",
	}
}
