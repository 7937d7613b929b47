package classify

import (
	"strings"

	"cortex-sentinel/internal/types"
)

// Pattern labels attached to verdicts
const (
	PatternPersonaMasquerade = "PERSONA_MASQUERADE"
	PatternUnauthorizedMCP   = "UNAUTHORIZED_MCP_CALL"
	PatternSQLInjection      = "SQL_INJECTION_ATTEMPT"
	PatternDataObfuscation   = "DATA_OBFUSCATION"
	PatternRapidRecon        = "RAPID_RECONNAISSANCE"
	PatternVelocityGuardrail = "VELOCITY_GUARDRAIL"
	PatternProtocolGuardrail = "PROTOCOL_GUARDRAIL"
	PatternContextGuardrail  = "CONTEXT_GUARDRAIL"
	PatternAnomalyMatch      = "ANOMALY_VECTOR_MATCH"
	PatternAnalysisFailure   = "ANALYSIS_FAILURE"
)

// literalRule maps case-sensitive substrings to one pattern label.
// Multiple matching literals for the same label yield a single label.
type literalRule struct {
	label    string
	literals []string
}

var literalRules = []literalRule{
	{PatternPersonaMasquerade, []string{"RedScan"}},
	{PatternUnauthorizedMCP, []string{"MCP", "mcp_"}},
	{PatternSQLInjection, []string{"DROP", "1=1"}},
	{PatternDataObfuscation, []string{"BASE64"}},
	{PatternRapidRecon, []string{"scan"}},
}

// ScanPatterns returns the deduplicated pattern labels whose literals occur
// in the log text. Order follows rule declaration, not discovery position.
func ScanPatterns(logText string) []string {
	var labels []string
	for _, rule := range literalRules {
		for _, lit := range rule.literals {
			if strings.Contains(logText, lit) {
				labels = append(labels, rule.label)
				break
			}
		}
	}
	return labels
}

var criticalPatterns = map[string]bool{
	PatternSQLInjection:      true,
	PatternDataObfuscation:   true,
	PatternProtocolGuardrail: true,
	PatternContextGuardrail:  true,
}

var highPatterns = map[string]bool{
	PatternUnauthorizedMCP:   true,
	PatternVelocityGuardrail: true,
}

// SeverityForPatterns assigns the severity bucket for a set of detected
// patterns. Precedence is total and independent of discovery order:
// any critical-class pattern wins, then high, then any remaining pattern
// maps to MEDIUM. An empty set is LOW.
func SeverityForPatterns(patterns []string) types.ThreatLevel {
	for _, p := range patterns {
		if criticalPatterns[p] {
			return types.ThreatCritical
		}
	}
	for _, p := range patterns {
		if highPatterns[p] {
			return types.ThreatHigh
		}
	}
	if len(patterns) > 0 {
		return types.ThreatMedium
	}
	return types.ThreatLow
}

// ActionForSeverity picks the imperative recommendation for a verdict.
func ActionForSeverity(level types.ThreatLevel, isThreat bool) string {
	if !isThreat {
		return "NO_ACTION_REQUIRED"
	}
	switch level {
	case types.ThreatCritical:
		return "ISOLATE_HOST_IMMEDIATELY"
	case types.ThreatHigh:
		return "TERMINATE_AGENT_SESSION"
	case types.ThreatMedium:
		return "ESCALATE_TO_ANALYST"
	default:
		return "NO_ACTION_REQUIRED"
	}
}
