package session

import "cortex-sentinel/internal/types"

// Bundled demo sessions shipped with the console. Compiled in, never
// persisted, unaffected by Clear.

const sampleBreakoutID = "sample-redscan-breakout"
const sampleBaselineID = "sample-quiet-baseline"

func sampleVerdict(level types.ThreatLevel, patterns []string, explanation, action, source, activity string) types.ThreatAnalysis {
	confidence := 91
	isThreat := level.Rank() >= types.ThreatMedium.Rank()
	if isThreat {
		confidence = 88
	}
	return types.ThreatAnalysis{
		IsAgenticThreat:   isThreat,
		ThreatLevel:       level,
		ConfidenceScore:   confidence,
		DetectedPatterns:  patterns,
		Explanation:       explanation,
		RecommendedAction: action,
		Source:            source,
		Activity:          activity,
	}
}

// BundledSessions returns fresh copies so callers may trim or annotate
// them without corrupting the compiled-in data.
func BundledSessions() []types.SavedSession {
	breakoutLogs := []types.LogEntry{
		{
			ID: "sample-1", Timestamp: "2026-08-14T09:12:04Z", Source: "System_Daemon",
			Activity: "Routine Health Check", ThreatLevel: types.ThreatLow,
			Details: sampleVerdict(types.ThreatLow, nil,
				"Scheduled heartbeat within baseline parameters.", "NO_ACTION_REQUIRED",
				"System_Daemon", "Routine Health Check"),
		},
		{
			ID: "sample-2", Timestamp: "2026-08-14T09:12:24Z", Source: "Auth_Gate",
			Activity: "Failed Login (User: admin)", ThreatLevel: types.ThreatMedium,
			Details: sampleVerdict(types.ThreatMedium, []string{"ANOMALY_VECTOR_MATCH"},
				"Repeated credential failure against a privileged account.", "ESCALATE_TO_ANALYST",
				"Auth_Gate", "Failed Login (User: admin)"),
		},
		{
			ID: "sample-3", Timestamp: "2026-08-14T09:12:44Z", Source: "MCP_Bridge",
			Activity: "High Velocity Tool Chain Detected", ThreatLevel: types.ThreatCritical,
			Details: sampleVerdict(types.ThreatCritical, []string{"UNAUTHORIZED_MCP_CALL", "VELOCITY_GUARDRAIL", "PROTOCOL_GUARDRAIL"},
				"Three chained MCP tool calls inside 500ms window.", "ISOLATE_HOST_IMMEDIATELY",
				"MCP_Bridge", "High Velocity Tool Chain Detected"),
		},
		{
			ID: "sample-4", Timestamp: "2026-08-14T09:13:04Z", Source: "Firewall",
			Activity: "Outbound Connection Blocked (Port 4444)", ThreatLevel: types.ThreatHigh,
			Details: sampleVerdict(types.ThreatHigh, []string{"UNAUTHORIZED_MCP_CALL"},
				"Egress attempt to a known staging port was denied.", "TERMINATE_AGENT_SESSION",
				"Firewall", "Outbound Connection Blocked (Port 4444)"),
		},
	}

	baselineLogs := []types.LogEntry{
		{
			ID: "sample-5", Timestamp: "2026-08-13T22:40:00Z", Source: "System_Daemon",
			Activity: "Routine Health Check", ThreatLevel: types.ThreatLow,
			Details: sampleVerdict(types.ThreatLow, nil,
				"Scheduled heartbeat within baseline parameters.", "NO_ACTION_REQUIRED",
				"System_Daemon", "Routine Health Check"),
		},
		{
			ID: "sample-6", Timestamp: "2026-08-13T23:10:00Z", Source: "Auth_Gate",
			Activity: "Successful Login (User: operator)", ThreatLevel: types.ThreatLow,
			Details: sampleVerdict(types.ThreatLow, nil,
				"Known operator credential from a recognized workstation.", "NO_ACTION_REQUIRED",
				"Auth_Gate", "Successful Login (User: operator)"),
		},
	}

	return []types.SavedSession{
		{
			ID:          sampleBreakoutID,
			Name:        "RedScan Breakout (Demo)",
			Date:        "2026-08-14T09:13:04Z",
			Description: "Captured agentic breakout attempt escalating from recon to blocked exfiltration.",
			LogCount:    len(breakoutLogs),
			MaxSeverity: MaxSeverity(breakoutLogs),
			Logs:        breakoutLogs,
		},
		{
			ID:          sampleBaselineID,
			Name:        "Quiet Baseline (Demo)",
			Date:        "2026-08-13T23:10:00Z",
			Description: "Overnight telemetry with no anomalous activity.",
			LogCount:    len(baselineLogs),
			MaxSeverity: MaxSeverity(baselineLogs),
			Logs:        baselineLogs,
		},
	}
}
