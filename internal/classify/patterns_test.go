package classify

import (
	"reflect"
	"strings"
	"testing"

	"cortex-sentinel/internal/types"
)

func TestScanPatterns(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{"persona", "activity hidden as RedScan_Security_Audit_v4", []string{PatternPersonaMasquerade}},
		{"mcp upper", "3 MCP calls chained", []string{PatternUnauthorizedMCP}},
		{"mcp tool prefix", "invoking mcp_sql_injector", []string{PatternUnauthorizedMCP}},
		{"sql drop", "payload: '; DROP TABLE users;--", []string{PatternSQLInjection}},
		{"sql tautology", "login where 1=1", []string{PatternSQLInjection}},
		{"sql both literals one label", "DROP WHERE 1=1", []string{PatternSQLInjection}},
		{"obfuscation", "encoding 2GB to BASE64", []string{PatternDataObfuscation}},
		{"recon", "port scan sweep started", []string{PatternRapidRecon}},
		{"case sensitive", "redsweep drop base64", nil},
		{"clean", "routine health check ok", nil},
		{
			"combined",
			"RedScan agent ran mcp_sql_injector with DROP, output to BASE64 after scan",
			[]string{PatternPersonaMasquerade, PatternUnauthorizedMCP, PatternSQLInjection, PatternDataObfuscation, PatternRapidRecon},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ScanPatterns(c.text)
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("ScanPatterns(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestSeverityForPatterns_Precedence(t *testing.T) {
	cases := []struct {
		patterns []string
		want     types.ThreatLevel
	}{
		{nil, types.ThreatLow},
		{[]string{PatternAnomalyMatch}, types.ThreatMedium},
		{[]string{PatternPersonaMasquerade}, types.ThreatMedium},
		{[]string{PatternRapidRecon}, types.ThreatMedium},
		{[]string{PatternUnauthorizedMCP}, types.ThreatHigh},
		{[]string{PatternVelocityGuardrail}, types.ThreatHigh},
		{[]string{PatternSQLInjection}, types.ThreatCritical},
		{[]string{PatternDataObfuscation}, types.ThreatCritical},
		{[]string{PatternProtocolGuardrail}, types.ThreatCritical},
		{[]string{PatternContextGuardrail}, types.ThreatCritical},
		{[]string{PatternPersonaMasquerade, PatternUnauthorizedMCP}, types.ThreatHigh},
		{[]string{PatternUnauthorizedMCP, PatternSQLInjection}, types.ThreatCritical},
	}

	for _, c := range cases {
		if got := SeverityForPatterns(c.patterns); got != c.want {
			t.Errorf("SeverityForPatterns(%v) = %s, want %s", c.patterns, got, c.want)
		}
	}
}

// The assigned severity must not depend on discovery order.
func TestSeverityForPatterns_OrderIndependent(t *testing.T) {
	set := []string{PatternRapidRecon, PatternUnauthorizedMCP, PatternSQLInjection, PatternPersonaMasquerade}

	rotate := func(s []string, n int) []string {
		out := append([]string{}, s[n:]...)
		return append(out, s[:n]...)
	}

	for i := range set {
		perm := rotate(set, i)
		if got := SeverityForPatterns(perm); got != types.ThreatCritical {
			t.Errorf("order %v: got %s, want CRITICAL", perm, got)
		}
	}
}

func TestActionForSeverity(t *testing.T) {
	if got := ActionForSeverity(types.ThreatLow, false); got != "NO_ACTION_REQUIRED" {
		t.Errorf("clean verdict action = %q", got)
	}
	if got := ActionForSeverity(types.ThreatCritical, true); got != "ISOLATE_HOST_IMMEDIATELY" {
		t.Errorf("critical action = %q", got)
	}
	if got := ActionForSeverity(types.ThreatHigh, true); got != "TERMINATE_AGENT_SESSION" {
		t.Errorf("high action = %q", got)
	}
}

// The fixed label set must never collide with the CSV pattern delimiter.
func TestPatternLabelsContainNoPipe(t *testing.T) {
	labels := []string{
		PatternPersonaMasquerade, PatternUnauthorizedMCP, PatternSQLInjection,
		PatternDataObfuscation, PatternRapidRecon, PatternVelocityGuardrail,
		PatternProtocolGuardrail, PatternContextGuardrail, PatternAnomalyMatch,
		PatternAnalysisFailure,
	}
	for _, l := range labels {
		if strings.Contains(l, "|") {
			t.Errorf("label %q contains the export delimiter", l)
		}
	}
}
