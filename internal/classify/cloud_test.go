package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"cortex-sentinel/internal/types"
)

func newMockAnalysisServer(t *testing.T, verdictJSON string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode analysis request: %v", err)
		}
		if req.SystemInstruction == nil {
			t.Error("Expected a system instruction")
		}
		if req.GenerationConfig.Temperature != 0 {
			t.Errorf("Expected zero temperature, got %f", req.GenerationConfig.Temperature)
		}

		var resp generateResponse
		resp.Candidates = append(resp.Candidates, struct {
			Content generateContent `json:"content"`
		}{Content: generateContent{Parts: []generatePart{{Text: verdictJSON}}}})
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCloudEngine_Classify(t *testing.T) {
	verdictJSON := `{
		"isAgenticThreat": true,
		"threatLevel": "HIGH",
		"confidenceScore": 88,
		"detectedPatterns": ["MCP_Velocity_Exceeded"],
		"explanation": "Chained tool calls inside one request window.",
		"recommendedAction": "TERMINATE_SESSION_ID",
		"source": "MCP_Bridge",
		"activity": "Tool Chain Audit"
	}`

	server := newMockAnalysisServer(t, verdictJSON)
	defer server.Close()

	engine := NewCloudEngine(server.URL, "test-model", "test-key")

	verdict := engine.Classify(context.Background(), "mcp_network_map -> mcp_exploit in 420ms")

	if !verdict.IsAgenticThreat || verdict.ThreatLevel != types.ThreatHigh {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
	if verdict.ConfidenceScore != 88 {
		t.Errorf("Expected confidence 88, got %d", verdict.ConfidenceScore)
	}
	if verdict.Source != "MCP_Bridge" {
		t.Errorf("Expected source passthrough, got %q", verdict.Source)
	}
}

func TestCloudEngine_RejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"unknown severity", `{"isAgenticThreat":true,"threatLevel":"APOCALYPTIC","confidenceScore":90,"detectedPatterns":[],"explanation":"x","recommendedAction":"y"}`},
		{"confidence out of range", `{"isAgenticThreat":true,"threatLevel":"HIGH","confidenceScore":250,"detectedPatterns":[],"explanation":"x","recommendedAction":"y"}`},
		{"missing patterns", `{"isAgenticThreat":true,"threatLevel":"HIGH","confidenceScore":90,"explanation":"x","recommendedAction":"y"}`},
		{"unknown field", `{"isAgenticThreat":true,"threatLevel":"HIGH","confidenceScore":90,"detectedPatterns":[],"explanation":"x","recommendedAction":"y","exploit":"z"}`},
		{"not json", `the log looks fine to me`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			server := newMockAnalysisServer(t, c.payload)
			defer server.Close()

			engine := NewCloudEngine(server.URL, "test-model", "test-key")
			verdict := engine.Classify(context.Background(), "some log line")

			if len(verdict.DetectedPatterns) != 1 || verdict.DetectedPatterns[0] != PatternAnalysisFailure {
				t.Errorf("Expected fallback verdict, got %+v", verdict)
			}
			if verdict.ConfidenceScore != 0 || verdict.ThreatLevel != types.ThreatLow {
				t.Errorf("Fallback verdict must be LOW/0, got %s/%d", verdict.ThreatLevel, verdict.ConfidenceScore)
			}
		})
	}
}

func TestCloudEngine_FallbackOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	engine := NewCloudEngine(server.URL, "test-model", "test-key")
	verdict := engine.Classify(context.Background(), "some log line")

	if len(verdict.DetectedPatterns) != 1 || verdict.DetectedPatterns[0] != PatternAnalysisFailure {
		t.Errorf("Expected fallback verdict, got %+v", verdict)
	}
}

func TestDecodeVerdict_Valid(t *testing.T) {
	payload := []byte(`{"isAgenticThreat":false,"threatLevel":"LOW","confidenceScore":91,"detectedPatterns":[],"explanation":"clean","recommendedAction":"NO_ACTION_REQUIRED"}`)

	verdict, err := DecodeVerdict(payload)
	if err != nil {
		t.Fatalf("Expected valid verdict, got %v", err)
	}
	if verdict.IsAgenticThreat || verdict.ThreatLevel != types.ThreatLow {
		t.Errorf("Unexpected verdict: %+v", verdict)
	}
}
