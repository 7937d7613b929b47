package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"cortex-sentinel/internal/types"
)

// newMockEmbedServer maps anchors and test lines onto a tiny fixed vector
// space so similarity outcomes are deterministic.
func newMockEmbedServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()

	anchorSpace := map[string][]float64{}
	for _, p := range threatAnchors {
		anchorSpace[p] = []float64{1, 0, 0, 0, 0}
	}
	for _, p := range safeAnchors {
		anchorSpace[p] = []float64{0, 1, 0, 0, 0}
	}
	anchorSpace[velocityAnchor] = []float64{0, 0, 1, 0, 0}
	anchorSpace[protocolAnchor] = []float64{0, 0, 0, 1, 0}
	anchorSpace[contextAnchor] = []float64{0, 0, 0, 0, 1}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}

		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode embed request: %v", err)
		}

		vec, ok := anchorSpace[req.Prompt]
		if !ok {
			switch {
			case strings.Contains(req.Prompt, "DROP"):
				vec = []float64{1, 0, 0, 0, 0}
			case strings.Contains(req.Prompt, "chained"):
				vec = []float64{0, 0.1, 0.9, 0, 0}
			default:
				vec = []float64{0, 1, 0, 0, 0}
			}
		}

		json.NewEncoder(w).Encode(embedResponse{Embedding: vec})
	}))
}

func TestLocalEngine_ThreatLine(t *testing.T) {
	server := newMockEmbedServer(t, nil)
	defer server.Close()

	engine := NewLocalEngine(NewEmbedClient(server.URL, "test-embed"))

	verdict := engine.Classify(context.Background(), "payload='; DROP TABLE audit; WHERE 1=1")

	if !verdict.IsAgenticThreat {
		t.Fatal("Expected threat verdict")
	}
	if verdict.ThreatLevel != types.ThreatCritical {
		t.Errorf("Expected CRITICAL, got %s", verdict.ThreatLevel)
	}
	if len(verdict.DetectedPatterns) != 1 || verdict.DetectedPatterns[0] != PatternSQLInjection {
		t.Errorf("Expected single SQL injection label, got %v", verdict.DetectedPatterns)
	}
	if verdict.RecommendedAction != "ISOLATE_HOST_IMMEDIATELY" {
		t.Errorf("Unexpected action %q", verdict.RecommendedAction)
	}
	if verdict.ConfidenceScore < 80 || verdict.ConfidenceScore > 95 {
		t.Errorf("Threat confidence %d outside 80-95", verdict.ConfidenceScore)
	}
}

func TestLocalEngine_CleanLine(t *testing.T) {
	server := newMockEmbedServer(t, nil)
	defer server.Close()

	engine := NewLocalEngine(NewEmbedClient(server.URL, "test-embed"))

	verdict := engine.Classify(context.Background(), "routine health check completed successfully")

	if verdict.IsAgenticThreat {
		t.Fatal("Expected clean verdict")
	}
	if verdict.ThreatLevel != types.ThreatLow {
		t.Errorf("Expected LOW, got %s", verdict.ThreatLevel)
	}
	if len(verdict.DetectedPatterns) != 0 {
		t.Errorf("Expected no patterns, got %v", verdict.DetectedPatterns)
	}
	if verdict.ConfidenceScore < 90 || verdict.ConfidenceScore > 92 {
		t.Errorf("Clean confidence %d outside 90-92", verdict.ConfidenceScore)
	}
	if verdict.RecommendedAction != "NO_ACTION_REQUIRED" {
		t.Errorf("Unexpected action %q", verdict.RecommendedAction)
	}
}

func TestLocalEngine_VelocityGuardrail(t *testing.T) {
	server := newMockEmbedServer(t, nil)
	defer server.Close()

	engine := NewLocalEngine(NewEmbedClient(server.URL, "test-embed"))

	verdict := engine.Classify(context.Background(), "3 tool calls chained in <500ms")

	if !verdict.IsAgenticThreat {
		t.Fatal("Expected threat verdict from guardrail score")
	}
	found := false
	for _, p := range verdict.DetectedPatterns {
		if p == PatternVelocityGuardrail {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected velocity guardrail label, got %v", verdict.DetectedPatterns)
	}
	if verdict.ThreatLevel != types.ThreatHigh {
		t.Errorf("Expected HIGH, got %s", verdict.ThreatLevel)
	}
}

func TestLocalEngine_FallbackOnEmbedFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	engine := NewLocalEngine(NewEmbedClient(server.URL, "test-embed"))

	verdict := engine.Classify(context.Background(), "anything")

	if verdict.IsAgenticThreat {
		t.Error("Fallback verdict must not flag a threat")
	}
	if verdict.ThreatLevel != types.ThreatLow || verdict.ConfidenceScore != 0 {
		t.Errorf("Expected LOW/0 fallback, got %s/%d", verdict.ThreatLevel, verdict.ConfidenceScore)
	}
	if len(verdict.DetectedPatterns) != 1 || verdict.DetectedPatterns[0] != PatternAnalysisFailure {
		t.Errorf("Expected ANALYSIS_FAILURE label, got %v", verdict.DetectedPatterns)
	}
}

func TestLocalEngine_InitIdempotent(t *testing.T) {
	var requests atomic.Int64
	server := newMockEmbedServer(t, &requests)
	defer server.Close()

	engine := NewLocalEngine(NewEmbedClient(server.URL, "test-embed"))

	engine.Classify(context.Background(), "first line")
	engine.Classify(context.Background(), "second line")

	// 8 anchors embedded once, plus one embedding per classified line
	if got := requests.Load(); got != 10 {
		t.Errorf("Expected 10 embed calls (8 anchors + 2 lines), got %d", got)
	}
}
