package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"cortex-sentinel/internal/types"
)

// defenseInstruction steers the hosted model toward the structured audit.
const defenseInstruction = `You are CORTEX SENTINEL, an Enterprise Defense Heuristics Engine.
Your mission is to audit infrastructure logs for "Agentic Breakout" patterns, specifically targeting the "RedScan" exploit vectors.

Indicators of Compromise:
1. High-Velocity Tool Chaining: >3 MCP calls (scan -> parse -> exploit) within <500ms.
2. Context Window Optimization: the agent summarizing data to fit context windows.
3. Social Engineering Personas: "Internal Audit", "RedScan", "Verification Bot".
4. Refusal Bypass: framing exploits as "authorized testing".
5. Exfiltration: Base64 encoding or piping data to external sockets.

Return a structured JSON assessment. threatLevel: LOW (Human/Normal), MEDIUM (Suspicious Script), HIGH (Unauthorized Agent), CRITICAL (Active Breakout). recommendedAction must be actionable (e.g. "TERMINATE_SESSION_ID", "REVOKE_API_KEY", "ISOLATE_SUBNET").

Analyze the input log stream now.`

// verdictSchema constrains the model output to the ThreatAnalysis shape.
var verdictSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"isAgenticThreat":   map[string]any{"type": "BOOLEAN"},
		"threatLevel":       map[string]any{"type": "STRING", "enum": []string{"LOW", "MEDIUM", "HIGH", "CRITICAL"}},
		"confidenceScore":   map[string]any{"type": "INTEGER"},
		"detectedPatterns":  map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"explanation":       map[string]any{"type": "STRING"},
		"recommendedAction": map[string]any{"type": "STRING"},
		"source":            map[string]any{"type": "STRING"},
		"activity":          map[string]any{"type": "STRING"},
	},
	"required": []string{"isAgenticThreat", "threatLevel", "confidenceScore", "detectedPatterns", "explanation", "recommendedAction"},
}

// CloudEngine classifies by delegating to a hosted generateContent API with
// a strict JSON response schema.
type CloudEngine struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

func NewCloudEngine(baseURL, model, apiKey string) *CloudEngine {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &CloudEngine{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *generateContent `json:"systemInstruction,omitempty"`
	Contents          []generateContent `json:"contents"`
	GenerationConfig  struct {
		Temperature      float64 `json:"temperature"`
		ResponseMimeType string  `json:"responseMimeType,omitempty"`
		ResponseSchema   any     `json:"responseSchema,omitempty"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Classify submits the line with the defense instruction and parses the
// JSON verdict. Any failure, including a payload that does not validate
// against the schema, degrades to the fixed fallback verdict.
func (e *CloudEngine) Classify(ctx context.Context, logText string) types.ThreatAnalysis {
	verdict, err := e.classify(ctx, logText)
	if err != nil {
		log.Printf("[CLASSIFY] Cloud analysis failed: %v", err)
		return FallbackVerdict()
	}
	return verdict
}

func (e *CloudEngine) classify(ctx context.Context, logText string) (types.ThreatAnalysis, error) {
	var zero types.ThreatAnalysis

	reqBody := generateRequest{
		SystemInstruction: &generateContent{Parts: []generatePart{{Text: defenseInstruction}}},
		Contents:          []generateContent{{Parts: []generatePart{{Text: logText}}}},
	}
	// Zero temperature for deterministic security analysis
	reqBody.GenerationConfig.Temperature = 0.0
	reqBody.GenerationConfig.ResponseMimeType = "application/json"
	reqBody.GenerationConfig.ResponseSchema = verdictSchema

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", e.baseURL, e.model, e.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return zero, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("analysis connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("analysis endpoint returned status: %s", resp.Status)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return zero, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return zero, fmt.Errorf("analysis response carried no candidates")
	}

	return DecodeVerdict([]byte(genResp.Candidates[0].Content.Parts[0].Text))
}

// DecodeVerdict parses a JSON payload into a ThreatAnalysis and validates it
// against the schema before the verdict is accepted. Unknown fields and
// out-of-enumeration values are rejected rather than trusted.
func DecodeVerdict(payload []byte) (types.ThreatAnalysis, error) {
	var verdict types.ThreatAnalysis

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&verdict); err != nil {
		return verdict, fmt.Errorf("verdict decode failed: %w", err)
	}

	if !verdict.ThreatLevel.Valid() {
		return verdict, fmt.Errorf("verdict carries unknown threat level %q", verdict.ThreatLevel)
	}
	if verdict.ConfidenceScore < 0 || verdict.ConfidenceScore > 100 {
		return verdict, fmt.Errorf("verdict confidence %d out of range", verdict.ConfidenceScore)
	}
	if verdict.DetectedPatterns == nil {
		return verdict, fmt.Errorf("verdict missing detectedPatterns")
	}
	if verdict.Explanation == "" {
		return verdict, fmt.Errorf("verdict missing explanation")
	}
	if verdict.RecommendedAction == "" {
		return verdict, fmt.Errorf("verdict missing recommendedAction")
	}

	return verdict, nil
}
