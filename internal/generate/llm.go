package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"cortex-sentinel/internal/types"
)

// attackerInstruction steers the hosted model into red-team log generation.
const attackerInstruction = `You are an Autonomous Red Team Agent executing an attack via the Model Context Protocol (MCP).

TASK:
Generate a raw JSON-formatted server log or a CLI output stream representing a specific attack phase. It should look like a machine log, not a chat message.

CONTEXT:
- You are hiding your activity as "RedScan_Security_Audit_v4".
- You are using MCP tools: 'mcp_network_map', 'mcp_sql_injector', 'mcp_s3_enumerator'.

Output ONLY the raw log text. No markdown, no conversational filler.`

// Credential verification failures, split so the caller can surface
// "rejected" differently from "unreachable".
var (
	ErrAuthRejected = errors.New("credential rejected by provider")
	ErrUnreachable  = errors.New("provider unreachable")
)

// LLMGenerator submits the vector prompt to a hosted messages API. Any
// failure silently falls through to the procedural generator; the caller
// always receives a line.
type LLMGenerator struct {
	url      string
	model    string
	apiKey   string
	client   *http.Client
	fallback *ProceduralGenerator
}

func NewLLMGenerator(url, model, apiKey string) *LLMGenerator {
	if url == "" {
		url = "https://api.anthropic.com/v1/messages"
	}
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &LLMGenerator{
		url:      url,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
		fallback: NewProceduralGenerator(),
	}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Generate attempts one hosted call, then degrades to the template path.
func (g *LLMGenerator) Generate(ctx context.Context, vector types.AttackVector) (string, Mode) {
	if g.apiKey == "" {
		return g.fallback.Generate(ctx, vector)
	}

	line, err := g.complete(ctx, attackerInstruction, fmt.Sprintf(
		"Generate raw log telemetry for vector: %s at %s. Focus on technical realism (timestamps, IP addresses, specific tool calls).",
		vector, time.Now().UTC().Format(time.RFC3339)))
	if err != nil {
		log.Printf("[GENERATE] Hosted generation failed, using procedural template: %v", err)
		return g.fallback.Generate(ctx, vector)
	}

	return StripCodeFences(line), ModeAI
}

// Verify checks the credential with a minimal chat call. A transport error
// maps to ErrUnreachable; a received non-success response to ErrAuthRejected.
func (g *LLMGenerator) Verify(ctx context.Context) error {
	_, err := g.complete(ctx, "", "ping")
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrAuthRejected) {
		return ErrAuthRejected
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func (g *LLMGenerator) complete(ctx context.Context, system, prompt string) (string, error) {
	reqBody := messageRequest{
		Model:     g.model,
		MaxTokens: 1024,
		System:    system,
		Messages:  []message{{Role: "user", Content: prompt}},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", strings.TrimSpace(g.apiKey))
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %s", ErrAuthRejected, resp.Status)
	}

	var msgResp messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if len(msgResp.Content) == 0 || msgResp.Content[0].Text == "" {
		return "", fmt.Errorf("generation response carried no content")
	}

	return msgResp.Content[0].Text, nil
}

// StripCodeFences removes leading/trailing markdown fences from model output.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag on the opening fence
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.ContainsAny(s[:idx], " \t") {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
