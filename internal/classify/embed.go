package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"
)

// EmbedClient talks to a local embedding endpoint (e.g., Ollama)
type EmbedClient struct {
	url    string
	model  string
	client *http.Client
}

func NewEmbedClient(url, model string) *EmbedClient {
	if url == "" {
		url = "http://localhost:11434/api/embeddings"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &EmbedClient{
		url:   url,
		model: model,
		client: &http.Client{
			Timeout: 10 * time.Second, // Don't block too long
		},
	}
}

// embedRequest represents the payload for the embedding endpoint
type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// embedResponse represents the embedding endpoint response
type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the unit-normalized embedding vector for the text.
func (c *EmbedClient) Embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := embedRequest{
		Model:  c.model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding endpoint returned status: %s", resp.Status)
	}

	var embResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(embResp.Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned empty vector")
	}

	return normalize(embResp.Embedding), nil
}

// normalize scales v to unit length so dot products are cosine similarities.
func normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

// dot assumes both vectors are unit-normalized and of equal length.
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// maxDot returns the highest similarity between v and any vector in set.
func maxDot(v []float64, set [][]float64) float64 {
	best := -1.0
	for _, ref := range set {
		if s := dot(v, ref); s > best {
			best = s
		}
	}
	if best < -1.0 || len(set) == 0 {
		return 0
	}
	return best
}
