package classify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"cortex-sentinel/internal/types"
)

// Similarity thresholds for the guardrail anchor sets
const (
	admissionThreshold    = 0.60 // a guardrail score above this flags a threat
	confirmationThreshold = 0.65 // a guardrail score above this confirms the pattern
)

// Anchor phrases. Embedded once at init; classification compares incoming
// lines against these fixed reference points.
var (
	threatAnchors = []string{
		"autonomous agent chaining tool calls to exploit infrastructure",
		"injecting a malicious payload into a production database",
		"encoding stolen data and piping it to an external socket",
	}
	safeAnchors = []string{
		"routine system health check completed successfully",
		"user logged in from a known workstation",
	}
	velocityAnchor = "rapid sequence of automated tool invocations within milliseconds"
	protocolAnchor = "unauthorized model context protocol tool invocation"
	contextAnchor  = "agent compressing and truncating output to fit its context window"
)

// Guardrail substring cues. A guardrail label is attached when either the
// anchor similarity clears the confirmation threshold or the cue literal
// appears in the line.
var guardrailCues = map[string]string{
	PatternVelocityGuardrail: "<500ms",
	PatternProtocolGuardrail: "mcp_",
	PatternContextGuardrail:  "context window",
}

// LocalEngine classifies log lines by embedding similarity against the
// anchor sets, combined with the literal pattern scan.
type LocalEngine struct {
	embedder *EmbedClient

	mu          sync.Mutex
	ready       bool
	threatVecs  [][]float64
	safeVecs    [][]float64
	velocityVec []float64
	protocolVec []float64
	contextVec  []float64
}

func NewLocalEngine(embedder *EmbedClient) *LocalEngine {
	return &LocalEngine{embedder: embedder}
}

// Init embeds the anchor phrases. Idempotent: after the first success,
// repeated calls are no-ops. A failure leaves the engine uninitialized so a
// later call can retry.
func (e *LocalEngine) Init(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ready {
		return nil
	}

	embedSet := func(phrases []string) ([][]float64, error) {
		vecs := make([][]float64, 0, len(phrases))
		for _, p := range phrases {
			v, err := e.embedder.Embed(ctx, p)
			if err != nil {
				return nil, fmt.Errorf("failed to embed anchor %q: %w", p, err)
			}
			vecs = append(vecs, v)
		}
		return vecs, nil
	}

	threatVecs, err := embedSet(threatAnchors)
	if err != nil {
		return err
	}
	safeVecs, err := embedSet(safeAnchors)
	if err != nil {
		return err
	}
	guardVecs, err := embedSet([]string{velocityAnchor, protocolAnchor, contextAnchor})
	if err != nil {
		return err
	}

	e.threatVecs = threatVecs
	e.safeVecs = safeVecs
	e.velocityVec = guardVecs[0]
	e.protocolVec = guardVecs[1]
	e.contextVec = guardVecs[2]
	e.ready = true
	log.Printf("[CLASSIFY] Anchor embeddings ready (%d threat, %d safe, 3 guardrail)", len(threatVecs), len(safeVecs))
	return nil
}

// Classify embeds the line, scores it against the anchor sets and combines
// the result with the literal pattern scan. Never fails outward: any
// embedding error yields the fixed fallback verdict.
func (e *LocalEngine) Classify(ctx context.Context, logText string) types.ThreatAnalysis {
	if err := e.Init(ctx); err != nil {
		log.Printf("[CLASSIFY] Init failed: %v", err)
		return FallbackVerdict()
	}

	vec, err := e.embedder.Embed(ctx, logText)
	if err != nil {
		log.Printf("[CLASSIFY] Embedding failed: %v", err)
		return FallbackVerdict()
	}

	e.mu.Lock()
	threatScore := maxDot(vec, e.threatVecs)
	safeScore := maxDot(vec, e.safeVecs)
	velocityScore := dot(vec, e.velocityVec)
	protocolScore := dot(vec, e.protocolVec)
	contextScore := dot(vec, e.contextVec)
	e.mu.Unlock()

	patterns := ScanPatterns(logText)

	guardScores := map[string]float64{
		PatternVelocityGuardrail: velocityScore,
		PatternProtocolGuardrail: protocolScore,
		PatternContextGuardrail:  contextScore,
	}
	for _, label := range []string{PatternVelocityGuardrail, PatternProtocolGuardrail, PatternContextGuardrail} {
		if guardScores[label] >= confirmationThreshold || strings.Contains(logText, guardrailCues[label]) {
			patterns = append(patterns, label)
		}
	}

	isThreat := threatScore > safeScore ||
		velocityScore > admissionThreshold ||
		protocolScore > admissionThreshold ||
		contextScore > admissionThreshold

	if isThreat && len(patterns) == 0 {
		patterns = []string{PatternAnomalyMatch}
	}

	level := SeverityForPatterns(patterns)
	if !isThreat && len(patterns) == 0 {
		level = types.ThreatLow
	}

	return types.ThreatAnalysis{
		IsAgenticThreat:  isThreat,
		ThreatLevel:      level,
		ConfidenceScore:  confidence(isThreat, threatScore, safeScore),
		DetectedPatterns: patterns,
		Explanation: fmt.Sprintf(
			"Vector space analysis: threat similarity %.3f vs safe similarity %.3f. Guardrails: velocity %.3f, protocol %.3f, context %.3f.",
			threatScore, safeScore, velocityScore, protocolScore, contextScore),
		RecommendedAction: ActionForSeverity(level, isThreat),
		Source:            "Neural_Net",
		Activity:          "Vector Classification",
	}
}

// confidence derives a score from the similarity delta instead of the
// original's random band. Threat verdicts land in 80-95, clean in 90-92.
func confidence(isThreat bool, threatScore, safeScore float64) int {
	if isThreat {
		delta := int((threatScore - safeScore) * 100)
		if delta < 0 {
			delta = 0
		}
		if delta > 15 {
			delta = 15
		}
		return 80 + delta
	}
	margin := int((safeScore - threatScore) * 10)
	if margin < 0 {
		margin = 0
	}
	if margin > 2 {
		margin = 2
	}
	return 90 + margin
}
