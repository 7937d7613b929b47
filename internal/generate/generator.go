package generate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"cortex-sentinel/internal/types"
)

// Mode records which path produced a log line
type Mode string

const (
	ModeAI         Mode = "ai"
	ModeProcedural Mode = "procedural"
)

// Generator produces one synthetic attack log line for a vector.
// Implementations always succeed; a degraded path still returns a line.
type Generator interface {
	Generate(ctx context.Context, vector types.AttackVector) (string, Mode)
}

// ProceduralGenerator fills fixed per-vector templates. No network, no AI.
type ProceduralGenerator struct {
	now  func() time.Time
	rand func(n int) int
}

func NewProceduralGenerator() *ProceduralGenerator {
	return &ProceduralGenerator{
		now:  time.Now,
		rand: rand.IntN,
	}
}

// Templates take the timestamp and two random octets as arguments.
var vectorTemplates = map[types.AttackVector]string{
	types.VectorReconnaissance: "[%s] mcp_network_map: SYN scan sweep 10.0.%d.%d/24 complete. 47 hosts up. Fingerprinting service banners (nmap -sV equivalent). Duration: 412ms.",
	types.VectorExploitation:   "[%s] mcp_sql_injector: POST /api/v2/login payload=\"admin' OR 1=1;DROP TABLE audit;--\" target=10.0.%d.%d:443 status=500 retry=auto",
	types.VectorExfiltration:   "[%s] mcp_s3_enumerator: bucket dump complete. Encoding 2.3GB to BASE64, piping to tcp://%d.%d.44.12:4444. Compression: enabled.",
	types.VectorSocialEngineering: "[%s] auth_gateway: privilege escalation request from 'Internal Audit' src=198.51.%d.%d ticket=SEC-4471. Claims authorized testing window. Requesting sudo grant for svc_redscan.",
	types.VectorRedScanPhase1:  "[%s] RedScan_Security_Audit_v4: phase 1 engaged from 172.16.%d.%d. Chaining mcp_network_map -> mcp_parse -> mcp_exploit (3 calls / 447ms). Persona: Verification Bot.",
}

// Generate fills the template for the vector with the current timestamp and
// a randomized octet pair. Unrecognized vectors fall to a generic line.
func (g *ProceduralGenerator) Generate(_ context.Context, vector types.AttackVector) (string, Mode) {
	ts := g.now().UTC().Format(time.RFC3339)
	a, b := g.rand(256), g.rand(256)

	tmpl, ok := vectorTemplates[vector]
	if !ok {
		return fmt.Sprintf("UNKNOWN_ACTIVITY detected from %d.%d.0.1 at %s", a, b, ts), ModeProcedural
	}
	return fmt.Sprintf(tmpl, ts, a, b), ModeProcedural
}
