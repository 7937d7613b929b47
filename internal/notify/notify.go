package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"cortex-sentinel/internal/types"
)

// Notifier posts critical verdicts to a webhook. Fire-and-forget: delivery
// failures are logged, never surfaced to the classification path.
type Notifier struct {
	mu        sync.RWMutex
	webhook   string
	allowlist []string
	client    *http.Client
}

func NewNotifier(webhook string, allowlist []string) *Notifier {
	return &Notifier{
		webhook:   webhook,
		allowlist: allowlist,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// UpdateConfig swaps the webhook settings on reload.
func (n *Notifier) UpdateConfig(webhook string, allowlist []string) {
	n.mu.Lock()
	n.webhook = webhook
	n.allowlist = allowlist
	n.mu.Unlock()
}

// Notify sends an alert for CRITICAL entries from non-allowlisted sources.
func (n *Notifier) Notify(entry types.LogEntry) {
	n.mu.RLock()
	webhook := n.webhook
	allowlist := n.allowlist
	n.mu.RUnlock()

	if webhook == "" || entry.ThreatLevel != types.ThreatCritical {
		return
	}
	for _, src := range allowlist {
		if src == entry.Source {
			log.Printf("[NOTIFY] Alert suppressed by allowlist for source: %s", entry.Source)
			return
		}
	}

	go n.send(webhook, entry)
}

func (n *Notifier) send(webhook string, entry types.LogEntry) {
	payload := map[string]string{
		"content": fmt.Sprintf("CRITICAL verdict [%s] %s | patterns: %s | %s",
			entry.Source, entry.Activity,
			strings.Join(entry.Details.DetectedPatterns, ", "),
			entry.Details.RecommendedAction),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[NOTIFY] Failed to encode alert: %v", err)
		return
	}

	resp, err := n.client.Post(webhook, "application/json", bytes.NewBuffer(body))
	if err != nil {
		log.Printf("[NOTIFY] Webhook delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("[NOTIFY] Webhook returned status: %s", resp.Status)
	}
}
