package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts classification attempts
	ScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_scans_total",
		Help: "Total log lines submitted for classification",
	})

	// ThreatsDetected counts threat verdicts by severity bucket
	ThreatsDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_threats_detected_total",
		Help: "Threat verdicts by severity",
	}, []string{"level"})

	// GenerationsTotal counts produced attack lines by path
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sentinel_generations_total",
		Help: "Synthetic log lines generated, by mode (ai or procedural)",
	}, []string{"mode"})

	// SessionsSaved counts session snapshots
	SessionsSaved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_sessions_saved_total",
		Help: "Sessions persisted to the store",
	})

	// ConfigReloads counts successful SIGHUP reloads
	ConfigReloads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sentinel_config_reloads_total",
		Help: "Successful configuration reloads",
	})
)

// StartServer exposes /metrics on the given address. Blocks.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
