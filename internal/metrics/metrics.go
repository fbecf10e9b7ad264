package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace for all eventdesk metrics
const namespace = "eventdesk"

// Registry is the process-wide registry served on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// Domain metrics
var (
	// LoginAttempts counts login attempts by outcome
	// (success, invalid_credentials, disabled, invalid_input, error).
	LoginAttempts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Total number of admin login attempts by result",
		},
		[]string{"result"},
	)

	// EventMutations counts successful event writes by action
	// (create, update, delete, replace_blocks).
	EventMutations = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_mutations_total",
			Help:      "Total number of successful event mutations",
		},
		[]string{"action"},
	)

	// EventStatusChanges counts updates that set an event status.
	EventStatusChanges = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_status_changes_total",
			Help:      "Total number of event updates that set a status",
		},
		[]string{"status"},
	)

	// ContentBlocksPerReplace records the size of each content block replacement.
	ContentBlocksPerReplace = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_blocks_per_replace",
			Help:      "Number of content blocks written by each replacement",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)
)

var initOnce sync.Once

// Init registers the Go and process collectors and sets AppInfo. Calls after
// the first are no-ops.
func Init(version, commit, buildDate string) {
	initOnce.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordLogin increments LoginAttempts for result.
func RecordLogin(result string) {
	LoginAttempts.WithLabelValues(result).Inc()
}

// RecordEventMutation increments EventMutations for action.
func RecordEventMutation(action string) {
	EventMutations.WithLabelValues(action).Inc()
}

// RecordStatusChange increments EventStatusChanges for status.
func RecordStatusChange(status string) {
	EventStatusChanges.WithLabelValues(status).Inc()
}

// RecordBlockReplace records a content block replacement of count blocks.
func RecordBlockReplace(count int) {
	EventMutations.WithLabelValues("replace_blocks").Inc()
	ContentBlocksPerReplace.Observe(float64(count))
}
