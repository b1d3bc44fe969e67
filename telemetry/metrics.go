// Package telemetry provides Prometheus metrics and correlation-id aware logging helpers.
//
// The fetcher is a one-shot process, so metrics live on a private registry and
// are exported by writing a node_exporter textfile (WriteTextfile) at exit
// instead of being scraped.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Registry holds every metric below.
	Registry *prometheus.Registry

	// Counters
	WindowsFetched    prometheus.Counter
	WindowsFailed     *prometheus.CounterVec // label: reason
	WindowsEmpty      *prometheus.CounterVec // label: absent
	WindowsTruncated  prometheus.Counter
	CommentsCollected prometheus.Counter
	DuplicatesSkipped prometheus.Counter

	// Histograms (seconds)
	FetchDuration prometheus.Observer
	RunDuration   prometheus.Observer

	// Gauges
	TranscriptMessages prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		Registry = prometheus.NewRegistry()
		f := promauto.With(Registry)
		WindowsFetched = f.NewCounter(prometheus.CounterOpts{Name: "vodchat_windows_fetched_total", Help: "Chat windows fetched successfully"})
		WindowsFailed = f.NewCounterVec(prometheus.CounterOpts{Name: "vodchat_windows_failed_total", Help: "Chat windows skipped after a fetch error"}, []string{"reason"})
		WindowsEmpty = f.NewCounterVec(prometheus.CounterOpts{Name: "vodchat_windows_empty_total", Help: "Chat windows whose response lacked a payload level"}, []string{"absent"})
		WindowsTruncated = f.NewCounter(prometheus.CounterOpts{Name: "vodchat_windows_truncated_total", Help: "Chat windows that reported more pages than were fetched"})
		CommentsCollected = f.NewCounter(prometheus.CounterOpts{Name: "vodchat_comments_collected_total", Help: "Distinct comments stored"})
		DuplicatesSkipped = f.NewCounter(prometheus.CounterOpts{Name: "vodchat_comments_duplicate_total", Help: "Comments dropped because their offset was already stored"})
		FetchDuration = f.NewHistogram(prometheus.HistogramOpts{Name: "vodchat_fetch_duration_seconds", Help: "GQL window request duration seconds", Buckets: prometheus.DefBuckets})
		RunDuration = f.NewHistogram(prometheus.HistogramOpts{Name: "vodchat_run_duration_seconds", Help: "Whole transcript fetch duration seconds", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200}})
		TranscriptMessages = f.NewGauge(prometheus.GaugeOpts{Name: "vodchat_transcript_messages", Help: "Messages in the last written transcript"})
	})
}

// WriteTextfile writes the registry in text exposition format to path.
func WriteTextfile(path string) error {
	Init()
	return prometheus.WriteToTextfile(path, Registry)
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context carrying the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
