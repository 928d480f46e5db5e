package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_posts_created_total",
		Help: "Total posts created",
	})
	PostsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_posts_deleted_total",
		Help: "Total posts deleted",
	})
	CreateRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_create_rejected_total",
		Help: "Total rejected create attempts",
	}, []string{"reason"})
	FeedRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_feed_requests_total",
		Help: "Total feed list requests",
	})
	DirectoryBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_directory_batches_total",
		Help: "Total batched profile directory lookups",
	})
	DirectoryRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_directory_retries_total",
		Help: "Total profile directory retry attempts",
	}, []string{"endpoint"})
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirpd_request_duration_seconds",
		Help:    "Request duration seconds per operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirpd_command_errors_total",
		Help: "Total CLI command errors",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		PostsCreated, PostsDeleted, CreateRejected, FeedRequests,
		DirectoryBatches, DirectoryRetries, RequestDuration,
		CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("CHIRPD_METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveRequestDuration records how long an operation took.
func ObserveRequestDuration(op string, start time.Time) {
	RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncCreateRejected counts a rejected create by reason.
func IncCreateRejected(reason string) { CreateRejected.WithLabelValues(reason).Inc() }

// IncDirectoryRetry increments the retry counter for an endpoint.
func IncDirectoryRetry(endpoint string) { DirectoryRetries.WithLabelValues(endpoint).Inc() }

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
