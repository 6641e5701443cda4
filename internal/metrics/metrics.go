package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mindvault"

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	goalsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "journal",
		Name:      "goals_created_total",
		Help:      "Goals created.",
	})

	transcriptionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "journal",
		Name:      "transcriptions_created_total",
		Help:      "Transcriptions created.",
	})

	trackedSeconds = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tracking",
		Name:      "seconds_total",
		Help:      "Seconds recorded through tracking sessions.",
	})

	activities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "activity",
		Name:      "logged_total",
		Help:      "User activity rows appended, by type.",
	}, []string{"type"})

	exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "documents_total",
		Help:      "Export attempts by format and result.",
	}, []string{"format", "result"})

	exportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "export",
		Name:      "duration_seconds",
		Help:      "Time spent rendering exports.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"format"})

	eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Activity events handed to the broker, by result.",
	}, []string{"result"})

	webhookEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "billing",
		Name:      "webhook_events_total",
		Help:      "Payment webhook deliveries by provider and result.",
	}, []string{"provider", "result"})

	searchQueries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "search",
		Name:      "queries_total",
		Help:      "Search queries by backend.",
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(
		httpRequests,
		httpDuration,
		goalsCreated,
		transcriptionsCreated,
		trackedSeconds,
		activities,
		exports,
		exportDuration,
		eventsPublished,
		webhookEvents,
		searchQueries,
	)
}

func ObserveRequest(route, method string, code int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func GoalCreated() {
	goalsCreated.Inc()
}

func TranscriptionCreated() {
	transcriptionsCreated.Inc()
}

func TrackedSeconds(seconds int64) {
	if seconds <= 0 {
		return
	}
	trackedSeconds.Add(float64(seconds))
}

func ActivityLogged(activityType string) {
	activities.WithLabelValues(activityType).Inc()
}

// ExportFinished records one export; err == nil counts as success.
func ExportFinished(format string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	exports.WithLabelValues(format, result).Inc()
	exportDuration.WithLabelValues(format).Observe(elapsed.Seconds())
}

func EventPublished(err error) {
	if err != nil {
		eventsPublished.WithLabelValues("error").Inc()
		return
	}
	eventsPublished.WithLabelValues("ok").Inc()
}

func WebhookEvent(provider, result string) {
	webhookEvents.WithLabelValues(provider, result).Inc()
}

func SearchQuery(backend string) {
	searchQueries.WithLabelValues(backend).Inc()
}
