package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Call metrics
	Calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_calls_total",
			Help: "Total number of analysis calls",
		},
		[]string{"provider", "capability", "status"}, // status: success|error
	)

	CallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_call_duration_seconds",
			Help:    "End-to-end analysis call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider", "capability"},
	)

	// Dispatch metrics
	Dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_provider_dispatches_total",
			Help: "Total number of batch dispatches to a provider",
		},
		[]string{"provider", "capability", "attempt", "status"}, // attempt: initial|retry
	)

	DispatchLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "insight_provider_dispatch_latency_seconds",
			Help:    "Provider dispatch latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider", "capability"},
	)

	BatchItemFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_batch_item_failures_total",
			Help: "Units reported failed by a provider batch response",
		},
		[]string{"provider", "capability", "attempt"},
	)

	Retries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_retries_total",
			Help: "Calls that entered the retry dispatch",
		},
		[]string{"provider", "capability"},
	)

	DroppedOrdinals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_dropped_ordinals_total",
			Help: "Units that failed both the initial and the retry dispatch",
		},
		[]string{"provider", "capability"},
	)

	// System metrics
	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_kafka_messages_total",
			Help: "Total Kafka messages published",
		},
		[]string{"topic", "status"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "insight_http_requests_total",
			Help: "Inbound API requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(Calls)
	prometheus.MustRegister(CallDuration)

	prometheus.MustRegister(Dispatches)
	prometheus.MustRegister(DispatchLatency)
	prometheus.MustRegister(BatchItemFailures)
	prometheus.MustRegister(Retries)
	prometheus.MustRegister(DroppedOrdinals)

	prometheus.MustRegister(KafkaMessages)
	prometheus.MustRegister(HTTPRequests)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordCall records a finished analysis call
func RecordCall(provider, capability string, duration time.Duration, err error) {
	Calls.WithLabelValues(provider, capability, status(err)).Inc()
	CallDuration.WithLabelValues(provider, capability).Observe(duration.Seconds())
}

// RecordDispatch records one provider dispatch and the units it reported failed
func RecordDispatch(provider, capability, attempt string, latency time.Duration, failed int, err error) {
	Dispatches.WithLabelValues(provider, capability, attempt, status(err)).Inc()
	DispatchLatency.WithLabelValues(provider, capability).Observe(latency.Seconds())

	if failed > 0 {
		BatchItemFailures.WithLabelValues(provider, capability, attempt).Add(float64(failed))
	}
}

// RecordRetry records that a call entered the retry dispatch
func RecordRetry(provider, capability string) {
	Retries.WithLabelValues(provider, capability).Inc()
}

// RecordDropped records units silently dropped after the retry
func RecordDropped(provider, capability string, count int) {
	if count > 0 {
		DroppedOrdinals.WithLabelValues(provider, capability).Add(float64(count))
	}
}

// RecordKafkaMessage records a publish attempt
func RecordKafkaMessage(topic string, err error) {
	KafkaMessages.WithLabelValues(topic, status(err)).Inc()
}

// RecordHTTPRequest records an inbound API request
func RecordHTTPRequest(route string, code int) {
	HTTPRequests.WithLabelValues(route, http.StatusText(code)).Inc()
}
