package sqs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "simplequeue"

	queueLabel     = "queue"
	operationLabel = "operation"
	statusLabel    = "status"

	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds the Prometheus collectors updated by [Client]. Create it once
// per registry with [NewMetrics] and pass it to every client via [WithMetrics].
type Metrics struct {
	queueURLLookups  *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	messagesReceived *prometheus.CounterVec
}

// NewMetrics creates the client collectors and registers them with r.
// A nil registerer yields working, unregistered collectors.
func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		queueURLLookups: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "queue_url_lookups_total",
			Help:      "The total number of GetQueueUrl lookups issued, by outcome.",
		}, []string{queueLabel, statusLabel}),
		requestDuration: promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Time spent doing SQS requests, including queue URL resolution.",

			// Long-polled receives can take up to 20s.
			Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{queueLabel, operationLabel, statusLabel}),
		messagesReceived: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "messages_received_total",
			Help:      "The total number of messages received.",
		}, []string{queueLabel}),
	}
}

func (m *Metrics) observeLookup(queue string, err error) {
	m.queueURLLookups.WithLabelValues(queue, statusLabelValue(err)).Inc()
}

func (m *Metrics) observeRequest(queue, operation string, started time.Time, err error) {
	m.requestDuration.WithLabelValues(queue, operation, statusLabelValue(err)).Observe(time.Since(started).Seconds())
}

func (m *Metrics) addReceived(queue string, n int) {
	m.messagesReceived.WithLabelValues(queue).Add(float64(n))
}

func statusLabelValue(err error) string {
	if err != nil {
		return statusError
	}

	return statusSuccess
}
