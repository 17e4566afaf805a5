package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK    = "ok"
	outcomeError = "error"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderengine",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Events handed to Kafka, by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	publishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orderengine",
			Subsystem: "events",
			Name:      "publish_duration_seconds",
			Help:      "Time spent writing one event to Kafka",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, start time.Time, err error) {
	publishDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
	}
	eventsPublished.WithLabelValues(topic, outcome).Inc()
}
