package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "alarm_relay_"

	// ReasonMalformed labels events rejected by validation.
	ReasonMalformed = "malformed"
	// ReasonLogWrite labels audit-log append failures.
	ReasonLogWrite = "log_write"
)

var (
	registerOnce sync.Once

	eventsReceived   prometheus.Counter
	eventsSuppressed prometheus.Counter
	eventErrors      *prometheus.CounterVec

	notificationsSent   *prometheus.CounterVec
	notificationsFailed *prometheus.CounterVec

	limiterSources prometheus.Gauge
	temperature    prometheus.Gauge
)

// Init registers the relay's collectors. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		eventsReceived = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_received_total",
				Help: "Total alarm events received from intake",
			},
		)
		eventsSuppressed = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_suppressed_total",
				Help: "Total alarm events suppressed by rate limiting",
			},
		)
		eventErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_errors_total",
				Help: "Total pipeline errors by reason",
			},
			[]string{"reason"},
		)

		notificationsSent = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_sent_total",
				Help: "Total successful deliveries by channel",
			},
			[]string{"channel"},
		)
		notificationsFailed = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_failed_total",
				Help: "Total failed deliveries by channel",
			},
			[]string{"channel"},
		)

		limiterSources = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "limiter_sources",
				Help: "Alarm sources currently tracked by the rate limiter",
			},
		)
		temperature = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "temperature_celsius",
				Help: "Current simulated temperature value",
			},
		)

		prometheus.MustRegister(
			eventsReceived,
			eventsSuppressed,
			eventErrors,
			notificationsSent,
			notificationsFailed,
			limiterSources,
			temperature,
		)
	})
}

// EventReceived counts one intake event, valid or not.
func EventReceived() {
	if eventsReceived != nil {
		eventsReceived.Inc()
	}
}

// EventSuppressed counts one rate-limited event.
func EventSuppressed() {
	if eventsSuppressed != nil {
		eventsSuppressed.Inc()
	}
}

// EventError counts one pipeline error by reason.
func EventError(reason string) {
	if eventErrors != nil {
		eventErrors.WithLabelValues(reason).Inc()
	}
}

// NotificationResult counts one delivery attempt outcome for a channel.
func NotificationResult(channel string, success bool) {
	if notificationsSent == nil {
		return
	}

	if success {
		notificationsSent.WithLabelValues(channel).Inc()
	} else {
		notificationsFailed.WithLabelValues(channel).Inc()
	}
}

// SetLimiterSources publishes the tracked source count.
func SetLimiterSources(n int) {
	if limiterSources != nil {
		limiterSources.Set(float64(n))
	}
}

// SetTemperature publishes the simulated sensor value.
func SetTemperature(value float64) {
	if temperature != nil {
		temperature.Set(value)
	}
}
