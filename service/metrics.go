package service

import (
	"context"

	"github.com/Comcast/nudge/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics are the Service's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	Ops        *prometheus.HistogramVec
	Selections *prometheus.CounterVec
	Events     *prometheus.CounterVec
	Exposures  *prometheus.CounterVec
}

// NewMetrics makes and registers collectors in a new registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Ops: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nudge",
			Name:      "op_duration_seconds",
			Help:      "Time to process an operation.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op", "result"}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nudge",
			Name:      "selections_total",
			Help:      "Next-message selections by outcome.",
		}, []string{"result"}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nudge",
			Name:      "message_events_total",
			Help:      "Message lifecycle events.",
		}, []string{"event"}),
		Exposures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nudge",
			Name:      "exposures_total",
			Help:      "Exposures by recording outcome.",
		}, []string{"result"}),
	}

	m.Registry.MustRegister(
		m.Ops,
		m.Selections,
		m.Events,
		m.Exposures,
		collectors.NewGoCollector(),
	)

	return m
}

// countingExposures counts exposures on their way to another
// recorder.
type countingExposures struct {
	next    core.ExposureRecorder
	counter *prometheus.CounterVec
}

func (e *countingExposures) RecordExposure(ctx context.Context, m *core.Message) error {
	var err error
	if e.next != nil {
		err = e.next.RecordExposure(ctx, m)
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	e.counter.WithLabelValues(result).Inc()
	return err
}
