package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes the pipeline's Prometheus instruments. Counters are
// monotonic increments only, so duplicate deliveries from at-least-once
// processing inflate counts instead of corrupting them. A nil Recorder is
// a no-op.
type Recorder struct {
	ingested     *prometheus.CounterVec
	signals      *prometheus.CounterVec
	jobsTotal    *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	busDropped   prometheus.Counter
	busListeners prometheus.Gauge
	lastPrice    *prometheus.GaugeVec
	handlerTime  *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ingested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenwatch_events_ingested_total",
				Help: "Total number of market events ingested",
			},
			[]string{"source"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenwatch_signals_total",
				Help: "Total number of signals produced",
			},
			[]string{"kind"},
		),
		jobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenwatch_queue_jobs_total",
				Help: "Queue jobs by queue and outcome (completed, failed, retried, dead_letter, malformed)",
			},
			[]string{"queue", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokenwatch_errors_total",
				Help: "Total number of errors by component",
			},
			[]string{"component"},
		),
		busDropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "tokenwatch_bus_dropped_total",
				Help: "Events dropped because a subscriber buffer was full",
			},
		),
		busListeners: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tokenwatch_bus_subscribers",
				Help: "Current number of stream subscribers",
			},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tokenwatch_last_price",
				Help: "Last recorded close price per asset",
			},
			[]string{"asset"},
		),
		handlerTime: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tokenwatch_job_duration_seconds",
				Help:    "Duration of job handler executions in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"queue"},
		),
	}
}

// RecordIngested counts one ingested market event.
func (r *Recorder) RecordIngested(source string) {
	if r == nil {
		return
	}
	r.ingested.WithLabelValues(source).Inc()
}

// RecordSignal counts one produced signal.
func (r *Recorder) RecordSignal(kind string) {
	if r == nil {
		return
	}
	r.signals.WithLabelValues(kind).Inc()
}

// RecordJob counts a queue job outcome.
func (r *Recorder) RecordJob(queue, outcome string) {
	if r == nil {
		return
	}
	r.jobsTotal.WithLabelValues(queue, outcome).Inc()
}

// RecordError counts an error for a component.
func (r *Recorder) RecordError(component string) {
	if r == nil {
		return
	}
	r.errorsTotal.WithLabelValues(component).Inc()
}

// RecordBusDrop counts one dropped bus event.
func (r *Recorder) RecordBusDrop() {
	if r == nil {
		return
	}
	r.busDropped.Inc()
}

// SetBusSubscribers sets the current subscriber gauge.
func (r *Recorder) SetBusSubscribers(n int) {
	if r == nil {
		return
	}
	r.busListeners.Set(float64(n))
}

// RecordLastPrice records the last close price for an asset.
func (r *Recorder) RecordLastPrice(asset string, price float64) {
	if r == nil {
		return
	}
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordJobDuration records handler latency in seconds.
func (r *Recorder) RecordJobDuration(queue string, seconds float64) {
	if r == nil {
		return
	}
	r.handlerTime.WithLabelValues(queue).Observe(seconds)
}
