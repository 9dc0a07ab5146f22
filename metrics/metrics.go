// Package metrics exports lazy-object lifecycle events to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meenmo/qlgo/patterns"
)

// Recorder implements patterns.Recorder on Prometheus collectors. Every
// series is labelled with the object name given through patterns.WithName.
type Recorder struct {
	Calculations        *prometheus.CounterVec
	CalculationErrors   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec
	Invalidations       *prometheus.CounterVec
	Notifications       *prometheus.CounterVec
	ObserversNotified   *prometheus.CounterVec
}

var _ patterns.Recorder = (*Recorder)(nil)

// New creates the collectors under namespace.
func New(namespace string) *Recorder {
	labels := []string{"object"}
	return &Recorder{
		Calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "calculations_total",
			Help:      "Total calculations performed",
		}, labels),
		CalculationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "calculation_errors_total",
			Help:      "Total calculations that failed",
		}, labels),
		CalculationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "calculation_duration_seconds",
			Help:      "Calculation duration in seconds",
			Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
		}, labels),
		Invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "invalidations_total",
			Help:      "Total cache invalidations received",
		}, labels),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "notifications_total",
			Help:      "Total notifications sent to observers",
		}, labels),
		ObserversNotified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lazy",
			Name:      "observers_notified_total",
			Help:      "Total observer updates fanned out",
		}, labels),
	}
}

// Register adds every collector to reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		r.Calculations,
		r.CalculationErrors,
		r.CalculationDuration,
		r.Invalidations,
		r.Notifications,
		r.ObserversNotified,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) Calculation(name string, elapsed time.Duration, err error) {
	r.Calculations.WithLabelValues(name).Inc()
	r.CalculationDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		r.CalculationErrors.WithLabelValues(name).Inc()
	}
}

func (r *Recorder) Invalidation(name string) {
	r.Invalidations.WithLabelValues(name).Inc()
}

func (r *Recorder) Notification(name string, observers int) {
	r.Notifications.WithLabelValues(name).Inc()
	r.ObserversNotified.WithLabelValues(name).Add(float64(observers))
}
