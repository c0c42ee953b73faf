package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run describes one finished optimization pass
type Run struct {
	Appliances int
	Duration   time.Duration
	PeakKW     float64
	ApproxCost float64
}

// Sink records optimization runs
type Sink interface {
	RecordRun(r Run)
	RecordRejected(reason string)
}

// NopSink discards all records
type NopSink struct{}

func (NopSink) RecordRun(Run)         {}
func (NopSink) RecordRejected(string) {}

// PromSink records optimization runs in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	latency    prometheus.Histogram
	appliances prometheus.Histogram
	peak       prometheus.Gauge
	cost       prometheus.Gauge
}

// NewPromSink registers scheduler metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are already
// registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loadplan_runs_total",
		Help: "Total number of optimization requests by outcome",
	}, []string{"outcome"})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "loadplan_run_duration_seconds",
		Help:    "Time spent in one optimization pass",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
	appliances := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "loadplan_run_appliances",
		Help:    "Number of appliances per optimization pass",
		Buckets: prometheus.LinearBuckets(5, 5, 10),
	})
	peak := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "loadplan_last_peak_kw",
		Help: "Peak hourly load of the last schedule",
	})
	cost := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "loadplan_last_cost",
		Help: "Approximate cost of the last schedule",
	})

	var err error
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if appliances, err = register(reg, appliances); err != nil {
		return nil, err
	}
	if peak, err = register(reg, peak); err != nil {
		return nil, err
	}
	if cost, err = register(reg, cost); err != nil {
		return nil, err
	}

	return &PromSink{runs: runs, latency: latency, appliances: appliances, peak: peak, cost: cost}, nil
}

// RecordRun counts a successful pass and updates the last-run gauges
func (s *PromSink) RecordRun(r Run) {
	s.runs.WithLabelValues("ok").Inc()
	s.latency.Observe(r.Duration.Seconds())
	s.appliances.Observe(float64(r.Appliances))
	s.peak.Set(r.PeakKW)
	s.cost.Set(r.ApproxCost)
}

// RecordRejected counts a request refused before optimization
func (s *PromSink) RecordRejected(reason string) {
	s.runs.WithLabelValues(reason).Inc()
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
