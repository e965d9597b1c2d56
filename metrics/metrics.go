// Package metrics provides Prometheus metrics for model operations and caching backends.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "modelkit"

const (
	LabelModel   = "model"
	LabelOp      = "op"
	LabelOutcome = "outcome"
	LabelEvent   = "event"
	LabelResult  = "result"
)

// Operation outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeHookError = "hook_error"
	OutcomeNotFound  = "not_found"
	OutcomeError     = "error"
)

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Observer receives one notification per model operation.
type Observer interface {
	ObserveOperation(model, op, outcome string, elapsed time.Duration)
	ObserveHookFailure(model, event string)
}

// CacheObserver receives cache lookups from the caching backend.
type CacheObserver interface {
	ObserveCache(collection, result string)
}

// Recorder observes both model operations and cache lookups.
type Recorder interface {
	Observer
	CacheObserver
}

// Nop discards all observations.
type Nop struct{}

func (Nop) ObserveOperation(string, string, string, time.Duration) {}
func (Nop) ObserveHookFailure(string, string) {}
func (Nop) ObserveCache(string, string) {}

// Collector holds the Prometheus metrics of modelkit.
type Collector struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	HookFailures      *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of model operations by outcome",
			},
			[]string{LabelModel, LabelOp, LabelOutcome},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Model operation duration in seconds, hooks and validation included",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{LabelModel, LabelOp},
		),
		HookFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "hook_failures_total",
				Help:      "Total number of hooks that returned an error or panicked",
			},
			[]string{LabelModel, LabelEvent},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of caching backend lookups by result",
			},
			[]string{LabelModel, LabelResult},
		),
	}
}

func (c *Collector) ObserveOperation(model, op, outcome string, elapsed time.Duration) {
	c.OperationsTotal.With(prometheus.Labels{
		LabelModel:   model,
		LabelOp:      op,
		LabelOutcome: outcome,
	}).Inc()

	c.OperationDuration.With(prometheus.Labels{
		LabelModel: model,
		LabelOp:    op,
	}).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveHookFailure(model, event string) {
	c.HookFailures.With(prometheus.Labels{
		LabelModel: model,
		LabelEvent: event,
	}).Inc()
}

func (c *Collector) ObserveCache(collection, result string) {
	c.CacheLookups.With(prometheus.Labels{
		LabelModel:  collection,
		LabelResult: result,
	}).Inc()
}

var (
	_ Recorder      = (*Collector)(nil)
	_ Recorder      = Nop{}
	_ Observer      = (*Collector)(nil)
	_ CacheObserver = (*Collector)(nil)
	_ Observer      = Nop{}
	_ CacheObserver = Nop{}
)
