package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace string = "draft_quote"

const (
	CreateMode string = "create"
	UpdateMode string = "update"

	SuccessOutcome   string = "success"
	InvalidOutcome   string = "invalid"
	FailedOutcome    string = "failed"
	DeletedOutcome   string = "deleted"
	CoalescedOutcome string = "coalesced"
)

// Metrics collects the store counters. A nil *Metrics records nothing.
type Metrics struct {
	saves          *prometheus.CounterVec
	saveDuration   *prometheus.HistogramVec
	autosaves      prometheus.Counter
	recalculations prometheus.Counter
	sessions       prometheus.Gauge
	portCalls      *prometheus.CounterVec
}

func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Draft quote saves by mode and outcome.",
		}, []string{"mode", "outcome"}),
		saveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "save_duration_seconds",
			Help:      "Persistence round trip duration of draft quote saves.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		autosaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "autosaves_total",
			Help:      "Saves triggered by the autosave timer.",
		}),
		recalculations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "totals_recalculations_total",
			Help:      "Option totals recomputations.",
		}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_sessions",
			Help:      "Draft quote editing sessions currently open.",
		}),
		portCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "port_calls_total",
			Help:      "Quote service calls other than saves by operation and outcome.",
		}, []string{"operation", "outcome"}),
	}
}

func (metrics *Metrics) SaveCompleted(mode, outcome string, duration time.Duration) {
	if metrics == nil {
		return
	}
	metrics.saves.WithLabelValues(mode, outcome).Inc()
	if duration > 0 {
		metrics.saveDuration.WithLabelValues(mode).Observe(duration.Seconds())
	}
}

func (metrics *Metrics) AutosaveTriggered() {
	if metrics == nil {
		return
	}
	metrics.autosaves.Inc()
}

func (metrics *Metrics) TotalsRecalculated(count int) {
	if metrics == nil || count <= 0 {
		return
	}
	metrics.recalculations.Add(float64(count))
}

func (metrics *Metrics) PortCallCompleted(operation, outcome string) {
	if metrics == nil {
		return
	}
	metrics.portCalls.WithLabelValues(operation, outcome).Inc()
}

func (metrics *Metrics) SessionOpened() {
	if metrics == nil {
		return
	}
	metrics.sessions.Inc()
}

func (metrics *Metrics) SessionClosed() {
	if metrics == nil {
		return
	}
	metrics.sessions.Dec()
}
