package telemetry

import (
	"errors"
	"strconv"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// CreditMetrics holds the Prometheus collectors of the temp-credit engine
// and its HTTP surface.
type CreditMetrics struct {
	Decisions        *prometheus.CounterVec
	InvalidOverrides *prometheus.CounterVec
	LockWait         *prometheus.HistogramVec
	RequestDuration  *prometheus.HistogramVec
}

// NewCreditMetrics registers the collectors on reg. A nil reg gets a private
// registry so tests never collide on the default one.
func NewCreditMetrics(reg prometheus.Registerer) *CreditMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &CreditMetrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempcredit_decisions_total",
			Help: "Temp-credit evaluations by mode, verdict and limit hit.",
		}, []string{"mode", "verdict", "exceeded"}),

		InvalidOverrides: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tempcredit_invalid_overrides_total",
			Help: "Stored overrides that could not be parsed and were ignored.",
		}, []string{"field"}),

		LockWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempcredit_customer_lock_wait_seconds",
			Help:    "Time spent acquiring the per-customer submission lock.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"outcome"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tempcredit_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// RecordDecision counts one evaluation
func (m *CreditMetrics) RecordDecision(mode string, d tempcredit.CreditDecision) {
	exceeded := "none"
	switch {
	case d.CustomerExceeded && d.WarehouseExceeded:
		exceeded = "customer_warehouse"
	case d.CustomerExceeded:
		exceeded = "customer"
	case d.WarehouseExceeded:
		exceeded = "warehouse"
	case d.SalesmanExceeded:
		exceeded = "salesman"
	}
	m.Decisions.WithLabelValues(mode, string(d.Verdict), exceeded).Inc()
}

// RecordInvalidOverride counts an ignored stored override
func (m *CreditMetrics) RecordInvalidOverride(field string) {
	m.InvalidOverrides.WithLabelValues(field).Inc()
}

// ObserveLockWait records how long a submission waited for the customer lock
func (m *CreditMetrics) ObserveLockWait(wait time.Duration, err error) {
	outcome := "acquired"
	switch {
	case errors.Is(err, tempcredit.ErrLockTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	m.LockWait.WithLabelValues(outcome).Observe(wait.Seconds())
}

// ObserveRequest records one HTTP request
func (m *CreditMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
