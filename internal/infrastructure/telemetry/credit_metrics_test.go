package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditMetrics_RecordDecision(t *testing.T) {
	m := NewCreditMetrics(nil)

	m.RecordDecision("advisory", tempcredit.CreditDecision{Verdict: tempcredit.VerdictAllowed})
	m.RecordDecision("authoritative", tempcredit.CreditDecision{
		Verdict: tempcredit.VerdictBlocked, Exceeded: true, CustomerExceeded: true, WarehouseExceeded: true,
	})
	m.RecordDecision("authoritative", tempcredit.CreditDecision{
		Verdict: tempcredit.VerdictBlocked, Exceeded: true, WarehouseExceeded: true,
	})

	m.RecordDecision("authoritative", tempcredit.CreditDecision{
		Verdict: tempcredit.VerdictBlocked, Exceeded: true, SalesmanExceeded: true,
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("advisory", "allowed", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("authoritative", "blocked", "customer_warehouse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("authoritative", "blocked", "warehouse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("authoritative", "blocked", "salesman")))
}

func TestCreditMetrics_RecordInvalidOverride(t *testing.T) {
	m := NewCreditMetrics(nil)

	m.RecordInvalidOverride("credit_limit_override")
	m.RecordInvalidOverride("credit_limit_override")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.InvalidOverrides.WithLabelValues("credit_limit_override")))
}

func TestCreditMetrics_ObserveLockWait(t *testing.T) {
	m := NewCreditMetrics(nil)

	m.ObserveLockWait(10*time.Millisecond, nil)
	m.ObserveLockWait(3*time.Second, tempcredit.ErrLockTimeout)
	m.ObserveLockWait(time.Millisecond, errors.New("conn reset"))

	assert.Equal(t, 3, testutil.CollectAndCount(m.LockWait))
}

func TestNewCreditMetrics_RegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCreditMetrics(reg)
	m.ObserveRequest("POST", "/api/v1/temp-credit/check", 200, 5*time.Millisecond)
	m.RecordInvalidOverride("max_unpaid_invoices_override")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "tempcredit_http_request_duration_seconds")
	assert.Contains(t, names, "tempcredit_invalid_overrides_total")
}
