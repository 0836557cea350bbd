package tempcredit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// failingEvaluator returns err from every evaluation
type failingEvaluator struct {
	err error
}

func (e failingEvaluator) Evaluate(context.Context, EvaluateRequest) (tempcredit.CreditDecision, error) {
	return tempcredit.CreditDecision{}, e.err
}

func TestAdvisoryService_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("shows the exceeded indicator", func(t *testing.T) {
		m := newEngineMocks()
		id := uuid.New()
		m.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
		m.tempCreditCustomer(id, "500")
		svc := NewAdvisoryService(m.evaluator(), NewAdvisoryTracker(time.Minute), nil)

		res := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: id, InFlightAmount: decimal.NewFromInt(300), IsDraft: true})

		assert.False(t, res.Superseded)
		assert.Equal(t, IndicatorExceeded, res.Indicator)
		assert.Equal(t, tempcredit.VerdictBlocked, res.Decision.Verdict)
	})

	t.Run("shows the within-limits indicator", func(t *testing.T) {
		m := newEngineMocks()
		id := uuid.New()
		m.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
		m.tempCreditCustomer(id, "500")
		svc := NewAdvisoryService(m.evaluator(), NewAdvisoryTracker(time.Minute), nil)

		res := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: id, InFlightAmount: decimal.NewFromInt(100), IsDraft: true})

		assert.Equal(t, IndicatorWithin, res.Indicator)
	})

	t.Run("shows no indicator when temp credit does not apply", func(t *testing.T) {
		m := newEngineMocks()
		m.settings.On("Get", mock.Anything).Return(tempcredit.DefaultSettings(), nil)
		svc := NewAdvisoryService(m.evaluator(), NewAdvisoryTracker(time.Minute), nil)

		res := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: uuid.New()})

		assert.Empty(t, res.Indicator)
		assert.Equal(t, tempcredit.VerdictNotApplicable, res.Decision.Verdict)
	})

	t.Run("never fails", func(t *testing.T) {
		m := newEngineMocks()
		m.settings.On("Get", mock.Anything).Return(tempcredit.Settings{}, errors.New("timeout"))
		svc := NewAdvisoryService(m.evaluator(), NewAdvisoryTracker(time.Minute), nil)

		res := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: uuid.New()})

		assert.Equal(t, tempcredit.VerdictUnavailable, res.Decision.Verdict)
		assert.Empty(t, res.Indicator)
	})

	t.Run("logs evaluator errors and reports unavailable", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		customer := uuid.New()
		svc := NewAdvisoryService(failingEvaluator{err: errors.New("pool exhausted")}, NewAdvisoryTracker(time.Minute), zap.New(core))

		res := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: customer, DocumentKey: "SINV-9", Sequence: 1})

		assert.Equal(t, tempcredit.VerdictUnavailable, res.Decision.Verdict)
		assert.Empty(t, res.Indicator)
		entries := logs.FilterMessage("Advisory temp credit check failed").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, customer.String(), fields["customer_id"])
		assert.Equal(t, "pool exhausted", fields["error"])
	})

	t.Run("marks out-of-order results as superseded", func(t *testing.T) {
		m := newEngineMocks()
		m.settings.On("Get", mock.Anything).Return(tempcredit.DefaultSettings(), nil)
		tracker := NewAdvisoryTracker(time.Minute)
		svc := NewAdvisoryService(m.evaluator(), tracker, nil)

		newer := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: uuid.New(), DocumentKey: "SINV-1", Sequence: 5})
		older := svc.Check(ctx, AdvisoryCheckRequest{CustomerID: uuid.New(), DocumentKey: "SINV-1", Sequence: 4})

		assert.False(t, newer.Superseded)
		assert.True(t, older.Superseded)
		m.settings.AssertNumberOfCalls(t, "Get", 1)
	})
}
