package tempcredit

import (
	"context"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Indicator texts shown next to an invoice being edited
const (
	IndicatorExceeded = "Temp Credit will exceed limits (server will block on submit)"
	IndicatorWithin   = "Temp Credit within limits"
)

// AdvisoryCheckRequest is an editor-triggered pre-submit check.
// DocumentKey and Sequence are optional and enable supersession.
type AdvisoryCheckRequest struct {
	CustomerID     uuid.UUID
	InFlightAmount decimal.Decimal
	IsDraft        bool
	SalesmanUserID *uuid.UUID
	SalesmanName   string
	Warehouse      string
	Cancelled      bool
	IsReturn       bool
	DocumentKey    string
	Sequence       uint64
}

// AdvisoryCheckResult is the advisory decision plus display hints
type AdvisoryCheckResult struct {
	Decision   tempcredit.CreditDecision
	Indicator  string
	Superseded bool
}

// Evaluator renders credit decisions. *EvaluationService implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, req EvaluateRequest) (tempcredit.CreditDecision, error)
}

// AdvisoryService runs best-effort checks for invoice editors
type AdvisoryService struct {
	evaluator Evaluator
	tracker   *AdvisoryTracker
	logger    *zap.Logger
}

// NewAdvisoryService creates a new AdvisoryService. log may be nil.
func NewAdvisoryService(evaluator Evaluator, tracker *AdvisoryTracker, log *zap.Logger) *AdvisoryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdvisoryService{evaluator: evaluator, tracker: tracker, logger: log}
}

// Check never fails. A result computed for a sequence older than the newest
// one seen for the same document is marked Superseded and must not be shown.
func (s *AdvisoryService) Check(ctx context.Context, req AdvisoryCheckRequest) AdvisoryCheckResult {
	if !s.tracker.Observe(req.DocumentKey, req.Sequence) {
		return AdvisoryCheckResult{Decision: tempcredit.Unavailable(), Superseded: true}
	}

	d, err := s.evaluator.Evaluate(ctx, EvaluateRequest{
		Mode:           ModeAdvisory,
		CustomerID:     req.CustomerID,
		InFlightAmount: req.InFlightAmount,
		IsDraft:        req.IsDraft,
		SalesmanUserID: req.SalesmanUserID,
		SalesmanName:   req.SalesmanName,
		Warehouse:      req.Warehouse,
		Cancelled:      req.Cancelled,
		IsReturn:       req.IsReturn,
	})
	if err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("Advisory temp credit check failed",
			zap.String("customer_id", req.CustomerID.String()),
			zap.String("document_key", req.DocumentKey),
			zap.Error(err))
		d = tempcredit.Unavailable()
	}

	res := AdvisoryCheckResult{Decision: d}
	if !s.tracker.IsLatest(req.DocumentKey, req.Sequence) {
		res.Superseded = true
		return res
	}
	switch d.Verdict {
	case tempcredit.VerdictBlocked:
		res.Indicator = IndicatorExceeded
	case tempcredit.VerdictAllowed:
		res.Indicator = IndicatorWithin
	}
	return res
}
