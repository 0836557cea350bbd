package tempcredit

import (
	"context"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Mode selects how evaluation failures and exceeded decisions are handled
type Mode string

const (
	// ModeAdvisory is best effort: failures are logged and reported as
	// unavailable, never returned.
	ModeAdvisory Mode = "advisory"
	// ModeAuthoritative propagates failures to the caller, which gates the
	// invoice state transition on the decision.
	ModeAuthoritative Mode = "authoritative"
)

// DecisionRecorder receives one observation per decision
type DecisionRecorder interface {
	RecordDecision(mode string, d tempcredit.CreditDecision)
	RecordInvalidOverride(field string)
}

type noopRecorder struct{}

func (noopRecorder) RecordDecision(string, tempcredit.CreditDecision) {}
func (noopRecorder) RecordInvalidOverride(string)                     {}

// EvaluateRequest describes the invoice under evaluation
type EvaluateRequest struct {
	Mode           Mode
	CustomerID     uuid.UUID
	InFlightAmount decimal.Decimal
	IsDraft        bool
	SalesmanUserID *uuid.UUID
	SalesmanName   string
	Warehouse      string
	Cancelled      bool
	IsReturn       bool
}

// EvaluationService runs the temp-credit decision for both call sites
type EvaluationService struct {
	loader   *SnapshotLoader
	recorder DecisionRecorder
	currency string
	logger   *zap.Logger
}

// EvaluationOption configures an EvaluationService
type EvaluationOption func(*EvaluationService)

// WithCurrency sets the currency printed in decision messages
func WithCurrency(currency string) EvaluationOption {
	return func(s *EvaluationService) {
		if currency != "" {
			s.currency = currency
		}
	}
}

// WithDecisionRecorder sets the metrics sink for decisions
func WithDecisionRecorder(r DecisionRecorder) EvaluationOption {
	return func(s *EvaluationService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewEvaluationService creates a new EvaluationService
func NewEvaluationService(loader *SnapshotLoader, log *zap.Logger, opts ...EvaluationOption) *EvaluationService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &EvaluationService{
		loader:   loader,
		recorder: noopRecorder{},
		currency: tempcredit.DefaultCurrency,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate renders a credit decision. In advisory mode the error is always nil
// and failures yield an Unavailable decision. In authoritative mode data-access
// faults are returned as tempcredit.ErrUnexpectedFailure.
func (s *EvaluationService) Evaluate(ctx context.Context, req EvaluateRequest) (tempcredit.CreditDecision, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "temp_credit", "evaluate",
		telemetry.WithAttribute("mode", string(req.Mode)),
		telemetry.WithAttribute("customer_id", req.CustomerID.String()),
	)
	defer span.End()

	log := logger.FromContextOr(ctx, s.logger)

	d, err := s.evaluate(ctx, req, log)
	if err != nil {
		telemetry.RecordError(span, err)
		if req.Mode == ModeAdvisory {
			log.Warn("Advisory temp credit check failed",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Error(err))
			d = tempcredit.Unavailable()
			s.recorder.RecordDecision(string(req.Mode), d)
			return d, nil
		}
		log.Error("Temp credit evaluation failed",
			zap.String("customer_id", req.CustomerID.String()),
			zap.Error(err))
		return tempcredit.CreditDecision{}, tempcredit.NewUnexpectedFailure("evaluate temp credit", err)
	}

	telemetry.SetAttributes(span,
		"verdict", string(d.Verdict),
		"exceeded", d.Exceeded,
	)
	s.recorder.RecordDecision(string(req.Mode), d)

	fields := []zap.Field{
		zap.String("mode", string(req.Mode)),
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("verdict", string(d.Verdict)),
		zap.String("skip_reason", string(d.SkipReason)),
		zap.Int("count", d.Usage.Count),
		zap.String("total_outstanding", d.Usage.TotalOutstanding.String()),
		zap.String("max_credit", d.Policy.MaxCredit.String()),
		zap.Int("max_invoices", d.Policy.MaxInvoices),
		zap.String("raw_remaining_credit", d.RawRemainingCredit.String()),
		zap.Int("raw_remaining_invoices", d.RawRemainingInvoices),
	}
	if d.Salesman != nil {
		fields = append(fields, zap.String("salesman_outstanding", d.Salesman.Total.String()))
	}
	if req.Mode == ModeAuthoritative {
		log.Info("Temp credit decision", fields...)
	} else {
		log.Debug("Temp credit decision", fields...)
	}
	return d, nil
}

func (s *EvaluationService) evaluate(ctx context.Context, req EvaluateRequest, log *zap.Logger) (tempcredit.CreditDecision, error) {
	settings, err := s.loader.Settings(ctx)
	if err != nil {
		return tempcredit.CreditDecision{}, err
	}

	doc := tempcredit.DocumentState{
		CustomerID: req.CustomerID,
		Cancelled:  req.Cancelled,
		IsReturn:   req.IsReturn,
	}
	if reason := tempcredit.PrecheckDocument(settings, doc); reason != tempcredit.SkipNone {
		return tempcredit.NotApplicable(reason), nil
	}

	eligible, err := s.loader.IsTempCreditCustomer(ctx, settings, req.CustomerID)
	if err != nil {
		return tempcredit.CreditDecision{}, err
	}
	if !eligible {
		return tempcredit.NotApplicable(tempcredit.SkipNotTempCredit), nil
	}

	cp, err := s.loader.CustomerPolicy(ctx, req.CustomerID)
	if err != nil {
		return tempcredit.CreditDecision{}, err
	}
	var sp *tempcredit.SalesmanPolicy
	if settings.EnableSalesmanLimit {
		if sp, err = s.loader.SalesmanPolicy(ctx, req.SalesmanUserID); err != nil {
			return tempcredit.CreditDecision{}, err
		}
	}

	res := tempcredit.Resolve(settings, cp, sp)
	if !res.Applicable {
		return tempcredit.NotApplicable(res.SkipReason), nil
	}
	for _, inv := range res.Policy.InvalidOverrides {
		s.recorder.RecordInvalidOverride(inv.Field)
		log.Warn("Invalid temp credit override replaced by fallback",
			zap.String("customer_id", req.CustomerID.String()),
			zap.String("field", inv.Field),
			zap.String("raw", inv.Raw),
			zap.String("reason", inv.Reason))
	}

	usage, err := s.loader.Usage(ctx, req.CustomerID)
	if err != nil {
		return tempcredit.CreditDecision{}, err
	}
	amount := req.InFlightAmount
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	if req.IsDraft {
		usage = usage.WithInFlight(amount)
	}

	var pool *tempcredit.PoolUsage
	if settings.EnableWarehouseLimit && req.Warehouse != "" {
		total, err := s.loader.WarehouseTotal(ctx, settings, req.Warehouse)
		if err != nil {
			return tempcredit.CreditDecision{}, err
		}
		if req.IsDraft {
			total = total.Add(amount)
		}
		pool = &tempcredit.PoolUsage{Name: req.Warehouse, Limit: settings.WarehouseLimit(), Total: total}
	}

	var salesmanPool *tempcredit.PoolUsage
	if sp != nil {
		if _, ok := tempcredit.SalesmanLimit(settings, sp); ok {
			total, err := s.loader.SalesmanTotal(ctx, settings, sp.UserID)
			if err != nil {
				return tempcredit.CreditDecision{}, err
			}
			if req.IsDraft {
				total = total.Add(amount)
			}
			salesmanPool = tempcredit.SalesmanPool(settings, sp, salesmanName(req, sp), total)
		}
	}

	name, err := s.loader.CustomerName(ctx, req.CustomerID)
	if err != nil {
		return tempcredit.CreditDecision{}, err
	}

	return tempcredit.Decide(tempcredit.DecisionInput{
		CustomerName:     name,
		Policy:           res.Policy,
		Usage:            usage,
		InFlightAmount:   amount,
		Warehouse:        pool,
		Salesman:         salesmanPool,
		Currency:         s.currency,
		ShowPopupOnAllow: settings.ShowPopupOnAllow,
	}), nil
}

func salesmanName(req EvaluateRequest, sp *tempcredit.SalesmanPolicy) string {
	if req.SalesmanName != "" {
		return req.SalesmanName
	}
	return sp.UserID.String()
}
