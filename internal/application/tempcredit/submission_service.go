package tempcredit

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/erp/tempcredit/internal/infrastructure/logger"
	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LockObserver receives how long submitters waited for the customer lock
type LockObserver interface {
	ObserveLockWait(wait time.Duration, err error)
}

// SubmitResult is the outcome of an accepted submission
type SubmitResult struct {
	Invoice  *trade.SalesInvoice
	Decision tempcredit.CreditDecision
}

// SubmissionService is the authoritative gate on invoice finalization
type SubmissionService struct {
	invoices  trade.SalesInvoiceRepository
	evaluator *EvaluationService
	guard     tempcredit.CustomerGuard
	observer  LockObserver
	logger    *zap.Logger
}

// NewSubmissionService creates a new SubmissionService. observer may be nil.
func NewSubmissionService(
	invoices trade.SalesInvoiceRepository,
	evaluator *EvaluationService,
	guard tempcredit.CustomerGuard,
	observer LockObserver,
	log *zap.Logger,
) *SubmissionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubmissionService{
		invoices:  invoices,
		evaluator: evaluator,
		guard:     guard,
		observer:  observer,
		logger:    log,
	}
}

// Submit finalizes a draft invoice. Under the customer lock it reloads the
// draft, takes the locks of the warehouse and salesman pools the settings
// enforce, recomputes usage including the draft, decides, and either commits
// the transition or rejects with *tempcredit.CreditLimitExceededError.
func (s *SubmissionService) Submit(ctx context.Context, invoiceID uuid.UUID) (*SubmitResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_invoice", "submit",
		telemetry.WithAttribute("invoice_id", invoiceID.String()),
	)
	defer span.End()
	log := logger.FromContextOr(ctx, s.logger)

	peek, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !peek.IsDraft() {
		return nil, shared.ErrInvalidState.WithMessage("Only draft invoices can be submitted")
	}
	if peek.CustomerID == uuid.Nil {
		return s.submitUnguarded(ctx, invoiceID)
	}

	var result *SubmitResult
	requested := time.Now()
	acquired := time.Time{}
	err = s.guard.WithCustomerLock(ctx, peek.CustomerID, func(ctx context.Context) error {
		acquired = time.Now()
		if s.observer != nil {
			s.observer.ObserveLockWait(acquired.Sub(requested), nil)
		}
		r, err := s.decideAndCommit(ctx, invoiceID)
		result = r
		return err
	})
	if err != nil {
		if acquired.IsZero() && s.observer != nil {
			s.observer.ObserveLockWait(time.Since(requested), err)
		}
		telemetry.RecordError(span, err)

		var exceeded *tempcredit.CreditLimitExceededError
		switch {
		case errors.As(err, &exceeded):
			log.Info("Invoice submission rejected by temp credit policy",
				zap.String("invoice_id", invoiceID.String()),
				zap.String("customer_id", peek.CustomerID.String()),
				zap.String("title", exceeded.Decision.Title),
				zap.String("blocked_reason", exceeded.Decision.BlockedReason))
			return nil, err
		case errors.Is(err, tempcredit.ErrLockTimeout):
			log.Warn("Timed out waiting for customer lock",
				zap.String("invoice_id", invoiceID.String()),
				zap.String("customer_id", peek.CustomerID.String()))
			return nil, err
		}
		if _, ok := shared.AsDomainError(err); ok {
			return nil, err
		}
		return nil, tempcredit.NewUnexpectedFailure("submit invoice", err)
	}

	log.Info("Invoice submitted",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", result.Invoice.InvoiceNumber),
		zap.String("verdict", string(result.Decision.Verdict)))
	telemetry.SetOK(span)
	return result, nil
}

// submitUnguarded handles invoices without a customer, which temp credit never applies to
func (s *SubmissionService) submitUnguarded(ctx context.Context, invoiceID uuid.UUID) (*SubmitResult, error) {
	return s.decideAndCommit(ctx, invoiceID)
}

func (s *SubmissionService) decideAndCommit(ctx context.Context, invoiceID uuid.UUID) (*SubmitResult, error) {
	invoice, err := s.invoices.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !invoice.IsDraft() {
		return nil, shared.ErrInvalidState.WithMessage("Only draft invoices can be submitted")
	}

	pools, err := s.poolKeys(ctx, invoice)
	if err != nil {
		return nil, err
	}
	var result *SubmitResult
	err = s.withPoolLocks(ctx, pools, func(ctx context.Context) error {
		r, err := s.evaluateAndCommit(ctx, invoice)
		result = r
		return err
	})
	return result, err
}

// poolKeys lists, in lock order, the shared pools the invoice draws on
func (s *SubmissionService) poolKeys(ctx context.Context, invoice *trade.SalesInvoice) ([]string, error) {
	if invoice.CustomerID == uuid.Nil {
		return nil, nil
	}
	settings, err := s.evaluator.loader.Settings(ctx)
	if err != nil {
		return nil, err
	}
	if !settings.Enabled {
		return nil, nil
	}

	var keys []string
	if wh := invoice.EffectiveWarehouse(); settings.EnableWarehouseLimit && wh != "" {
		keys = append(keys, tempcredit.WarehousePoolKey(wh))
	}
	if settings.EnableSalesmanLimit && invoice.SalesmanUserID != uuid.Nil {
		keys = append(keys, tempcredit.SalesmanPoolKey(invoice.SalesmanUserID))
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SubmissionService) withPoolLocks(ctx context.Context, pools []string, fn func(ctx context.Context) error) error {
	if len(pools) == 0 {
		return fn(ctx)
	}
	return s.guard.WithPoolLock(ctx, pools[0], func(ctx context.Context) error {
		return s.withPoolLocks(ctx, pools[1:], fn)
	})
}

func (s *SubmissionService) evaluateAndCommit(ctx context.Context, invoice *trade.SalesInvoice) (*SubmitResult, error) {
	req := EvaluateRequest{
		Mode:           ModeAuthoritative,
		CustomerID:     invoice.CustomerID,
		InFlightAmount: invoice.CurrentAmount(),
		IsDraft:        true,
		Warehouse:      invoice.EffectiveWarehouse(),
		Cancelled:      invoice.IsCancelled(),
		IsReturn:       invoice.IsReturn,
	}
	if invoice.SalesmanUserID != uuid.Nil {
		salesman := invoice.SalesmanUserID
		req.SalesmanUserID = &salesman
		req.SalesmanName = invoice.SalesmanName
	}

	decision, err := s.evaluator.Evaluate(ctx, req)
	if err != nil {
		return nil, err
	}
	if decision.Exceeded {
		return nil, &tempcredit.CreditLimitExceededError{Decision: decision}
	}

	if err := invoice.Submit(); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}
	return &SubmitResult{Invoice: invoice, Decision: decision}, nil
}
