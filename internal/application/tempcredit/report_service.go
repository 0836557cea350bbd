package tempcredit

import (
	"context"
	"time"

	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReportService builds the temp credit status reports. Every row goes through
// the same resolver and decision rules as the live check.
type ReportService struct {
	settings         SettingsProvider
	source           tempcredit.ReportSource
	customerPolicies tempcredit.CustomerPolicyRepository
	salesmanPolicies tempcredit.SalesmanPolicyRepository
	now              func() time.Time
	logger           *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	settings SettingsProvider,
	source tempcredit.ReportSource,
	customerPolicies tempcredit.CustomerPolicyRepository,
	salesmanPolicies tempcredit.SalesmanPolicyRepository,
	log *zap.Logger,
) *ReportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportService{
		settings:         settings,
		source:           source,
		customerPolicies: customerPolicies,
		salesmanPolicies: salesmanPolicies,
		now:              time.Now,
		logger:           log,
	}
}

// CustomerStatus builds the invoice-wise customer status report
func (s *ReportService) CustomerStatus(ctx context.Context, req CustomerStatusRequest) (*CustomerStatusResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "temp_credit_report", "customer_status")
	defer span.End()

	duration, err := tempcredit.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	settings, invoices, policies, err := s.load(ctx, tempcredit.ReportQuery{
		Company:        req.Company,
		Since:          duration.Since(s.now()),
		CustomerGroup:  req.CustomerGroup,
		Territory:      req.Territory,
		CustomerID:     req.CustomerID,
		SalesmanUserID: req.SalesmanUserID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := tempcredit.BuildCustomerStatus(settings, invoices, policies, tempcredit.CustomerStatusOptions{
		CreditType:    tempcredit.CreditType(req.CreditType),
		OverLimitOnly: req.OverLimitOnly,
		BlockedOnly:   req.BlockedOnly,
		SummaryMode:   tempcredit.SummaryMode(req.SummaryMode),
	})
	telemetry.SetAttributes(span, "rows", len(report.Rows))
	return ToCustomerStatusResponse(report), nil
}

// SalesmanStatus builds the salesman-wise exposure report
func (s *ReportService) SalesmanStatus(ctx context.Context, req SalesmanStatusRequest) (*SalesmanStatusResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "temp_credit_report", "salesman_status")
	defer span.End()

	duration, err := tempcredit.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	settings, invoices, policies, err := s.load(ctx, tempcredit.ReportQuery{
		Company:        req.Company,
		Since:          duration.Since(s.now()),
		CustomerGroup:  req.CustomerGroup,
		Territory:      req.Territory,
		SalesmanUserID: req.SalesmanUserID,
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := tempcredit.BuildSalesmanStatus(settings, invoices, policies, tempcredit.SalesmanStatusOptions{
		OverLimitOnly: req.OverLimitOnly,
		BlockedOnly:   req.BlockedOnly,
	})
	telemetry.SetAttributes(span, "rows", len(report.Rows))
	return ToSalesmanStatusResponse(report), nil
}

// EvaluateBatch evaluates a window of invoices and groups the result by
// customer or salesman
func (s *ReportService) EvaluateBatch(ctx context.Context, req BatchRequest) ([]BatchRowResponse, error) {
	duration, err := tempcredit.ParseDuration(req.Duration)
	if err != nil {
		return nil, err
	}
	settings, invoices, policies, err := s.load(ctx, tempcredit.ReportQuery{
		Company: req.Company,
		Since:   duration.Since(s.now()),
	})
	if err != nil {
		return nil, err
	}

	if req.GroupBy == GroupBySalesman {
		report := tempcredit.BuildSalesmanStatus(settings, invoices, policies, tempcredit.SalesmanStatusOptions{})
		return ToBatchRowResponses(report.BatchRows()), nil
	}
	report := tempcredit.BuildCustomerStatus(settings, invoices, policies, tempcredit.CustomerStatusOptions{
		CreditType: tempcredit.CreditTypeTemp,
	})
	return ToBatchRowResponses(report.ByCustomer()), nil
}

func (s *ReportService) load(ctx context.Context, q tempcredit.ReportQuery) (tempcredit.Settings, []tempcredit.ReportInvoice, tempcredit.ReportPolicies, error) {
	var policies tempcredit.ReportPolicies

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return settings, nil, policies, err
	}
	invoices, err := s.source.ListReportInvoices(ctx, q)
	if err != nil {
		return settings, nil, policies, err
	}

	customerIDs := make([]uuid.UUID, 0)
	salesmanIDs := make([]uuid.UUID, 0)
	seenCustomers := make(map[uuid.UUID]bool)
	seenSalesmen := make(map[uuid.UUID]bool)
	for _, inv := range invoices {
		if !seenCustomers[inv.CustomerID] {
			seenCustomers[inv.CustomerID] = true
			customerIDs = append(customerIDs, inv.CustomerID)
		}
		if inv.SalesmanUserID != uuid.Nil && !seenSalesmen[inv.SalesmanUserID] {
			seenSalesmen[inv.SalesmanUserID] = true
			salesmanIDs = append(salesmanIDs, inv.SalesmanUserID)
		}
	}

	if policies.Customers, err = s.customerPolicies.FindByCustomers(ctx, customerIDs); err != nil {
		return settings, nil, policies, err
	}
	if policies.Salesmen, err = s.salesmanPolicies.FindByUsers(ctx, salesmanIDs); err != nil {
		return settings, nil, policies, err
	}

	s.logger.Debug("Loaded temp credit report batch",
		zap.Int("invoices", len(invoices)),
		zap.Int("customers", len(customerIDs)),
		zap.Int("salesmen", len(salesmanIDs)))
	return settings, invoices, policies, nil
}
