package tempcredit

import (
	"context"
	"time"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService handles the sales invoice lifecycle around submission
type InvoiceService struct {
	invoices  trade.SalesInvoiceRepository
	customers partner.CustomerRepository
	logger    *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoices trade.SalesInvoiceRepository, customers partner.CustomerRepository, log *zap.Logger) *InvoiceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &InvoiceService{invoices: invoices, customers: customers, logger: log}
}

// CreateDraft creates a draft invoice with its items
func (s *InvoiceService) CreateDraft(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.IsActive() {
		return nil, shared.NewDomainError("CUSTOMER_DISABLED", "Cannot invoice a disabled customer")
	}

	var salesmanID uuid.UUID
	if req.SalesmanUserID != nil {
		salesmanID = *req.SalesmanUserID
	}
	var posting time.Time
	if req.PostingDate != nil {
		posting = *req.PostingDate
	}

	invoice, err := trade.NewSalesInvoice(req.InvoiceNumber, req.Company, customer.ID, customer.Name, salesmanID, req.SalesmanName, posting)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		if _, err := invoice.AddItem(item.ItemCode, item.ItemName, item.Warehouse, item.Quantity, item.UnitPrice); err != nil {
			return nil, err
		}
	}
	if req.Warehouse != "" {
		if err := invoice.SetDefaultWarehouse(req.Warehouse); err != nil {
			return nil, err
		}
	}
	if req.IsReturn {
		if err := invoice.MarkAsReturn(); err != nil {
			return nil, err
		}
	}
	invoice.Remark = req.Remark

	if err := s.invoices.Save(ctx, invoice); err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}

// Cancel cancels an invoice. Its outstanding balance no longer counts toward usage.
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.Cancel(req.Reason); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.logger.Info("Sales invoice cancelled",
		zap.String("invoice_id", id.String()),
		zap.String("invoice_number", invoice.InvoiceNumber))
	return ToInvoiceResponse(invoice), nil
}

// RecordPayment reduces the outstanding balance of a submitted invoice
func (s *InvoiceService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := invoice.RecordPayment(req.Amount); err != nil {
		return nil, err
	}
	if err := s.invoices.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}
	return ToInvoiceResponse(invoice), nil
}
