package trade

import (
	"context"

	"github.com/google/uuid"
)

// SalesInvoiceRepository defines the interface for sales invoice persistence
type SalesInvoiceRepository interface {
	// FindByID finds a sales invoice with its items
	FindByID(ctx context.Context, id uuid.UUID) (*SalesInvoice, error)

	// FindByNumber finds a sales invoice by invoice number
	FindByNumber(ctx context.Context, invoiceNumber string) (*SalesInvoice, error)

	// Save creates or updates a sales invoice and its items
	Save(ctx context.Context, invoice *SalesInvoice) error

	// SaveWithLock saves with optimistic locking (version check).
	// Returns shared.ErrConcurrencyConflict if the stored version moved on.
	SaveWithLock(ctx context.Context, invoice *SalesInvoice) error
}
