package tempcredit

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Settings DTOs
// =============================================================================

// SettingsResponse represents the temp credit settings in API responses
type SettingsResponse struct {
	Enabled                  bool            `json:"enabled"`
	DefaultCustomerLimit     decimal.Decimal `json:"default_customer_limit"`
	DefaultMaxUnpaidInvoices int             `json:"default_max_unpaid_invoices"`
	DefaultWarehouseLimit    decimal.Decimal `json:"default_warehouse_limit"`
	EnableWarehouseLimit     bool            `json:"enable_warehouse_limit"`
	EnableSalesmanLimit      bool            `json:"enable_salesman_limit"`
	DefaultSalesmanLimit     decimal.Decimal `json:"default_salesman_limit"`
	CustomerTCFieldname      string          `json:"customer_tc_fieldname"`
	TempCreditValue          string          `json:"temp_credit_value"`
	ShowPopupOnAllow         bool            `json:"show_popup_on_allow"`
	UpdatedAt                *time.Time      `json:"updated_at,omitempty"`
}

// UpdateSettingsRequest represents a partial update of the settings
type UpdateSettingsRequest struct {
	Enabled                  *bool            `json:"enabled"`
	DefaultCustomerLimit     *decimal.Decimal `json:"default_customer_limit"`
	DefaultMaxUnpaidInvoices *int             `json:"default_max_unpaid_invoices"`
	DefaultWarehouseLimit    *decimal.Decimal `json:"default_warehouse_limit"`
	EnableWarehouseLimit     *bool            `json:"enable_warehouse_limit"`
	EnableSalesmanLimit      *bool            `json:"enable_salesman_limit"`
	DefaultSalesmanLimit     *decimal.Decimal `json:"default_salesman_limit"`
	CustomerTCFieldname      *string          `json:"customer_tc_fieldname" binding:"omitempty,max=100"`
	TempCreditValue          *string          `json:"temp_credit_value" binding:"omitempty,max=100"`
	ShowPopupOnAllow         *bool            `json:"show_popup_on_allow"`
}

func (r UpdateSettingsRequest) apply(s *tempcredit.Settings) {
	if r.Enabled != nil {
		s.Enabled = *r.Enabled
	}
	if r.DefaultCustomerLimit != nil {
		s.DefaultCustomerLimit = *r.DefaultCustomerLimit
	}
	if r.DefaultMaxUnpaidInvoices != nil {
		s.DefaultMaxUnpaidInvoices = *r.DefaultMaxUnpaidInvoices
	}
	if r.DefaultWarehouseLimit != nil {
		s.DefaultWarehouseLimit = *r.DefaultWarehouseLimit
	}
	if r.EnableWarehouseLimit != nil {
		s.EnableWarehouseLimit = *r.EnableWarehouseLimit
	}
	if r.EnableSalesmanLimit != nil {
		s.EnableSalesmanLimit = *r.EnableSalesmanLimit
	}
	if r.DefaultSalesmanLimit != nil {
		s.DefaultSalesmanLimit = *r.DefaultSalesmanLimit
	}
	if r.CustomerTCFieldname != nil {
		s.CustomerTCFieldname = strings.TrimSpace(*r.CustomerTCFieldname)
	}
	if r.TempCreditValue != nil {
		s.TempCreditValue = *r.TempCreditValue
	}
	if r.ShowPopupOnAllow != nil {
		s.ShowPopupOnAllow = *r.ShowPopupOnAllow
	}
}

// ToSettingsResponse converts settings to a response
func ToSettingsResponse(s *tempcredit.Settings) *SettingsResponse {
	resp := &SettingsResponse{
		Enabled:                  s.Enabled,
		DefaultCustomerLimit:     s.DefaultCustomerLimit,
		DefaultMaxUnpaidInvoices: s.DefaultMaxUnpaidInvoices,
		DefaultWarehouseLimit:    s.DefaultWarehouseLimit,
		EnableWarehouseLimit:     s.EnableWarehouseLimit,
		EnableSalesmanLimit:      s.EnableSalesmanLimit,
		DefaultSalesmanLimit:     s.DefaultSalesmanLimit,
		CustomerTCFieldname:      s.EligibilityField(),
		TempCreditValue:          s.EligibilityValue(),
		ShowPopupOnAllow:         s.ShowPopupOnAllow,
	}
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

// =============================================================================
// Policy DTOs
// =============================================================================

// OverrideValue is an override as typed by an administrator. It accepts a JSON
// number, a JSON string or null, and keeps the raw text so that bad input can
// be reported rather than silently coerced.
type OverrideValue string

// UnmarshalJSON implements json.Unmarshaler
func (v *OverrideValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = OverrideValue(s)
		return nil
	}
	*v = OverrideValue(data)
	return nil
}

// UpsertCustomerPolicyRequest represents a request to create or replace a customer policy
type UpsertCustomerPolicyRequest struct {
	Enabled                   *bool         `json:"enabled"`
	CreditLimitOverride       OverrideValue `json:"credit_limit_override"`
	MaxUnpaidInvoicesOverride OverrideValue `json:"max_unpaid_invoices_override"`
	IsBlacklisted             bool          `json:"is_blacklisted"`
	BlacklistReason           string        `json:"blacklist_reason" binding:"max=500"`
}

// CustomerPolicyResponse represents a customer policy in API responses
type CustomerPolicyResponse struct {
	ID                        uuid.UUID        `json:"id"`
	CustomerID                uuid.UUID        `json:"customer_id"`
	Enabled                   bool             `json:"enabled"`
	CreditLimitOverride       *decimal.Decimal `json:"credit_limit_override"`
	MaxUnpaidInvoicesOverride *int             `json:"max_unpaid_invoices_override"`
	IsBlacklisted             bool             `json:"is_blacklisted"`
	BlacklistReason           string           `json:"blacklist_reason"`
	Warnings                  []string         `json:"warnings,omitempty"`
	UpdatedAt                 time.Time        `json:"updated_at"`
}

// ToCustomerPolicyResponse converts a customer policy to a response
func ToCustomerPolicyResponse(p *tempcredit.CustomerPolicy) *CustomerPolicyResponse {
	return &CustomerPolicyResponse{
		ID:                        p.ID,
		CustomerID:                p.CustomerID,
		Enabled:                   p.Enabled,
		CreditLimitOverride:       p.CreditLimitOverride.Ptr(),
		MaxUnpaidInvoicesOverride: p.MaxUnpaidInvoicesOverride.Ptr(),
		IsBlacklisted:             p.IsBlacklisted,
		BlacklistReason:           p.BlacklistReason,
		Warnings:                  p.Warnings(),
		UpdatedAt:                 p.UpdatedAt,
	}
}

// UpsertSalesmanPolicyRequest represents a request to create or replace a salesman policy
type UpsertSalesmanPolicyRequest struct {
	Enabled             *bool         `json:"enabled"`
	MaxOutstandingLimit OverrideValue `json:"max_outstanding_limit"`
	IsBlocked           bool          `json:"is_blocked"`
	BlockReason         string        `json:"block_reason" binding:"max=500"`
}

// SalesmanPolicyResponse represents a salesman policy in API responses
type SalesmanPolicyResponse struct {
	ID                  uuid.UUID        `json:"id"`
	UserID              uuid.UUID        `json:"user_id"`
	Enabled             bool             `json:"enabled"`
	MaxOutstandingLimit *decimal.Decimal `json:"max_outstanding_limit"`
	IsBlocked           bool             `json:"is_blocked"`
	BlockReason         string           `json:"block_reason"`
	Warnings            []string         `json:"warnings,omitempty"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// ToSalesmanPolicyResponse converts a salesman policy to a response
func ToSalesmanPolicyResponse(p *tempcredit.SalesmanPolicy) *SalesmanPolicyResponse {
	return &SalesmanPolicyResponse{
		ID:                  p.ID,
		UserID:              p.UserID,
		Enabled:             p.Enabled,
		MaxOutstandingLimit: p.MaxOutstandingLimit.Ptr(),
		IsBlocked:           p.IsBlocked,
		BlockReason:         p.BlockReason,
		Warnings:            p.Warnings(),
		UpdatedAt:           p.UpdatedAt,
	}
}

// =============================================================================
// Decision DTOs
// =============================================================================

// WarehousePoolResponse is the warehouse part of a decision
type WarehousePoolResponse struct {
	Warehouse string          `json:"warehouse"`
	Limit     decimal.Decimal `json:"limit"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Exceeded  bool            `json:"exceeded"`
}

// SalesmanPoolResponse is the salesman exposure part of a decision
type SalesmanPoolResponse struct {
	Salesman  string          `json:"salesman"`
	Limit     decimal.Decimal `json:"limit"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	Exceeded  bool            `json:"exceeded"`
}

// DecisionResponse represents a credit decision in API responses
type DecisionResponse struct {
	Verdict           string                 `json:"verdict"`
	SkipReason        string                 `json:"skip_reason,omitempty"`
	Exceeded          bool                   `json:"exceeded"`
	CustomerExceeded  bool                   `json:"customer_exceeded"`
	Blocked           bool                   `json:"blocked"`
	BlockedReason     string                 `json:"blocked_reason,omitempty"`
	MaxCredit         decimal.Decimal        `json:"max_credit"`
	MaxInvoices       int                    `json:"max_invoices"`
	SalesmanCeiling   *decimal.Decimal       `json:"salesman_ceiling,omitempty"`
	UnpaidInvoices    int                    `json:"unpaid_invoices"`
	TotalOutstanding  decimal.Decimal        `json:"total_outstanding"`
	InFlightAmount    decimal.Decimal        `json:"in_flight_amount"`
	RemainingCredit   decimal.Decimal        `json:"remaining_credit"`
	RemainingInvoices int                    `json:"remaining_invoices"`
	Title             string                 `json:"title,omitempty"`
	Message           string                 `json:"message,omitempty"`
	ShowPopup         bool                   `json:"show_popup"`
	Warehouse         *WarehousePoolResponse `json:"warehouse,omitempty"`
	Salesman          *SalesmanPoolResponse  `json:"salesman,omitempty"`
}

// ToDecisionResponse converts a decision to a response
func ToDecisionResponse(d tempcredit.CreditDecision) *DecisionResponse {
	resp := &DecisionResponse{
		Verdict:           string(d.Verdict),
		SkipReason:        string(d.SkipReason),
		Exceeded:          d.Exceeded,
		CustomerExceeded:  d.CustomerExceeded,
		Blocked:           d.Policy.Blocked,
		BlockedReason:     d.BlockedReason,
		MaxCredit:         d.Policy.MaxCredit,
		MaxInvoices:       d.Policy.MaxInvoices,
		UnpaidInvoices:    d.Usage.Count,
		TotalOutstanding:  d.Usage.TotalOutstanding,
		InFlightAmount:    d.InFlightAmount,
		RemainingCredit:   d.RemainingCredit,
		RemainingInvoices: d.RemainingInvoices,
		Title:             d.Title,
		Message:           d.Message,
		ShowPopup:         d.ShowPopup,
	}
	if d.Policy.HasSalesmanCeiling() {
		c := d.Policy.SalesmanCeiling
		resp.SalesmanCeiling = &c
	}
	if w := d.Warehouse; w != nil {
		resp.Warehouse = &WarehousePoolResponse{
			Warehouse: w.Name,
			Limit:     w.Limit,
			Total:     w.Total,
			Remaining: w.Remaining(),
			Exceeded:  w.Exceeded(),
		}
	}
	if sm := d.Salesman; sm != nil {
		resp.Salesman = &SalesmanPoolResponse{
			Salesman:  sm.Name,
			Limit:     sm.Limit,
			Total:     sm.Total,
			Remaining: sm.Remaining(),
			Exceeded:  sm.Exceeded(),
		}
	}
	return resp
}

// CheckRequest represents an advisory check from an invoice editor
type CheckRequest struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`
	IsDraft        *bool           `json:"is_draft"`
	SalesmanUserID *uuid.UUID      `json:"salesman_user_id"`
	SalesmanName   string          `json:"salesman_name" binding:"max=100"`
	Warehouse      string          `json:"warehouse" binding:"max=100"`
	Cancelled      bool            `json:"cancelled"`
	IsReturn       bool            `json:"is_return"`
	DocumentKey    string          `json:"document_key" binding:"max=200"`
	Sequence       uint64          `json:"sequence"`
}

// ToAdvisoryCheck converts the request. Documents are drafts unless stated otherwise.
func (r CheckRequest) ToAdvisoryCheck() AdvisoryCheckRequest {
	isDraft := true
	if r.IsDraft != nil {
		isDraft = *r.IsDraft
	}
	return AdvisoryCheckRequest{
		CustomerID:     r.CustomerID,
		InFlightAmount: r.Amount,
		IsDraft:        isDraft,
		SalesmanUserID: r.SalesmanUserID,
		SalesmanName:   r.SalesmanName,
		Warehouse:      r.Warehouse,
		Cancelled:      r.Cancelled,
		IsReturn:       r.IsReturn,
		DocumentKey:    r.DocumentKey,
		Sequence:       r.Sequence,
	}
}

// CheckResponse represents an advisory check result
type CheckResponse struct {
	Decision   *DecisionResponse `json:"decision"`
	Indicator  string            `json:"indicator,omitempty"`
	Superseded bool              `json:"superseded"`
}

// ToCheckResponse converts an advisory result to a response
func ToCheckResponse(r AdvisoryCheckResult) *CheckResponse {
	return &CheckResponse{
		Decision:   ToDecisionResponse(r.Decision),
		Indicator:  r.Indicator,
		Superseded: r.Superseded,
	}
}

// =============================================================================
// Customer DTOs
// =============================================================================

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Code          string            `json:"code" binding:"required,min=1,max=50"`
	Name          string            `json:"name" binding:"required,min=1,max=200"`
	CustomerGroup string            `json:"customer_group" binding:"max=100"`
	Territory     string            `json:"territory" binding:"max=100"`
	CreditLimit   *decimal.Decimal  `json:"credit_limit"`
	Attributes    map[string]string `json:"attributes"`
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	CustomerGroup *string          `json:"customer_group" binding:"omitempty,max=100"`
	Territory     *string          `json:"territory" binding:"omitempty,max=100"`
	CreditLimit   *decimal.Decimal `json:"credit_limit"`
}

// SetAttributeRequest sets or clears one customer attribute
type SetAttributeRequest struct {
	Value string `json:"value" binding:"max=200"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID            uuid.UUID         `json:"id"`
	Code          string            `json:"code"`
	Name          string            `json:"name"`
	CustomerGroup string            `json:"customer_group"`
	Territory     string            `json:"territory"`
	Status        string            `json:"status"`
	CreditLimit   decimal.Decimal   `json:"credit_limit"`
	Attributes    map[string]string `json:"attributes"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Version       int               `json:"version"`
}

// ToCustomerResponse converts a customer to a response
func ToCustomerResponse(c *partner.Customer) *CustomerResponse {
	attrs := make(map[string]string, len(c.Attributes))
	for k, v := range c.Attributes {
		attrs[k] = v
	}
	return &CustomerResponse{
		ID:            c.ID,
		Code:          c.Code,
		Name:          c.Name,
		CustomerGroup: c.CustomerGroup,
		Territory:     c.Territory,
		Status:        string(c.Status),
		CreditLimit:   c.CreditLimit,
		Attributes:    attrs,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
}

// =============================================================================
// Sales invoice DTOs
// =============================================================================

// InvoiceItemInput is one line of a new invoice
type InvoiceItemInput struct {
	ItemCode  string          `json:"item_code" binding:"required,max=50"`
	ItemName  string          `json:"item_name" binding:"max=200"`
	Warehouse string          `json:"warehouse" binding:"max=100"`
	Quantity  decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"decimal_gte0"`
}

// CreateInvoiceRequest represents a request to create a draft sales invoice
type CreateInvoiceRequest struct {
	InvoiceNumber  string             `json:"invoice_number" binding:"required,min=1,max=50"`
	Company        string             `json:"company" binding:"required,max=100"`
	CustomerID     uuid.UUID          `json:"customer_id" binding:"required"`
	SalesmanUserID *uuid.UUID         `json:"salesman_user_id"`
	SalesmanName   string             `json:"salesman_name" binding:"max=100"`
	PostingDate    *time.Time         `json:"posting_date"`
	Warehouse      string             `json:"warehouse" binding:"max=100"`
	IsReturn       bool               `json:"is_return"`
	Remark         string             `json:"remark" binding:"max=500"`
	Items          []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
}

// CancelInvoiceRequest represents a request to cancel a submitted invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// RecordPaymentRequest represents a payment against an invoice
type RecordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"decimal_gt0"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ItemCode  string          `json:"item_code"`
	ItemName  string          `json:"item_name"`
	Warehouse string          `json:"warehouse"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Amount    decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents a sales invoice in API responses
type InvoiceResponse struct {
	ID                uuid.UUID             `json:"id"`
	InvoiceNumber     string                `json:"invoice_number"`
	Company           string                `json:"company"`
	CustomerID        uuid.UUID             `json:"customer_id"`
	CustomerName      string                `json:"customer_name"`
	SalesmanUserID    *uuid.UUID            `json:"salesman_user_id,omitempty"`
	SalesmanName      string                `json:"salesman_name,omitempty"`
	PostingDate       time.Time             `json:"posting_date"`
	Status            string                `json:"status"`
	IsReturn          bool                  `json:"is_return"`
	Warehouse         string                `json:"warehouse"`
	GrandTotal        decimal.Decimal       `json:"grand_total"`
	OutstandingAmount decimal.Decimal       `json:"outstanding_amount"`
	Remark            string                `json:"remark,omitempty"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	SubmittedAt       *time.Time            `json:"submitted_at,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	Items             []InvoiceItemResponse `json:"items"`
	Version           int                   `json:"version"`
}

// ToInvoiceResponse converts an invoice to a response
func ToInvoiceResponse(i *trade.SalesInvoice) *InvoiceResponse {
	resp := &InvoiceResponse{
		ID:                i.ID,
		InvoiceNumber:     i.InvoiceNumber,
		Company:           i.Company,
		CustomerID:        i.CustomerID,
		CustomerName:      i.CustomerName,
		SalesmanName:      i.SalesmanName,
		PostingDate:       i.PostingDate,
		Status:            string(i.Status),
		IsReturn:          i.IsReturn,
		Warehouse:         i.EffectiveWarehouse(),
		GrandTotal:        i.GrandTotal,
		OutstandingAmount: i.OutstandingAmount,
		Remark:            i.Remark,
		CancelReason:      i.CancelReason,
		SubmittedAt:       i.SubmittedAt,
		CancelledAt:       i.CancelledAt,
		Items:             make([]InvoiceItemResponse, 0, len(i.Items)),
		Version:           i.Version,
	}
	if i.SalesmanUserID != uuid.Nil {
		id := i.SalesmanUserID
		resp.SalesmanUserID = &id
	}
	for _, item := range i.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:        item.ID,
			ItemCode:  item.ItemCode,
			ItemName:  item.ItemName,
			Warehouse: item.Warehouse,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Amount:    item.Amount,
		})
	}
	return resp
}

// SubmitInvoiceResponse represents an accepted submission
type SubmitInvoiceResponse struct {
	Invoice  *InvoiceResponse  `json:"invoice"`
	Decision *DecisionResponse `json:"decision"`
}

// =============================================================================
// Report DTOs
// =============================================================================

// CustomerStatusRequest holds the query filters of the customer status report
type CustomerStatusRequest struct {
	Company        string     `form:"company" binding:"max=100"`
	Duration       string     `form:"duration"`
	CustomerGroup  string     `form:"customer_group" binding:"max=100"`
	Territory      string     `form:"territory" binding:"max=100"`
	CustomerID     *uuid.UUID `form:"-"`
	SalesmanUserID *uuid.UUID `form:"-"`
	CreditType     string     `form:"credit_type" binding:"omitempty,oneof='Temp Credit' Credit"`
	OverLimitOnly  bool       `form:"over_limit_only"`
	BlockedOnly    bool       `form:"blocked_only"`
	SummaryMode    string     `form:"summary_mode" binding:"omitempty,oneof='Customer Wise' 'Salesman Wise'"`
}

// SalesmanStatusRequest holds the query filters of the salesman status report
type SalesmanStatusRequest struct {
	Company        string     `form:"company" binding:"max=100"`
	Duration       string     `form:"duration"`
	CustomerGroup  string     `form:"customer_group" binding:"max=100"`
	Territory      string     `form:"territory" binding:"max=100"`
	SalesmanUserID *uuid.UUID `form:"-"`
	OverLimitOnly  bool       `form:"over_limit_only"`
	BlockedOnly    bool       `form:"blocked_only"`
}

// GroupBy selects the grouping of a batch evaluation
type GroupBy string

const (
	GroupByCustomer GroupBy = "customer"
	GroupBySalesman GroupBy = "salesman"
)

// BatchRequest requests a grouped evaluation over a window of invoices
type BatchRequest struct {
	Company  string  `form:"company" binding:"max=100"`
	Duration string  `form:"duration"`
	GroupBy  GroupBy `form:"group_by" binding:"omitempty,oneof=customer salesman"`
}

// ChartPointResponse is one bar of a report chart
type ChartPointResponse struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// SummaryResponse totals a report
type SummaryResponse struct {
	TotalUsed      decimal.Decimal `json:"total_used"`
	TotalLimit     decimal.Decimal `json:"total_limit"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	Count          int             `json:"count"`
}

// CustomerStatusRowResponse is one row of the customer status report
type CustomerStatusRowResponse struct {
	InvoiceID          uuid.UUID       `json:"invoice_id"`
	InvoiceNo          string          `json:"invoice_no"`
	PostingDate        time.Time       `json:"posting_date"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	CustomerName       string          `json:"customer_name"`
	CustomerGroup      string          `json:"customer_group"`
	Territory          string          `json:"territory"`
	CreditType         string          `json:"credit_type"`
	SalesmanName       string          `json:"salesman_name"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	InvoiceOutstanding decimal.Decimal `json:"invoice_outstanding"`
	CreditLimit        decimal.Decimal `json:"credit_limit"`
	CustomerUsedCredit decimal.Decimal `json:"customer_used_credit"`
	RemainingCredit    decimal.Decimal `json:"remaining_credit"`
	UnpaidInvoices     int             `json:"unpaid_invoices"`
	MaxInvoices        int             `json:"max_invoices"`
	OverLimit          bool            `json:"over_limit"`
	Blocked            bool            `json:"blocked"`
	BlockReason        string          `json:"block_reason,omitempty"`
}

// CustomerStatusResponse is the customer status report
type CustomerStatusResponse struct {
	Rows    []CustomerStatusRowResponse `json:"rows"`
	Chart   []ChartPointResponse        `json:"chart"`
	Summary SummaryResponse             `json:"summary"`
}

// SalesmanStatusRowResponse is one row of the salesman status report
type SalesmanStatusRowResponse struct {
	SalesmanUserID uuid.UUID       `json:"salesman_user_id"`
	SalesmanName   string          `json:"salesman_name"`
	SalesmanLimit  decimal.Decimal `json:"salesman_limit"`
	UsedCredit     decimal.Decimal `json:"used_credit"`
	RemainingLimit decimal.Decimal `json:"remaining_limit"`
	UnpaidInvoices int             `json:"unpaid_invoices"`
	TempCustomers  int             `json:"temp_customers"`
	OverLimit      bool            `json:"over_limit"`
	IsBlocked      bool            `json:"is_blocked"`
	BlockReason    string          `json:"block_reason,omitempty"`
}

// SalesmanStatusResponse is the salesman status report
type SalesmanStatusResponse struct {
	Rows    []SalesmanStatusRowResponse `json:"rows"`
	Chart   []ChartPointResponse        `json:"chart"`
	Summary SummaryResponse             `json:"summary"`
}

// BatchRowResponse is one grouped row of a batch evaluation
type BatchRowResponse struct {
	ID        uuid.UUID       `json:"id"`
	Label     string          `json:"label"`
	Used      decimal.Decimal `json:"used"`
	Limit     decimal.Decimal `json:"limit"`
	Remaining decimal.Decimal `json:"remaining"`
	OverLimit bool            `json:"over_limit"`
	Blocked   bool            `json:"blocked"`
}

func toChart(points []tempcredit.ChartPoint) []ChartPointResponse {
	out := make([]ChartPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, ChartPointResponse{Label: p.Label, Value: p.Value})
	}
	return out
}

func toSummary(s tempcredit.ReportSummary) SummaryResponse {
	return SummaryResponse{
		TotalUsed:      s.TotalUsed,
		TotalLimit:     s.TotalLimit,
		TotalRemaining: s.TotalRemaining,
		Count:          s.Count,
	}
}

// ToCustomerStatusResponse converts the customer status report to a response
func ToCustomerStatusResponse(r tempcredit.CustomerStatusReport) *CustomerStatusResponse {
	rows := make([]CustomerStatusRowResponse, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, CustomerStatusRowResponse{
			InvoiceID:          row.InvoiceID,
			InvoiceNo:          row.InvoiceNo,
			PostingDate:        row.PostingDate,
			CustomerID:         row.CustomerID,
			CustomerName:       row.CustomerName,
			CustomerGroup:      row.CustomerGroup,
			Territory:          row.Territory,
			CreditType:         string(row.CreditType),
			SalesmanName:       row.SalesmanName,
			GrandTotal:         row.GrandTotal,
			InvoiceOutstanding: row.InvoiceOutstanding,
			CreditLimit:        row.CreditLimit,
			CustomerUsedCredit: row.CustomerUsedCredit,
			RemainingCredit:    row.RemainingCredit,
			UnpaidInvoices:     row.UnpaidInvoices,
			MaxInvoices:        row.MaxInvoices,
			OverLimit:          row.OverLimit,
			Blocked:            row.Blocked,
			BlockReason:        row.BlockReason,
		})
	}
	return &CustomerStatusResponse{Rows: rows, Chart: toChart(r.Chart), Summary: toSummary(r.Summary)}
}

// ToSalesmanStatusResponse converts the salesman status report to a response
func ToSalesmanStatusResponse(r tempcredit.SalesmanStatusReport) *SalesmanStatusResponse {
	rows := make([]SalesmanStatusRowResponse, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, SalesmanStatusRowResponse{
			SalesmanUserID: row.SalesmanUserID,
			SalesmanName:   row.SalesmanName,
			SalesmanLimit:  row.SalesmanLimit,
			UsedCredit:     row.UsedCredit,
			RemainingLimit: row.RemainingLimit,
			UnpaidInvoices: row.UnpaidInvoices,
			TempCustomers:  row.TempCustomers,
			OverLimit:      row.OverLimit,
			IsBlocked:      row.IsBlocked,
			BlockReason:    row.BlockReason,
		})
	}
	return &SalesmanStatusResponse{Rows: rows, Chart: toChart(r.Chart), Summary: toSummary(r.Summary)}
}

// ToBatchRowResponses converts batch rows to responses
func ToBatchRowResponses(rows []tempcredit.BatchRow) []BatchRowResponse {
	out := make([]BatchRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, BatchRowResponse{
			ID:        r.ID,
			Label:     r.Label,
			Used:      r.Used,
			Limit:     r.Limit,
			Remaining: r.Remaining,
			OverLimit: r.OverLimit,
			Blocked:   r.Blocked,
		})
	}
	return out
}
