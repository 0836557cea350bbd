package tempcredit

import (
	"sort"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Duration is a reporting window ending today
type Duration string

const (
	DurationToday  Duration = "Today"
	DurationLast30 Duration = "Last 30 Days"
	DurationLast60 Duration = "Last 60 Days"
	DurationLast90 Duration = "Last 90 Days"
	DurationAll    Duration = "All"
)

// ParseDuration validates a window name. Empty input selects the last 30 days.
func ParseDuration(s string) (Duration, error) {
	switch d := Duration(s); d {
	case "":
		return DurationLast30, nil
	case DurationToday, DurationLast30, DurationLast60, DurationLast90, DurationAll:
		return d, nil
	}
	return "", shared.ErrInvalidInput.WithMessage("unknown duration: " + s)
}

// Since returns the first posting date inside the window, or nil for All
func (d Duration) Since(now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var since time.Time
	switch d {
	case DurationToday:
		since = today
	case DurationLast60:
		since = today.AddDate(0, 0, -60)
	case DurationLast90:
		since = today.AddDate(0, 0, -90)
	case DurationAll:
		return nil
	default:
		since = today.AddDate(0, 0, -30)
	}
	return &since
}

// CreditType classifies a customer for reporting
type CreditType string

const (
	CreditTypeTemp     CreditType = "Temp Credit"
	CreditTypeStandard CreditType = "Credit"
)

// SummaryMode selects the chart grouping
type SummaryMode string

const (
	SummaryCustomerWise SummaryMode = "Customer Wise"
	SummarySalesmanWise SummaryMode = "Salesman Wise"
)

// ChartLimit is the number of bars in report charts
const ChartLimit = 10

// ReportInvoice is one submitted invoice row with its customer and salesman data
type ReportInvoice struct {
	InvoiceID           uuid.UUID
	InvoiceNo           string
	PostingDate         time.Time
	Company             string
	CustomerID          uuid.UUID
	CustomerName        string
	CustomerGroup       string
	Territory           string
	CustomerAttributes  Attributes
	StandardCreditLimit decimal.Decimal
	SalesmanUserID      uuid.UUID
	SalesmanName        string
	GrandTotal          decimal.Decimal
	OutstandingAmount   decimal.Decimal
}

// ReportPolicies holds the policy records referenced by a batch
type ReportPolicies struct {
	Customers map[uuid.UUID]*CustomerPolicy
	Salesmen  map[uuid.UUID]*SalesmanPolicy
}

// Salesman returns the stored policy of a salesman, UnconfiguredSalesman when
// none is stored, or nil for invoices without a salesman
func (p ReportPolicies) Salesman(id uuid.UUID) *SalesmanPolicy {
	if id == uuid.Nil {
		return nil
	}
	if sp, ok := p.Salesmen[id]; ok && sp != nil {
		return sp
	}
	return UnconfiguredSalesman(id)
}

// ChartPoint is one bar of a report chart
type ChartPoint struct {
	Label string
	Value decimal.Decimal
}

// ReportSummary totals a report
type ReportSummary struct {
	TotalUsed      decimal.Decimal
	TotalLimit     decimal.Decimal
	TotalRemaining decimal.Decimal
	Count          int
}

// CustomerStatusOptions are the filters applied after rows are classified
type CustomerStatusOptions struct {
	CreditType    CreditType
	OverLimitOnly bool
	BlockedOnly   bool
	SummaryMode   SummaryMode
}

// CustomerStatusRow is one invoice of the customer status report
type CustomerStatusRow struct {
	InvoiceID          uuid.UUID
	InvoiceNo          string
	PostingDate        time.Time
	CustomerID         uuid.UUID
	CustomerName       string
	CustomerGroup      string
	Territory          string
	CreditType         CreditType
	SalesmanUserID     uuid.UUID
	SalesmanName       string
	GrandTotal         decimal.Decimal
	InvoiceOutstanding decimal.Decimal
	CreditLimit        decimal.Decimal
	CustomerUsedCredit decimal.Decimal
	RemainingCredit    decimal.Decimal
	UnpaidInvoices     int
	MaxInvoices        int
	OverLimit          bool
	Blocked            bool
	BlockReason        string
}

// CustomerStatusReport is the invoice-wise customer status report
type CustomerStatusReport struct {
	Rows    []CustomerStatusRow
	Chart   []ChartPoint
	Summary ReportSummary
}

type customerClass struct {
	creditType CreditType
	usage      InvoiceUsage
	// latest is the customer's most recent invoice in the batch. Its salesman
	// supplies the salesman tier of the customer's resolved policy.
	latest ReportInvoice
}

func newerInvoice(a, b ReportInvoice) bool {
	if !a.PostingDate.Equal(b.PostingDate) {
		return a.PostingDate.After(b.PostingDate)
	}
	return a.InvoiceNo > b.InvoiceNo
}

func classifyCustomers(s Settings, invoices []ReportInvoice, policies ReportPolicies, tempOnly bool) map[uuid.UUID]*customerClass {
	classes := make(map[uuid.UUID]*customerClass)
	grouped := make(map[uuid.UUID][]OutstandingInvoice)
	for _, inv := range invoices {
		if _, seen := classes[inv.CustomerID]; !seen {
			ct := CreditType("")
			cp := policies.Customers[inv.CustomerID]
			if IsTempCreditCustomer(s, inv.CustomerAttributes) && (cp == nil || cp.Enabled) {
				ct = CreditTypeTemp
			} else if !tempOnly && inv.StandardCreditLimit.IsPositive() {
				ct = CreditTypeStandard
			}
			classes[inv.CustomerID] = &customerClass{creditType: ct, latest: inv}
		} else if c := classes[inv.CustomerID]; newerInvoice(inv, c.latest) {
			c.latest = inv
		}
		grouped[inv.CustomerID] = append(grouped[inv.CustomerID], OutstandingInvoice{
			InvoiceID: inv.InvoiceID,
			Amount:    inv.OutstandingAmount,
		})
	}
	for id, c := range classes {
		c.usage = AggregateUsage(grouped[id])
	}
	return classes
}

// BuildCustomerStatus evaluates every customer of the batch with the same
// resolver and decision rules as the live check and emits one row per invoice.
// Customer usage is measured over the invoices of the batch. Each customer is
// resolved once, with the salesman of their latest invoice in the batch, so all
// rows of a customer carry the same limit.
func BuildCustomerStatus(s Settings, invoices []ReportInvoice, policies ReportPolicies, opts CustomerStatusOptions) CustomerStatusReport {
	classes := classifyCustomers(s, invoices, policies, false)
	decisions := make(map[uuid.UUID]CreditDecision)
	for id, class := range classes {
		if class.creditType != CreditTypeTemp {
			continue
		}
		res := Resolve(s, policies.Customers[id], policies.Salesman(class.latest.SalesmanUserID))
		decisions[id] = Decide(DecisionInput{CustomerName: class.latest.CustomerName, Policy: res.Policy, Usage: class.usage})
	}

	rows := make([]CustomerStatusRow, 0, len(invoices))
	for _, inv := range invoices {
		class := classes[inv.CustomerID]
		if class.creditType == "" {
			continue
		}
		if opts.CreditType != "" && class.creditType != opts.CreditType {
			continue
		}

		row := CustomerStatusRow{
			InvoiceID:          inv.InvoiceID,
			InvoiceNo:          inv.InvoiceNo,
			PostingDate:        inv.PostingDate,
			CustomerID:         inv.CustomerID,
			CustomerName:       inv.CustomerName,
			CustomerGroup:      inv.CustomerGroup,
			Territory:          inv.Territory,
			CreditType:         class.creditType,
			SalesmanUserID:     inv.SalesmanUserID,
			SalesmanName:       inv.SalesmanName,
			GrandTotal:         inv.GrandTotal,
			InvoiceOutstanding: inv.OutstandingAmount,
			CustomerUsedCredit: class.usage.TotalOutstanding,
			UnpaidInvoices:     class.usage.Count,
		}

		if class.creditType == CreditTypeTemp {
			d := decisions[inv.CustomerID]
			row.CreditLimit = d.Policy.MaxCredit
			row.MaxInvoices = d.Policy.MaxInvoices
			row.RemainingCredit = d.RemainingCredit
			row.OverLimit = d.CustomerExceeded
			row.Blocked = d.Policy.Blocked
			row.BlockReason = d.Policy.BlockReason
		} else {
			row.CreditLimit = inv.StandardCreditLimit
			row.RemainingCredit = floorZero(inv.StandardCreditLimit.Sub(class.usage.TotalOutstanding))
			row.OverLimit = class.usage.TotalOutstanding.GreaterThan(inv.StandardCreditLimit)
		}

		if opts.OverLimitOnly && !row.OverLimit {
			continue
		}
		if opts.BlockedOnly && !row.Blocked {
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].PostingDate.Equal(rows[j].PostingDate) {
			return rows[i].PostingDate.After(rows[j].PostingDate)
		}
		return rows[i].InvoiceNo > rows[j].InvoiceNo
	})

	return CustomerStatusReport{
		Rows:    rows,
		Chart:   customerChart(rows, opts.SummaryMode),
		Summary: customerSummary(rows),
	}
}

func customerSummary(rows []CustomerStatusRow) ReportSummary {
	sum := ReportSummary{TotalUsed: decimal.Zero, TotalLimit: decimal.Zero, TotalRemaining: decimal.Zero}
	seen := make(map[uuid.UUID]bool)
	for _, r := range rows {
		if seen[r.CustomerID] {
			continue
		}
		seen[r.CustomerID] = true
		sum.Count++
		sum.TotalUsed = sum.TotalUsed.Add(r.CustomerUsedCredit)
		sum.TotalLimit = sum.TotalLimit.Add(r.CreditLimit)
		sum.TotalRemaining = sum.TotalRemaining.Add(r.RemainingCredit)
	}
	return sum
}

func customerChart(rows []CustomerStatusRow, mode SummaryMode) []ChartPoint {
	totals := make(map[string]decimal.Decimal)
	var order []string
	add := func(label string, v decimal.Decimal) {
		if _, ok := totals[label]; !ok {
			order = append(order, label)
			totals[label] = decimal.Zero
		}
		totals[label] = totals[label].Add(v)
	}

	if mode == SummarySalesmanWise {
		for _, r := range rows {
			add(salesmanLabel(r.SalesmanName, r.SalesmanUserID), r.InvoiceOutstanding)
		}
	} else {
		seen := make(map[uuid.UUID]bool)
		for _, r := range rows {
			if seen[r.CustomerID] {
				continue
			}
			seen[r.CustomerID] = true
			add(r.CustomerName, r.CustomerUsedCredit)
		}
	}
	return topN(order, totals)
}

func topN(order []string, totals map[string]decimal.Decimal) []ChartPoint {
	points := make([]ChartPoint, 0, len(order))
	for _, label := range order {
		points = append(points, ChartPoint{Label: label, Value: totals[label]})
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Value.GreaterThan(points[j].Value)
	})
	if len(points) > ChartLimit {
		points = points[:ChartLimit]
	}
	return points
}

func salesmanLabel(name string, id uuid.UUID) string {
	if name != "" {
		return name
	}
	if id == uuid.Nil {
		return "Unassigned"
	}
	return id.String()
}

// SalesmanStatusOptions are the filters applied after rows are computed
type SalesmanStatusOptions struct {
	OverLimitOnly bool
	BlockedOnly   bool
}

// SalesmanStatusRow is one salesman's temp-credit exposure
type SalesmanStatusRow struct {
	SalesmanUserID uuid.UUID
	SalesmanName   string
	SalesmanLimit  decimal.Decimal
	UsedCredit     decimal.Decimal
	RemainingLimit decimal.Decimal
	UnpaidInvoices int
	TempCustomers  int
	OverLimit      bool
	IsBlocked      bool
	BlockReason    string
}

// SalesmanStatusReport is the salesman-wise exposure report
type SalesmanStatusReport struct {
	Rows    []SalesmanStatusRow
	Chart   []ChartPoint
	Summary ReportSummary
}

// BuildSalesmanStatus groups the temp-credit invoices of the batch by salesman
func BuildSalesmanStatus(s Settings, invoices []ReportInvoice, policies ReportPolicies, opts SalesmanStatusOptions) SalesmanStatusReport {
	classes := classifyCustomers(s, invoices, policies, true)

	type acc struct {
		row       SalesmanStatusRow
		customers map[uuid.UUID]bool
	}
	accs := make(map[uuid.UUID]*acc)
	var order []uuid.UUID
	for _, inv := range invoices {
		if classes[inv.CustomerID].creditType != CreditTypeTemp || !inv.OutstandingAmount.IsPositive() {
			continue
		}
		a, ok := accs[inv.SalesmanUserID]
		if !ok {
			a = &acc{
				row: SalesmanStatusRow{
					SalesmanUserID: inv.SalesmanUserID,
					SalesmanName:   salesmanLabel(inv.SalesmanName, inv.SalesmanUserID),
					UsedCredit:     decimal.Zero,
				},
				customers: make(map[uuid.UUID]bool),
			}
			accs[inv.SalesmanUserID] = a
			order = append(order, inv.SalesmanUserID)
		}
		a.row.UsedCredit = a.row.UsedCredit.Add(inv.OutstandingAmount)
		a.row.UnpaidInvoices++
		a.customers[inv.CustomerID] = true
	}

	rows := make([]SalesmanStatusRow, 0, len(order))
	for _, id := range order {
		a := accs[id]
		r := a.row
		r.TempCustomers = len(a.customers)

		sp := policies.Salesmen[id]
		limit, _ := SalesmanLimit(s, sp)
		r.SalesmanLimit = limit
		r.RemainingLimit = floorZero(limit.Sub(r.UsedCredit))
		r.OverLimit = limit.IsPositive() && r.UsedCredit.GreaterThan(limit)
		if sp != nil && sp.Enabled && sp.IsBlocked {
			r.IsBlocked = true
			r.BlockReason = sp.EffectiveBlockReason()
		}

		if opts.OverLimitOnly && !r.OverLimit {
			continue
		}
		if opts.BlockedOnly && !r.IsBlocked {
			continue
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UsedCredit.GreaterThan(rows[j].UsedCredit)
	})

	sum := ReportSummary{TotalUsed: decimal.Zero, TotalLimit: decimal.Zero, TotalRemaining: decimal.Zero}
	chartOrder := make([]string, 0, len(rows))
	totals := make(map[string]decimal.Decimal)
	for _, r := range rows {
		sum.Count++
		sum.TotalUsed = sum.TotalUsed.Add(r.UsedCredit)
		sum.TotalLimit = sum.TotalLimit.Add(r.SalesmanLimit)
		sum.TotalRemaining = sum.TotalRemaining.Add(r.RemainingLimit)
		if _, ok := totals[r.SalesmanName]; !ok {
			chartOrder = append(chartOrder, r.SalesmanName)
			totals[r.SalesmanName] = decimal.Zero
		}
		totals[r.SalesmanName] = totals[r.SalesmanName].Add(r.UsedCredit)
	}

	return SalesmanStatusReport{
		Rows:    rows,
		Chart:   topN(chartOrder, totals),
		Summary: sum,
	}
}

// BatchRow is the grouped status of one customer or salesman
type BatchRow struct {
	ID        uuid.UUID
	Label     string
	Used      decimal.Decimal
	Limit     decimal.Decimal
	Remaining decimal.Decimal
	OverLimit bool
	Blocked   bool
}

// ByCustomer collapses invoice rows to one row per customer
func (r CustomerStatusReport) ByCustomer() []BatchRow {
	out := make([]BatchRow, 0)
	seen := make(map[uuid.UUID]bool)
	for _, row := range r.Rows {
		if seen[row.CustomerID] {
			continue
		}
		seen[row.CustomerID] = true
		out = append(out, BatchRow{
			ID:        row.CustomerID,
			Label:     row.CustomerName,
			Used:      row.CustomerUsedCredit,
			Limit:     row.CreditLimit,
			Remaining: row.RemainingCredit,
			OverLimit: row.OverLimit,
			Blocked:   row.Blocked,
		})
	}
	return out
}

// BatchRows returns one row per salesman
func (r SalesmanStatusReport) BatchRows() []BatchRow {
	out := make([]BatchRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, BatchRow{
			ID:        row.SalesmanUserID,
			Label:     row.SalesmanName,
			Used:      row.UsedCredit,
			Limit:     row.SalesmanLimit,
			Remaining: row.RemainingLimit,
			OverLimit: row.OverLimit,
			Blocked:   row.IsBlocked,
		})
	}
	return out
}
