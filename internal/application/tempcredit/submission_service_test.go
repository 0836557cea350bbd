package tempcredit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/erp/tempcredit/internal/domain/trade"
	"github.com/erp/tempcredit/internal/infrastructure/lock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memInvoiceStore keeps invoices in memory and derives usage from them, so
// that a commit is visible to the next evaluation. Every customer counts as a
// temp credit customer in the pool sums. poolReadDelay stretches pool reads so
// that unserialized submitters overlap.
type memInvoiceStore struct {
	mu            sync.Mutex
	invoices      map[uuid.UUID]*trade.SalesInvoice
	poolReadDelay time.Duration
}

func newMemInvoiceStore(invoices ...*trade.SalesInvoice) *memInvoiceStore {
	s := &memInvoiceStore{invoices: make(map[uuid.UUID]*trade.SalesInvoice)}
	for _, inv := range invoices {
		s.invoices[inv.ID] = inv
	}
	return s
}

func (s *memInvoiceStore) FindByID(_ context.Context, id uuid.UUID) (*trade.SalesInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *inv
	clone.Items = append([]trade.SalesInvoiceItem(nil), inv.Items...)
	return &clone, nil
}

func (s *memInvoiceStore) FindByNumber(_ context.Context, number string) (*trade.SalesInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == number {
			clone := *inv
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *memInvoiceStore) Save(_ context.Context, inv *trade.SalesInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *inv
	s.invoices[inv.ID] = &clone
	return nil
}

func (s *memInvoiceStore) SaveWithLock(_ context.Context, inv *trade.SalesInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.invoices[inv.ID]; ok && cur.Version != inv.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	clone := *inv
	s.invoices[inv.ID] = &clone
	return nil
}

func (s *memInvoiceStore) GetOutstandingInvoices(_ context.Context, customerID uuid.UUID) ([]tempcredit.OutstandingInvoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]tempcredit.OutstandingInvoice, 0)
	for _, inv := range s.invoices {
		if inv.CustomerID == customerID && inv.IsSubmitted() && !inv.IsReturn && inv.OutstandingAmount.IsPositive() {
			out = append(out, tempcredit.OutstandingInvoice{InvoiceID: inv.ID, Amount: inv.OutstandingAmount})
		}
	}
	return out, nil
}

func (s *memInvoiceStore) GetWarehouseOutstanding(_ context.Context, warehouse, _, _ string) (decimal.Decimal, error) {
	return s.poolTotal(func(inv *trade.SalesInvoice) bool {
		if inv.SetWarehouse == warehouse {
			return true
		}
		for _, item := range inv.Items {
			if item.Warehouse == warehouse {
				return true
			}
		}
		return false
	}), nil
}

func (s *memInvoiceStore) GetSalesmanOutstanding(_ context.Context, salesmanUserID uuid.UUID, _, _ string) (decimal.Decimal, error) {
	return s.poolTotal(func(inv *trade.SalesInvoice) bool {
		return inv.SalesmanUserID == salesmanUserID
	}), nil
}

func (s *memInvoiceStore) poolTotal(match func(*trade.SalesInvoice) bool) decimal.Decimal {
	s.mu.Lock()
	total := decimal.Zero
	for _, inv := range s.invoices {
		if inv.IsSubmitted() && !inv.IsReturn && inv.OutstandingAmount.IsPositive() && match(inv) {
			total = total.Add(inv.OutstandingAmount)
		}
	}
	s.mu.Unlock()
	time.Sleep(s.poolReadDelay)
	return total
}

type recordedWait struct {
	err error
}

type fakeLockObserver struct {
	mu    sync.Mutex
	waits []recordedWait
}

func (o *fakeLockObserver) ObserveLockWait(_ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waits = append(o.waits, recordedWait{err: err})
}

func newDraft(t *testing.T, customerID uuid.UUID, amount int64) *trade.SalesInvoice {
	t.Helper()
	inv, err := trade.NewSalesInvoice("SINV-"+uuid.NewString()[:8], "Acme KSA", customerID, "Acme Trading", uuid.Nil, "", time.Now())
	require.NoError(t, err)
	_, err = inv.AddItem("ITEM-1", "Widget", "Riyadh", decimal.NewFromInt(1), decimal.NewFromInt(amount))
	require.NoError(t, err)
	return inv
}

func newSubmitted(t *testing.T, customerID uuid.UUID, amount int64) *trade.SalesInvoice {
	t.Helper()
	inv := newDraft(t, customerID, amount)
	require.NoError(t, inv.Submit())
	return inv
}

type submissionFixture struct {
	mocks    *engineMocks
	store    *memInvoiceStore
	guard    *fakeGuard
	observer *fakeLockObserver
	service  *SubmissionService
}

func newSubmissionFixture(t *testing.T, customerID uuid.UUID, invoices ...*trade.SalesInvoice) *submissionFixture {
	t.Helper()
	m := newEngineMocks()
	m.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
	m.directory.On("GetEligibilityField", mock.Anything, customerID, tempcredit.DefaultEligibilityField).
		Return(tempcredit.DefaultTempCreditValue, true, nil)
	m.directory.On("GetDisplayName", mock.Anything, customerID).Return("Acme Trading", nil)
	m.customers.On("FindByCustomer", mock.Anything, customerID).Return(nil, shared.ErrNotFound)

	store := newMemInvoiceStore(invoices...)
	loader := NewSnapshotLoader(m.settings, m.customers, m.salesmen, m.directory, store)
	evaluator := NewEvaluationService(loader, nil, WithDecisionRecorder(m.recorder))
	guard := &fakeGuard{}
	observer := &fakeLockObserver{}

	return &submissionFixture{
		mocks:    m,
		store:    store,
		guard:    guard,
		observer: observer,
		service:  NewSubmissionService(store, evaluator, guard, observer, nil),
	}
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("commits a draft within limits", func(t *testing.T) {
		customer := uuid.New()
		draft := newDraft(t, customer, 150)
		f := newSubmissionFixture(t, customer, newSubmitted(t, customer, 500), draft)

		result, err := f.service.Submit(ctx, draft.ID)

		require.NoError(t, err)
		assert.Equal(t, trade.InvoiceStatusSubmitted, result.Invoice.Status)
		assert.Equal(t, tempcredit.VerdictAllowed, result.Decision.Verdict)

		stored, _ := f.store.FindByID(ctx, draft.ID)
		assert.True(t, stored.IsSubmitted())
		assert.True(t, stored.OutstandingAmount.Equal(decimal.NewFromInt(150)))
		assert.Equal(t, 1, f.guard.calls)
		require.Len(t, f.observer.waits, 1)
		assert.NoError(t, f.observer.waits[0].err)
	})

	t.Run("rejects a draft over the limit and leaves it unchanged", func(t *testing.T) {
		customer := uuid.New()
		draft := newDraft(t, customer, 300)
		f := newSubmissionFixture(t, customer, newSubmitted(t, customer, 500), draft)

		result, err := f.service.Submit(ctx, draft.ID)

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, tempcredit.ErrCreditLimitExceeded)
		var exceeded *tempcredit.CreditLimitExceededError
		require.True(t, errors.As(err, &exceeded))
		assert.Equal(t, tempcredit.TitleExceeded, exceeded.Decision.Title)
		assert.False(t, tempcredit.IsTransient(err))

		stored, _ := f.store.FindByID(ctx, draft.ID)
		assert.True(t, stored.IsDraft())
	})

	t.Run("rejects blacklisted customers with the reason", func(t *testing.T) {
		customer := uuid.New()
		cp, err := tempcredit.NewCustomerPolicy(customer)
		require.NoError(t, err)
		cp.Blacklist("")

		draft := newDraft(t, customer, 10)
		m := newEngineMocks()
		m.settings.On("Get", mock.Anything).Return(enabledSettings(), nil)
		m.customers.On("FindByCustomer", mock.Anything, customer).Return(cp, nil)
		m.directory.On("GetEligibilityField", mock.Anything, customer, mock.Anything).Return(tempcredit.DefaultTempCreditValue, true, nil)
		m.directory.On("GetDisplayName", mock.Anything, customer).Return("Acme Trading", nil)
		store := newMemInvoiceStore(draft)
		svc := NewSubmissionService(store, NewEvaluationService(NewSnapshotLoader(m.settings, m.customers, m.salesmen, m.directory, store), nil), &fakeGuard{}, nil, nil)

		_, err = svc.Submit(ctx, draft.ID)

		var exceeded *tempcredit.CreditLimitExceededError
		require.True(t, errors.As(err, &exceeded))
		assert.Equal(t, tempcredit.TitleBlocked, exceeded.Decision.Title)
		assert.Equal(t, tempcredit.DefaultBlacklistReason, exceeded.Decision.BlockedReason)
	})

	t.Run("surfaces lock timeouts as transient", func(t *testing.T) {
		customer := uuid.New()
		draft := newDraft(t, customer, 150)
		f := newSubmissionFixture(t, customer, draft)
		f.guard.err = tempcredit.ErrLockTimeout

		_, err := f.service.Submit(ctx, draft.ID)

		assert.ErrorIs(t, err, tempcredit.ErrLockTimeout)
		assert.True(t, tempcredit.IsTransient(err))
		require.Len(t, f.observer.waits, 1)
		assert.Error(t, f.observer.waits[0].err)
	})

	t.Run("wraps unknown lock failures as unexpected failure", func(t *testing.T) {
		customer := uuid.New()
		draft := newDraft(t, customer, 150)
		f := newSubmissionFixture(t, customer, draft)
		f.guard.err = errors.New("driver: bad connection")

		_, err := f.service.Submit(ctx, draft.ID)

		assert.ErrorIs(t, err, tempcredit.ErrUnexpectedFailure)
	})

	t.Run("refuses invoices that are not drafts", func(t *testing.T) {
		customer := uuid.New()
		submitted := newSubmitted(t, customer, 100)
		f := newSubmissionFixture(t, customer, submitted)

		_, err := f.service.Submit(ctx, submitted.ID)

		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, 0, f.guard.calls)
	})

	t.Run("returns not found for unknown invoices", func(t *testing.T) {
		f := newSubmissionFixture(t, uuid.New())

		_, err := f.service.Submit(ctx, uuid.New())

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("admits exactly one of two concurrent drafts that only fit alone", func(t *testing.T) {
		customer := uuid.New()
		first := newDraft(t, customer, 150)
		second := newDraft(t, customer, 150)
		f := newSubmissionFixture(t, customer, newSubmitted(t, customer, 500), first, second)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, id := range []uuid.UUID{first.ID, second.ID} {
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				_, errs[i] = f.service.Submit(ctx, id)
			}(i, id)
		}
		wg.Wait()

		accepted, rejected := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, tempcredit.ErrCreditLimitExceeded):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, accepted)
		assert.Equal(t, 1, rejected)

		usage, err := f.store.GetOutstandingInvoices(ctx, customer)
		require.NoError(t, err)
		assert.True(t, tempcredit.AggregateUsage(usage).TotalOutstanding.Equal(decimal.NewFromInt(650)))
	})

	t.Run("takes the warehouse and salesman pool locks in key order", func(t *testing.T) {
		customer := uuid.New()
		salesman := uuid.New()
		draft := newDraft(t, customer, 150)
		draft.SalesmanUserID = salesman

		s := enabledSettings()
		s.EnableWarehouseLimit = true
		s.EnableSalesmanLimit = true
		m := newEngineMocks()
		m.settings.On("Get", mock.Anything).Return(s, nil)
		m.directory.On("GetEligibilityField", mock.Anything, customer, tempcredit.DefaultEligibilityField).
			Return(tempcredit.DefaultTempCreditValue, true, nil)
		m.directory.On("GetDisplayName", mock.Anything, customer).Return("Acme Trading", nil)
		m.customers.On("FindByCustomer", mock.Anything, customer).Return(nil, shared.ErrNotFound)
		m.salesmen.On("FindByUser", mock.Anything, salesman).Return(nil, shared.ErrNotFound)
		store := newMemInvoiceStore(draft)
		guard := &fakeGuard{}
		svc := NewSubmissionService(store, NewEvaluationService(NewSnapshotLoader(m.settings, m.customers, m.salesmen, m.directory, store), nil), guard, nil, nil)

		_, err := svc.Submit(ctx, draft.ID)

		require.NoError(t, err)
		assert.Equal(t, []string{tempcredit.SalesmanPoolKey(salesman), tempcredit.WarehousePoolKey("Riyadh")}, guard.pools)
	})

	t.Run("takes no pool locks when pool limits are off", func(t *testing.T) {
		customer := uuid.New()
		draft := newDraft(t, customer, 150)
		f := newSubmissionFixture(t, customer, draft)

		_, err := f.service.Submit(ctx, draft.ID)

		require.NoError(t, err)
		assert.Empty(t, f.guard.pools)
	})
}

func TestSubmissionService_SharedPoolsAcrossCustomers(t *testing.T) {
	ctx := context.Background()
	salesman := uuid.New()

	tests := []struct {
		name      string
		configure func(*tempcredit.Settings)
		title     string
	}{
		{
			name: "warehouse pool",
			configure: func(s *tempcredit.Settings) {
				s.EnableWarehouseLimit = true
				s.DefaultWarehouseLimit = decimal.NewFromInt(1000)
			},
			title: tempcredit.TitleWarehouse,
		},
		{
			name: "salesman pool",
			configure: func(s *tempcredit.Settings) {
				s.EnableSalesmanLimit = true
				s.DefaultSalesmanLimit = decimal.NewFromInt(1000)
			},
			title: tempcredit.TitleSalesman,
		},
	}

	for _, tt := range tests {
		t.Run("admits one of two customers racing for the last of a "+tt.name, func(t *testing.T) {
			s := enabledSettings()
			tt.configure(&s)

			m := newEngineMocks()
			m.settings.On("Get", mock.Anything).Return(s, nil)
			m.salesmen.On("FindByUser", mock.Anything, salesman).Return(nil, shared.ErrNotFound)

			drafts := make([]*trade.SalesInvoice, 0, 2)
			for _, customer := range []uuid.UUID{uuid.New(), uuid.New()} {
				m.directory.On("GetEligibilityField", mock.Anything, customer, tempcredit.DefaultEligibilityField).
					Return(tempcredit.DefaultTempCreditValue, true, nil)
				m.directory.On("GetDisplayName", mock.Anything, customer).Return("Acme Trading", nil)
				m.customers.On("FindByCustomer", mock.Anything, customer).Return(nil, shared.ErrNotFound)
				draft := newDraft(t, customer, 600)
				draft.SalesmanUserID = salesman
				drafts = append(drafts, draft)
			}

			store := newMemInvoiceStore(drafts...)
			store.poolReadDelay = 20 * time.Millisecond
			loader := NewSnapshotLoader(m.settings, m.customers, m.salesmen, m.directory, store)
			svc := NewSubmissionService(store, NewEvaluationService(loader, nil), lock.NewMemoryGuard(5*time.Second), nil, nil)

			var wg sync.WaitGroup
			errs := make([]error, len(drafts))
			for i, draft := range drafts {
				wg.Add(1)
				go func(i int, id uuid.UUID) {
					defer wg.Done()
					_, errs[i] = svc.Submit(ctx, id)
				}(i, draft.ID)
			}
			wg.Wait()

			accepted := 0
			for _, err := range errs {
				if err == nil {
					accepted++
					continue
				}
				var exceeded *tempcredit.CreditLimitExceededError
				require.True(t, errors.As(err, &exceeded), "unexpected error: %v", err)
				assert.Equal(t, tt.title, exceeded.Decision.Title)
			}
			assert.Equal(t, 1, accepted)

			warehouse, err := store.GetWarehouseOutstanding(ctx, "Riyadh", "", "")
			require.NoError(t, err)
			assert.True(t, warehouse.Equal(decimal.NewFromInt(600)), warehouse.String())
		})
	}
}
