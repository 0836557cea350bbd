package tempcredit

import (
	"context"
	"errors"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/erp/tempcredit/internal/domain/tempcredit"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PolicyService administers customer and salesman policies
type PolicyService struct {
	customerPolicies tempcredit.CustomerPolicyRepository
	salesmanPolicies tempcredit.SalesmanPolicyRepository
	customers        partner.CustomerRepository
	logger           *zap.Logger
}

// NewPolicyService creates a new PolicyService
func NewPolicyService(
	customerPolicies tempcredit.CustomerPolicyRepository,
	salesmanPolicies tempcredit.SalesmanPolicyRepository,
	customers partner.CustomerRepository,
	log *zap.Logger,
) *PolicyService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PolicyService{
		customerPolicies: customerPolicies,
		salesmanPolicies: salesmanPolicies,
		customers:        customers,
		logger:           log,
	}
}

// GetCustomerPolicy returns the policy of a customer
func (s *PolicyService) GetCustomerPolicy(ctx context.Context, customerID uuid.UUID) (*CustomerPolicyResponse, error) {
	p, err := s.customerPolicies.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return ToCustomerPolicyResponse(p), nil
}

// UpsertCustomerPolicy creates or replaces the policy of a customer
func (s *PolicyService) UpsertCustomerPolicy(ctx context.Context, customerID uuid.UUID, req UpsertCustomerPolicyRequest) (*CustomerPolicyResponse, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	p, err := s.customerPolicies.FindByCustomer(ctx, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		p, err = tempcredit.NewCustomerPolicy(customerID)
	}
	if err != nil {
		return nil, err
	}

	if req.Enabled != nil {
		p.SetEnabled(*req.Enabled)
	}
	credit := tempcredit.ParseAmountOverride(string(req.CreditLimitOverride))
	invoices := tempcredit.ParseCountOverride(string(req.MaxUnpaidInvoicesOverride))
	if err := p.SetOverrides(credit, invoices); err != nil {
		return nil, err
	}
	if req.IsBlacklisted {
		p.Blacklist(req.BlacklistReason)
	} else {
		p.ClearBlacklist()
	}

	if err := s.customerPolicies.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToCustomerPolicyResponse(p)
	if len(resp.Warnings) > 0 {
		s.logger.Warn("Customer policy saved with warnings",
			zap.String("customer_id", customerID.String()),
			zap.Strings("warnings", resp.Warnings))
	}
	return resp, nil
}

// DeleteCustomerPolicy removes a customer's policy
func (s *PolicyService) DeleteCustomerPolicy(ctx context.Context, customerID uuid.UUID) error {
	return s.customerPolicies.DeleteByCustomer(ctx, customerID)
}

// GetSalesmanPolicy returns the policy of a salesman
func (s *PolicyService) GetSalesmanPolicy(ctx context.Context, userID uuid.UUID) (*SalesmanPolicyResponse, error) {
	p, err := s.salesmanPolicies.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToSalesmanPolicyResponse(p), nil
}

// UpsertSalesmanPolicy creates or replaces the policy of a salesman
func (s *PolicyService) UpsertSalesmanPolicy(ctx context.Context, userID uuid.UUID, req UpsertSalesmanPolicyRequest) (*SalesmanPolicyResponse, error) {
	p, err := s.salesmanPolicies.FindByUser(ctx, userID)
	if errors.Is(err, shared.ErrNotFound) {
		p, err = tempcredit.NewSalesmanPolicy(userID)
	}
	if err != nil {
		return nil, err
	}

	if req.Enabled != nil {
		p.SetEnabled(*req.Enabled)
	}
	if err := p.SetLimit(tempcredit.ParseAmountOverride(string(req.MaxOutstandingLimit))); err != nil {
		return nil, err
	}
	if req.IsBlocked {
		p.Block(req.BlockReason)
	} else {
		p.Unblock()
	}

	if err := s.salesmanPolicies.Save(ctx, p); err != nil {
		return nil, err
	}
	return ToSalesmanPolicyResponse(p), nil
}

// DeleteSalesmanPolicy removes a salesman's policy
func (s *PolicyService) DeleteSalesmanPolicy(ctx context.Context, userID uuid.UUID) error {
	return s.salesmanPolicies.DeleteByUser(ctx, userID)
}
