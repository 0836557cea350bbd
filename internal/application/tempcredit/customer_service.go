package tempcredit

import (
	"context"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerService handles the customer records read by the engine
type CustomerService struct {
	repo   partner.CustomerRepository
	logger *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(repo partner.CustomerRepository, log *zap.Logger) *CustomerService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CustomerService{repo: repo, logger: log}
}

// Create creates a new customer
func (s *CustomerService) Create(ctx context.Context, req CreateCustomerRequest) (*CustomerResponse, error) {
	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Customer with this code already exists")
	}

	customer, err := partner.NewCustomer(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	if req.CustomerGroup != "" || req.Territory != "" {
		if err := customer.Update(req.Name, req.CustomerGroup, req.Territory); err != nil {
			return nil, err
		}
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}
	for k, v := range req.Attributes {
		if err := customer.SetAttribute(k, v); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// GetByID retrieves a customer by ID
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// Update updates a customer
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, req UpdateCustomerRequest) (*CustomerResponse, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, group, territory := customer.Name, customer.CustomerGroup, customer.Territory
	if req.Name != nil {
		name = *req.Name
	}
	if req.CustomerGroup != nil {
		group = *req.CustomerGroup
	}
	if req.Territory != nil {
		territory = *req.Territory
	}
	if err := customer.Update(name, group, territory); err != nil {
		return nil, err
	}
	if req.CreditLimit != nil {
		if err := customer.SetCreditLimit(*req.CreditLimit); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, err
	}
	return ToCustomerResponse(customer), nil
}

// SetAttribute sets one custom attribute. An empty value clears it.
func (s *CustomerService) SetAttribute(ctx context.Context, id uuid.UUID, key string, req SetAttributeRequest) (*CustomerResponse, error) {
	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := customer.SetAttribute(key, req.Value); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("Customer attribute changed",
		zap.String("customer_id", id.String()),
		zap.String("attribute", key),
		zap.String("value", req.Value))
	return ToCustomerResponse(customer), nil
}
