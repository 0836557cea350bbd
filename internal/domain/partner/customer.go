package partner

import (
	"context"
	"regexp"
	"strings"

	"github.com/erp/tempcredit/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the status of a customer
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusDisabled CustomerStatus = "disabled"
)

// Customer is the aggregate root of the partner context.
// Attributes holds custom fields, one of which flags temp-credit customers.
type Customer struct {
	shared.BaseAggregateRoot
	Code          string
	Name          string
	CustomerGroup string
	Territory     string
	Status        CustomerStatus
	CreditLimit   decimal.Decimal // standard (non temp) credit limit
	Attributes    map[string]string
}

// NewCustomer creates a new customer with required fields
func NewCustomer(code, name string) (*Customer, error) {
	if err := validateCustomerCode(code); err != nil {
		return nil, err
	}
	if err := validateCustomerName(name); err != nil {
		return nil, err
	}

	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
		Status:            CustomerStatusActive,
		CreditLimit:       decimal.Zero,
		Attributes:        make(map[string]string),
	}, nil
}

// Update updates the customer's basic information
func (c *Customer) Update(name, customerGroup, territory string) error {
	if err := validateCustomerName(name); err != nil {
		return err
	}
	if len(customerGroup) > 140 || len(territory) > 140 {
		return shared.NewDomainError("INVALID_CLASSIFICATION", "Customer group and territory cannot exceed 140 characters")
	}

	c.Name = name
	c.CustomerGroup = strings.TrimSpace(customerGroup)
	c.Territory = strings.TrimSpace(territory)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetCreditLimit sets the standard credit limit
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.NewDomainError("INVALID_CREDIT_LIMIT", "Credit limit cannot be negative")
	}
	c.CreditLimit = limit
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetAttribute sets one custom attribute. An empty value removes it.
func (c *Customer) SetAttribute(key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return shared.NewDomainError("INVALID_ATTRIBUTE", "Attribute name cannot be empty")
	}
	if len(key) > 100 {
		return shared.NewDomainError("INVALID_ATTRIBUTE", "Attribute name cannot exceed 100 characters")
	}
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	if value == "" {
		delete(c.Attributes, key)
	} else {
		c.Attributes[key] = value
	}
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Attribute returns a custom attribute
func (c *Customer) Attribute(key string) (string, bool) {
	v, ok := c.Attributes[key]
	return v, ok
}

// Disable disables the customer
func (c *Customer) Disable() error {
	if c.Status == CustomerStatusDisabled {
		return shared.NewDomainError("INVALID_STATE", "Customer is already disabled")
	}
	c.Status = CustomerStatusDisabled
	c.Touch()
	c.IncrementVersion()
	return nil
}

// IsActive returns true if customer is active
func (c *Customer) IsActive() bool {
	return c.Status == CustomerStatusActive
}

var customerCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateCustomerCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Customer code cannot exceed 50 characters")
	}
	if !customerCodePattern.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Customer code can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

func validateCustomerName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters")
	}
	return nil
}

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByCode finds a customer by its code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// ExistsByCode checks if a customer with the given code exists
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
