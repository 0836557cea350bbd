package models

import (
	"encoding/json"

	"github.com/erp/tempcredit/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerModel is the persistence model for the Customer domain entity.
type CustomerModel struct {
	AggregateModel
	Code          string                 `gorm:"type:varchar(50);not null;uniqueIndex:idx_customers_code"`
	Name          string                 `gorm:"type:varchar(200);not null"`
	CustomerGroup string                 `gorm:"type:varchar(140);index"`
	Territory     string                 `gorm:"type:varchar(140);index"`
	Status        partner.CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	CreditLimit   decimal.Decimal        `gorm:"type:decimal(18,4);not null;default:0"`
	Attributes    string                 `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	return &partner.Customer{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		Name:              m.Name,
		CustomerGroup:     m.CustomerGroup,
		Territory:         m.Territory,
		Status:            m.Status,
		CreditLimit:       m.CreditLimit,
		Attributes:        DecodeAttributes(m.Attributes),
	}
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.CustomerGroup = c.CustomerGroup
	m.Territory = c.Territory
	m.Status = c.Status
	m.CreditLimit = c.CreditLimit
	m.Attributes = EncodeAttributes(c.Attributes)
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *partner.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// DecodeAttributes parses the jsonb attribute column. Non-string values are
// rendered with their JSON text; unreadable documents yield an empty map.
func DecodeAttributes(raw string) map[string]string {
	out := make(map[string]string)
	if raw == "" {
		return out
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return out
	}
	for k, v := range doc {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		if string(v) != "null" {
			out[k] = string(v)
		}
	}
	return out
}

// EncodeAttributes renders the attribute map for the jsonb column
func EncodeAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "{}"
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(b)
}
