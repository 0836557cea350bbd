package tempcredit

import (
	"strings"

	"github.com/google/uuid"
)

// SkipReason explains why temp-credit rules do not apply to a document
type SkipReason string

const (
	SkipNone           SkipReason = ""
	SkipDisabled       SkipReason = "disabled"
	SkipCancelled      SkipReason = "cancelled"
	SkipReturn         SkipReason = "return"
	SkipNoCustomer     SkipReason = "no_customer"
	SkipNotTempCredit  SkipReason = "not_temp_credit"
	SkipPolicyDisabled SkipReason = "customer_policy_disabled"
)

// Attributes is the generic key-value attribute map of a customer record
type Attributes map[string]string

// Lookup returns the attribute named key
func (a Attributes) Lookup(key string) (string, bool) {
	if a == nil {
		return "", false
	}
	v, ok := a[key]
	return v, ok
}

// DocumentState is the part of an invoice the eligibility check looks at
type DocumentState struct {
	CustomerID uuid.UUID
	Cancelled  bool
	IsReturn   bool
}

// PrecheckDocument runs the checks that need no customer data. It is meant to be
// called before any attribute lookup so ineligible documents cost nothing.
func PrecheckDocument(s Settings, doc DocumentState) SkipReason {
	switch {
	case !s.Enabled:
		return SkipDisabled
	case doc.Cancelled:
		return SkipCancelled
	case doc.IsReturn:
		return SkipReturn
	case doc.CustomerID == uuid.Nil:
		return SkipNoCustomer
	}
	return SkipNone
}

// MatchesTempCredit compares an attribute value with the configured marker.
// Both sides are trimmed; the comparison is case-sensitive.
func MatchesTempCredit(s Settings, value string) bool {
	return strings.TrimSpace(value) == s.EligibilityValue()
}

// IsTempCreditCustomer reads the configured eligibility attribute from attrs
func IsTempCreditCustomer(s Settings, attrs Attributes) bool {
	v, ok := attrs.Lookup(s.EligibilityField())
	return ok && MatchesTempCredit(s, v)
}

// CheckEligibility combines the document precheck and the attribute test
func CheckEligibility(s Settings, doc DocumentState, attrs Attributes) (bool, SkipReason) {
	if reason := PrecheckDocument(s, doc); reason != SkipNone {
		return false, reason
	}
	if !IsTempCreditCustomer(s, attrs) {
		return false, SkipNotTempCredit
	}
	return true, SkipNone
}
