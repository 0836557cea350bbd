package tempcredit

import (
	"strings"

	"github.com/shopspring/decimal"
)

type overrideState uint8

const (
	overrideAbsent overrideState = iota
	overrideValid
	overrideInvalid
)

// InvalidOverride describes an override value that was rejected and replaced
// by a fallback during resolution.
type InvalidOverride struct {
	Field  string `json:"field"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// AmountOverride is an optional monetary override. The zero value is absent.
type AmountOverride struct {
	value decimal.Decimal
	raw   string
	state overrideState
}

// NoAmountOverride returns an absent override
func NoAmountOverride() AmountOverride {
	return AmountOverride{}
}

// AmountOverrideOf wraps a stored amount. Negative amounts are kept but marked invalid.
func AmountOverrideOf(v decimal.Decimal) AmountOverride {
	if v.IsNegative() {
		return AmountOverride{value: v, raw: v.String(), state: overrideInvalid}
	}
	return AmountOverride{value: v, raw: v.String(), state: overrideValid}
}

// ParseAmountOverride parses user-supplied text. Blank means absent.
func ParseAmountOverride(raw string) AmountOverride {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NoAmountOverride()
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return AmountOverride{raw: raw, state: overrideInvalid}
	}
	o := AmountOverrideOf(v)
	o.raw = raw
	return o
}

// Present reports whether any value, valid or not, was supplied
func (o AmountOverride) Present() bool { return o.state != overrideAbsent }

// Valid reports whether the value is numeric and non-negative
func (o AmountOverride) Valid() bool { return o.state == overrideValid }

// Value returns the amount when valid
func (o AmountOverride) Value() (decimal.Decimal, bool) {
	if o.state != overrideValid {
		return decimal.Zero, false
	}
	return o.value, true
}

// Raw returns the text the override was built from
func (o AmountOverride) Raw() string { return o.raw }

// Ptr returns the stored amount for a nullable column. Invalid non-numeric input yields nil.
func (o AmountOverride) Ptr() *decimal.Decimal {
	if o.state == overrideAbsent {
		return nil
	}
	if o.state == overrideInvalid && o.value.IsZero() {
		return nil
	}
	v := o.value
	return &v
}

// CountOverride is an optional invoice-count override. The zero value is absent.
type CountOverride struct {
	value int
	raw   string
	state overrideState
}

// NoCountOverride returns an absent override
func NoCountOverride() CountOverride {
	return CountOverride{}
}

// CountOverrideOf wraps a stored count. Negative counts are kept but marked invalid.
func CountOverrideOf(v int) CountOverride {
	raw := decimal.NewFromInt(int64(v)).String()
	if v < 0 {
		return CountOverride{value: v, raw: raw, state: overrideInvalid}
	}
	return CountOverride{value: v, raw: raw, state: overrideValid}
}

// ParseCountOverride parses user-supplied text. Fractional input is truncated
// toward zero; blank means absent.
func ParseCountOverride(raw string) CountOverride {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NoCountOverride()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return CountOverride{raw: raw, state: overrideInvalid}
	}
	o := CountOverrideOf(int(d.IntPart()))
	if d.IsNegative() {
		o.state = overrideInvalid
	}
	o.raw = raw
	return o
}

// Present reports whether any value, valid or not, was supplied
func (o CountOverride) Present() bool { return o.state != overrideAbsent }

// Valid reports whether the value is numeric and non-negative
func (o CountOverride) Valid() bool { return o.state == overrideValid }

// Value returns the count when valid
func (o CountOverride) Value() (int, bool) {
	if o.state != overrideValid {
		return 0, false
	}
	return o.value, true
}

// Raw returns the text the override was built from
func (o CountOverride) Raw() string { return o.raw }

// Ptr returns the stored count for a nullable column
func (o CountOverride) Ptr() *int {
	if o.state == overrideAbsent || (o.state == overrideInvalid && o.value == 0) {
		return nil
	}
	v := o.value
	return &v
}

// ResolveCreditLimit applies the credit fallback chain: a valid positive
// override, then a positive settings default, then the hard fallback.
// An invalid override is reported and skipped.
func ResolveCreditLimit(o AmountOverride, settingsDefault decimal.Decimal) (decimal.Decimal, *InvalidOverride) {
	var invalid *InvalidOverride
	if v, ok := o.Value(); ok && v.IsPositive() {
		return v, nil
	}
	if o.Present() && !o.Valid() {
		invalid = &InvalidOverride{Field: "credit_limit_override", Raw: o.Raw(), Reason: "not a non-negative amount"}
	}
	if settingsDefault.IsPositive() {
		return settingsDefault, invalid
	}
	return decimal.NewFromInt(FallbackCustomerLimit), invalid
}

// ResolveMaxInvoices applies the invoice-count fallback chain. A valid override,
// zero included, wins. An invalid override goes straight to the hard fallback.
func ResolveMaxInvoices(o CountOverride, settingsDefault int) (int, *InvalidOverride) {
	if v, ok := o.Value(); ok {
		return v, nil
	}
	if o.Present() {
		return FallbackMaxUnpaidInvoices, &InvalidOverride{
			Field: "max_unpaid_invoices_override", Raw: o.Raw(), Reason: "not a non-negative integer",
		}
	}
	if settingsDefault > 0 {
		return settingsDefault, nil
	}
	return FallbackMaxUnpaidInvoices, nil
}

// ParseAmount converts loosely typed amounts. Missing or malformed input is zero.
func ParseAmount(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return v
}
