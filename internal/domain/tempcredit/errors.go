package tempcredit

import (
	"errors"

	"github.com/erp/tempcredit/internal/domain/shared"
)

var (
	// ErrCreditLimitExceeded is the policy rejection of an invoice submission
	ErrCreditLimitExceeded = shared.NewDomainError("TEMP_CREDIT_EXCEEDED", "Temp credit limit exceeded")
	// ErrLockTimeout means the customer lock could not be acquired in time. It is transient.
	ErrLockTimeout = shared.NewDomainError("LOCK_TIMEOUT", "Another submission for this customer is in progress, please retry")
	// ErrUnexpectedFailure marks data-access faults. It is transient.
	ErrUnexpectedFailure = shared.NewDomainError("UNEXPECTED_FAILURE", "Temp credit check failed unexpectedly")
)

// CreditLimitExceededError rejects a submission and carries the decision that caused it
type CreditLimitExceededError struct {
	Decision CreditDecision
}

func (e *CreditLimitExceededError) Error() string {
	if e.Decision.BlockedReason != "" {
		return e.Decision.Title + ": " + e.Decision.BlockedReason
	}
	return e.Decision.Title
}

// Unwrap exposes the domain error for code-based mapping
func (e *CreditLimitExceededError) Unwrap() error {
	return ErrCreditLimitExceeded.WithMessage(e.Error())
}

// UnexpectedFailureError wraps a collaborator fault with the failing operation
type UnexpectedFailureError struct {
	Op  string
	Err error
}

// NewUnexpectedFailure wraps err. A nil err or an error that already carries a
// known domain meaning is returned unchanged.
func NewUnexpectedFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrUnexpectedFailure) {
		return err
	}
	var exceeded *CreditLimitExceededError
	if errors.As(err, &exceeded) {
		return err
	}
	return &UnexpectedFailureError{Op: op, Err: err}
}

func (e *UnexpectedFailureError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *UnexpectedFailureError) Unwrap() error { return e.Err }

// Is matches ErrUnexpectedFailure
func (e *UnexpectedFailureError) Is(target error) bool {
	return target == ErrUnexpectedFailure
}

// IsTransient reports whether the submitter may simply retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrLockTimeout) || errors.Is(err, ErrUnexpectedFailure)
}
