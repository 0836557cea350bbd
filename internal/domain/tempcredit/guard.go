package tempcredit

import (
	"context"

	"github.com/google/uuid"
)

// CustomerGuard serializes the read-usage, decide, commit sequence per customer.
// fn runs while the customer-scoped lock is held; the lock is released on every
// return path. Implementations fail with ErrLockTimeout when the lock cannot be
// acquired within their bounded wait. Different customers never contend.
//
// WithPoolLock serializes submitters of different customers that draw on one
// shared pool, such as a warehouse or a salesman. It is only taken inside
// WithCustomerLock, and a submitter needing several pools takes them in
// ascending key order.
type CustomerGuard interface {
	WithCustomerLock(ctx context.Context, customerID uuid.UUID, fn func(ctx context.Context) error) error
	WithPoolLock(ctx context.Context, pool string, fn func(ctx context.Context) error) error
}

// WarehousePoolKey names the lock of a warehouse pool
func WarehousePoolKey(warehouse string) string {
	return "warehouse:" + warehouse
}

// SalesmanPoolKey names the lock of a salesman's exposure pool
func SalesmanPoolKey(userID uuid.UUID) string {
	return "salesman:" + userID.String()
}
