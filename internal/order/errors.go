package order

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store implementations for a missing row. The
// Service turns it into a *NotFoundError naming the resource.
var ErrNotFound = errors.New("not found")

// ValidationError means the request was malformed. Nothing was written.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError names a product or order that does not exist, or an order
// that belongs to someone else.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// InsufficientStockError reports the first line that could not be covered.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// Shortfall is how many units are missing.
func (e *InsufficientStockError) Shortfall() int {
	return e.Requested - e.Available
}

// PersistenceError wraps a storage failure. The transaction was rolled back
// and the request may be retried.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func isDomainError(err error) bool {
	var (
		ve *ValidationError
		nf *NotFoundError
		is *InsufficientStockError
	)
	return errors.As(err, &ve) || errors.As(err, &nf) || errors.As(err, &is)
}
