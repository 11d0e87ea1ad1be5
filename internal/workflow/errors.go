package workflow

import (
	"errors"
	"fmt"

	"book-warehouse-api-server/internal/models"
)

var (
	// ErrNoBinSelected is returned when a line item carries no bin
	// allocations at all.
	ErrNoBinSelected = errors.New("no bin selected")

	// ErrConcurrentModification is returned when the persisted status no
	// longer equals the status the caller saw when issuing the request.
	ErrConcurrentModification = errors.New("order was modified by another request")

	// ErrOrderNotFound is returned by stores when the order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
)

type IllegalTransitionError struct {
	Type models.OrderType
	From models.Status
	To   models.Status
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot transition %s order from %s to %s", e.Type, e.From, e.To)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string { return e.Reason }

// IncompleteAllocationError: the allocated sum for a line item does not equal
// its requested quantity. Partial allocation is rejected the same way as
// over-allocation.
type IncompleteAllocationError struct {
	OrderItemID string
	Requested   int
	Allocated   int
}

func (e *IncompleteAllocationError) Error() string {
	return fmt.Sprintf("total bin quantity (%d) must match requested quantity (%d)", e.Allocated, e.Requested)
}

// BinCapacityError: an inbound allocation does not fit the bin's free space.
type BinCapacityError struct {
	BinID     string
	Requested int
	Available int
}

func (e *BinCapacityError) Error() string {
	return fmt.Sprintf("bin %s cannot take %d units, only %d available", e.BinID, e.Requested, e.Available)
}

// InsufficientStockError: an outbound delta would drive a bin below zero, or
// the bin does not hold enough of the requested book. BookID is empty for the
// bin-total variant.
type InsufficientStockError struct {
	BinID     string
	BookID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.BookID != "" {
		return fmt.Sprintf("bin %s holds %d units of book %s, cannot take out %d",
			e.BinID, e.Available, e.BookID, e.Requested)
	}
	return fmt.Sprintf("bin %s holds %d units, cannot take out %d", e.BinID, e.Available, e.Requested)
}

// CapacityExceededError: an inbound delta would drive a bin above its limit.
type CapacityExceededError struct {
	BinID     string
	Requested int
	Available int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("bin %s has space for %d units, cannot put in %d", e.BinID, e.Available, e.Requested)
}

// IsDomainError reports whether err belongs to the workflow error taxonomy,
// i.e. should be surfaced to the client as a 4xx rather than a 5xx.
func IsDomainError(err error) bool {
	if errors.Is(err, ErrNoBinSelected) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrOrderNotFound) {
		return true
	}
	var (
		illegal    *IllegalTransitionError
		forbidden  *ForbiddenError
		incomplete *IncompleteAllocationError
		binCap     *BinCapacityError
		stock      *InsufficientStockError
		capacity   *CapacityExceededError
	)
	return errors.As(err, &illegal) || errors.As(err, &forbidden) ||
		errors.As(err, &incomplete) || errors.As(err, &binCap) ||
		errors.As(err, &stock) || errors.As(err, &capacity)
}
