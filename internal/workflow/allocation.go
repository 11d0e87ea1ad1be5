package workflow

import (
	"fmt"

	"book-warehouse-api-server/internal/models"
)

// AllocationLine is the validator's view of one order line: the quantity that
// must be covered and the proposed bin split. For import orders Requested is
// the effective receivable quantity (ordered minus faults).
type AllocationLine struct {
	OrderItemID string
	BookID      string
	Requested   int
	Allocations []models.BinAllocation
}

// ValidateAllocations is the bin allocation validator. It is a pure function:
// no persistence, identical input yields identical result.
//
// Checks, in order:
//  1. every line has at least one allocation with a positive quantity;
//  2. per line, the allocated sum equals the requested quantity exactly;
//  3. per bin, the total proposed across all lines fits — for inbound
//     allocations the bin's free space, for outbound the stock it holds.
func ValidateAllocations(lines []AllocationLine, bins map[string]models.Bin, inbound bool) error {
	proposed := make(map[string]int)

	for _, line := range lines {
		if len(line.Allocations) == 0 {
			return fmt.Errorf("item %s: %w", line.OrderItemID, ErrNoBinSelected)
		}
		total := 0
		for _, a := range line.Allocations {
			if a.Quantity <= 0 {
				return fmt.Errorf("item %s: %w", line.OrderItemID, ErrNoBinSelected)
			}
			if _, ok := bins[a.BinID]; !ok {
				return fmt.Errorf("bin %s does not exist", a.BinID)
			}
			total += a.Quantity
			proposed[a.BinID] += a.Quantity
		}
		if total != line.Requested {
			return &IncompleteAllocationError{
				OrderItemID: line.OrderItemID,
				Requested:   line.Requested,
				Allocated:   total,
			}
		}
	}

	for binID, qty := range proposed {
		bin := bins[binID]
		if inbound {
			available := bin.QuantityMaxLimit - bin.QuantityCurrent
			if qty > available {
				return &BinCapacityError{BinID: binID, Requested: qty, Available: available}
			}
		} else {
			if qty > bin.QuantityCurrent {
				return &InsufficientStockError{BinID: binID, Requested: qty, Available: bin.QuantityCurrent}
			}
		}
	}
	return nil
}

// ValidateBookStock checks outbound allocations against the per-book contents
// of each bin: a bin only supplies a book it actually holds. contents maps
// bin id to book id to quantity on hand.
func ValidateBookStock(lines []AllocationLine, contents map[string]map[string]int) error {
	need := make(map[string]map[string]int)
	for _, line := range lines {
		for _, a := range line.Allocations {
			if need[a.BinID] == nil {
				need[a.BinID] = make(map[string]int)
			}
			need[a.BinID][line.BookID] += a.Quantity
		}
	}
	for binID, byBook := range need {
		for bookID, qty := range byBook {
			available := contents[binID][bookID]
			if qty > available {
				return &InsufficientStockError{BinID: binID, BookID: bookID, Requested: qty, Available: available}
			}
		}
	}
	return nil
}
