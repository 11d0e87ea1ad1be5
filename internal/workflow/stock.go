package workflow

import "book-warehouse-api-server/internal/models"

// CheckDelta verifies that applying a signed quantity delta keeps the bin
// inside 0..QuantityMaxLimit. Positive delta = stock entering (import
// received); negative = stock leaving (export shipped).
func CheckDelta(bin models.Bin, delta int) error {
	next := bin.QuantityCurrent + delta
	if next < 0 {
		return &InsufficientStockError{
			BinID:     bin.ID,
			Requested: -delta,
			Available: bin.QuantityCurrent,
		}
	}
	if next > bin.QuantityMaxLimit {
		return &CapacityExceededError{
			BinID:     bin.ID,
			Requested: delta,
			Available: bin.QuantityMaxLimit - bin.QuantityCurrent,
		}
	}
	return nil
}
