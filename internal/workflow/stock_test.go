package workflow

import (
	"errors"
	"testing"

	"book-warehouse-api-server/internal/models"
)

func TestCheckDelta(t *testing.T) {
	bin := models.Bin{ID: "bin-a", QuantityCurrent: 5, QuantityMaxLimit: 10}

	if err := CheckDelta(bin, -5); err != nil {
		t.Errorf("draining to zero must pass, got: %v", err)
	}
	if err := CheckDelta(bin, 5); err != nil {
		t.Errorf("filling to the limit must pass, got: %v", err)
	}

	var stock *InsufficientStockError
	if err := CheckDelta(bin, -6); !errors.As(err, &stock) {
		t.Errorf("expected InsufficientStockError, got: %v", err)
	}

	var capacity *CapacityExceededError
	if err := CheckDelta(bin, 6); !errors.As(err, &capacity) {
		t.Errorf("expected CapacityExceededError, got: %v", err)
	}
}
