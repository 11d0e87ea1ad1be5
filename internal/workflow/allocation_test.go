package workflow

import (
	"errors"
	"testing"

	"book-warehouse-api-server/internal/models"
)

func makeBins() map[string]models.Bin {
	return map[string]models.Bin{
		"bin-a": {ID: "bin-a", QuantityCurrent: 20, QuantityMaxLimit: 50},
		"bin-b": {ID: "bin-b", QuantityCurrent: 10, QuantityMaxLimit: 30},
	}
}

func TestValidateAllocations_ExactSum(t *testing.T) {
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   10,
		Allocations: []models.BinAllocation{
			{BinID: "bin-a", Quantity: 6},
			{BinID: "bin-b", Quantity: 4},
		},
	}}

	if err := ValidateAllocations(lines, makeBins(), false); err != nil {
		t.Errorf("expected success, got: %v", err)
	}
}

func TestValidateAllocations_Incomplete(t *testing.T) {
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   10,
		Allocations: []models.BinAllocation{
			{BinID: "bin-a", Quantity: 6},
		},
	}}

	err := ValidateAllocations(lines, makeBins(), false)
	var incomplete *IncompleteAllocationError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAllocationError, got: %v", err)
	}
	if incomplete.Requested != 10 || incomplete.Allocated != 6 {
		t.Errorf("expected requested=10 allocated=6, got %d/%d", incomplete.Requested, incomplete.Allocated)
	}
}

func TestValidateAllocations_OverAllocated(t *testing.T) {
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   10,
		Allocations: []models.BinAllocation{
			{BinID: "bin-a", Quantity: 8},
			{BinID: "bin-b", Quantity: 4},
		},
	}}

	err := ValidateAllocations(lines, makeBins(), false)
	var incomplete *IncompleteAllocationError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAllocationError for over-allocation, got: %v", err)
	}
}

func TestValidateAllocations_NoBinSelected(t *testing.T) {
	lines := []AllocationLine{{OrderItemID: "item-1", Requested: 10}}

	err := ValidateAllocations(lines, makeBins(), false)
	if !errors.Is(err, ErrNoBinSelected) {
		t.Errorf("expected ErrNoBinSelected, got: %v", err)
	}
}

func TestValidateAllocations_InboundCapacity(t *testing.T) {
	bins := map[string]models.Bin{
		"bin-c": {ID: "bin-c", QuantityCurrent: 48, QuantityMaxLimit: 50},
	}
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   5,
		Allocations: []models.BinAllocation{{BinID: "bin-c", Quantity: 5}},
	}}

	err := ValidateAllocations(lines, bins, true)
	var capErr *BinCapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected BinCapacityError, got: %v", err)
	}
	if capErr.BinID != "bin-c" || capErr.Requested != 5 || capErr.Available != 2 {
		t.Errorf("unexpected detail: %+v", capErr)
	}
}

func TestValidateAllocations_InboundCapacityAcrossLines(t *testing.T) {
	// Two lines individually fit but together overflow the bin.
	bins := map[string]models.Bin{
		"bin-c": {ID: "bin-c", QuantityCurrent: 40, QuantityMaxLimit: 50},
	}
	lines := []AllocationLine{
		{OrderItemID: "item-1", Requested: 6, Allocations: []models.BinAllocation{{BinID: "bin-c", Quantity: 6}}},
		{OrderItemID: "item-2", Requested: 6, Allocations: []models.BinAllocation{{BinID: "bin-c", Quantity: 6}}},
	}

	err := ValidateAllocations(lines, bins, true)
	var capErr *BinCapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected BinCapacityError, got: %v", err)
	}
	if capErr.Requested != 12 || capErr.Available != 10 {
		t.Errorf("unexpected detail: %+v", capErr)
	}
}

func TestValidateAllocations_OutboundStock(t *testing.T) {
	bins := map[string]models.Bin{
		"bin-a": {ID: "bin-a", QuantityCurrent: 3, QuantityMaxLimit: 50},
	}
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   5,
		Allocations: []models.BinAllocation{{BinID: "bin-a", Quantity: 5}},
	}}

	err := ValidateAllocations(lines, bins, false)
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stockErr.Available != 3 {
		t.Errorf("expected available=3, got %d", stockErr.Available)
	}
}

func TestValidateAllocations_UnknownBin(t *testing.T) {
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   5,
		Allocations: []models.BinAllocation{{BinID: "missing", Quantity: 5}},
	}}

	if err := ValidateAllocations(lines, makeBins(), false); err == nil {
		t.Error("expected error for unknown bin")
	}
}

func TestValidateBookStock(t *testing.T) {
	contents := map[string]map[string]int{
		"bin-a": {"book-1": 6, "book-2": 14},
		"bin-b": {"book-2": 10},
	}
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		BookID:      "book-1",
		Requested:   6,
		Allocations: []models.BinAllocation{{BinID: "bin-a", Quantity: 6}},
	}}
	if err := ValidateBookStock(lines, contents); err != nil {
		t.Errorf("expected success, got: %v", err)
	}

	// bin-b holds stock, just not this book.
	lines[0].Allocations = []models.BinAllocation{{BinID: "bin-b", Quantity: 6}}
	err := ValidateBookStock(lines, contents)
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stock.BinID != "bin-b" || stock.BookID != "book-1" || stock.Available != 0 {
		t.Errorf("unexpected detail: %+v", stock)
	}
}

func TestValidateBookStock_AcrossLines(t *testing.T) {
	// Two lines of the same book drawing from one bin must be summed.
	contents := map[string]map[string]int{"bin-a": {"book-1": 8}}
	lines := []AllocationLine{
		{OrderItemID: "item-1", BookID: "book-1", Requested: 5,
			Allocations: []models.BinAllocation{{BinID: "bin-a", Quantity: 5}}},
		{OrderItemID: "item-2", BookID: "book-1", Requested: 5,
			Allocations: []models.BinAllocation{{BinID: "bin-a", Quantity: 5}}},
	}
	err := ValidateBookStock(lines, contents)
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stock.Requested != 10 || stock.Available != 8 {
		t.Errorf("unexpected detail: %+v", stock)
	}
}

func TestValidateAllocations_Idempotent(t *testing.T) {
	lines := []AllocationLine{{
		OrderItemID: "item-1",
		Requested:   10,
		Allocations: []models.BinAllocation{
			{BinID: "bin-a", Quantity: 6},
			{BinID: "bin-b", Quantity: 4},
		},
	}}
	bins := makeBins()

	first := ValidateAllocations(lines, bins, false)
	second := ValidateAllocations(lines, bins, false)
	if (first == nil) != (second == nil) {
		t.Errorf("validator not idempotent: first=%v second=%v", first, second)
	}
	if bins["bin-a"].QuantityCurrent != 20 {
		t.Error("validator must not mutate its input")
	}
}
