package workflow

import (
	"context"
	"fmt"

	"book-warehouse-api-server/internal/models"
)

// Actor is the authenticated user driving a transition. It is passed in
// explicitly by the HTTP layer; the engine never reads ambient auth state.
type Actor struct {
	ID   string
	Role string
}

// BookAllocation is a proposed bin assignment at WMS approval, keyed by book
// rather than order item (the UI allocates per book).
type BookAllocation struct {
	BookID   string `json:"bookID"`
	BinID    string `json:"binID"`
	Quantity int    `json:"quantity"`
}

// TransitionRequest carries everything a single transition needs. FromExpected
// is the status the caller observed; the transition fails with
// ErrConcurrentModification if the persisted status differs at commit time.
type TransitionRequest struct {
	OrderID      string
	OrderType    models.OrderType
	FromExpected models.Status
	To           models.Status
	Note         string

	// Allocations are only consulted on the import Receive -> Done commit.
	Allocations []BookAllocation
	// Faults are only consulted on the import Approve -> Receive check.
	Faults []models.FaultBook
}

// OrderState is the engine's view of one order inside a transaction.
type OrderState struct {
	ID        string
	Type      models.OrderType
	Status    models.Status
	CreatedBy string
	Items     []models.OrderItem
	Faults    []models.FaultBook
}

// Store is the persistence surface the engine drives. Every method is invoked
// inside the single transaction opened by TxRunner.InTransaction, and
// implementations must take row locks on the order and bins they return so
// that concurrent transitions serialize.
type Store interface {
	GetOrderForUpdate(ctx context.Context, t models.OrderType, orderID string) (*OrderState, error)
	GetBinsForUpdate(ctx context.Context, binIDs []string) (map[string]models.Bin, error)
	// GetBinContents returns, per bin, the quantity of each book it holds.
	// Called after GetBinsForUpdate, so the bin rows are already locked.
	GetBinContents(ctx context.Context, binIDs []string) (map[string]map[string]int, error)
	// ApplyBinDelta moves stock in (positive) or out (negative) of a bin and
	// adjusts the aggregate stock row of the book by the same amount.
	ApplyBinDelta(ctx context.Context, binID, bookID string, delta int) error
	SetStatus(ctx context.Context, t models.OrderType, orderID string, s models.Status) error
	AppendStatusLog(ctx context.Context, t models.OrderType, orderID string, s models.Status, actorID, note string) error
	SaveFaults(ctx context.Context, orderID string, faults []models.FaultBook) error
	SaveItemAllocations(ctx context.Context, itemID string, allocs []models.BinAllocation) error
}

// TxRunner opens one database transaction and rolls it back if fn errors, so a
// failed transition leaves no partial writes.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(Store) error) error
}

// Engine is the status transition engine: one authoritative place deciding
// which transitions are legal, who may drive them, and what side effects each
// one produces.
type Engine struct {
	Runner TxRunner
}

func NewEngine(runner TxRunner) *Engine {
	return &Engine{Runner: runner}
}

// Transition executes one status change atomically. Side effect ordering is
// significant: validate, then stock mutation, then status update, then log
// append.
func (e *Engine) Transition(ctx context.Context, actor Actor, req TransitionRequest) (*OrderState, error) {
	var result *OrderState
	err := e.Runner.InTransaction(ctx, func(s Store) error {
		order, err := s.GetOrderForUpdate(ctx, req.OrderType, req.OrderID)
		if err != nil {
			return err
		}
		if order.Status != req.FromExpected {
			return fmt.Errorf("expected status %s, found %s: %w",
				req.FromExpected, order.Status, ErrConcurrentModification)
		}
		if !CanTransition(order.Type, order.Status, req.To) {
			return &IllegalTransitionError{Type: order.Type, From: order.Status, To: req.To}
		}
		if err := Authorize(order.Type, order.Status, req.To, actor, order.CreatedBy); err != nil {
			return err
		}
		if err := e.applySideEffects(ctx, s, order, req); err != nil {
			return err
		}
		if err := s.SetStatus(ctx, order.Type, order.ID, req.To); err != nil {
			return err
		}
		if err := s.AppendStatusLog(ctx, order.Type, order.ID, req.To, actor.ID, req.Note); err != nil {
			return err
		}
		order.Status = req.To
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) applySideEffects(ctx context.Context, s Store, order *OrderState, req TransitionRequest) error {
	switch order.Type {
	case models.OrderTypeExport:
		switch {
		case order.Status == models.StatusNew && req.To == models.StatusPending:
			// Committing the picking plan: every line must be fully covered
			// by bins that actually hold the stock.
			return e.validateExportAllocations(ctx, s, order)
		case order.Status == models.StatusApproved && req.To == models.StatusShipping:
			// Stock leaves the bins when the order ships.
			return e.releaseExportStock(ctx, s, order)
		}
	case models.OrderTypeImport:
		switch {
		case order.Status == models.StatusApprove && req.To == models.StatusReceive:
			return e.recordFaults(ctx, s, order, req.Faults)
		case order.Status == models.StatusReceive && req.To == models.StatusDone:
			// WMS approval: commit bin allocations and put stock away.
			return e.commitImportAllocations(ctx, s, order, req.Allocations)
		}
	}
	return nil
}

// exportLines flattens the order's items into validator lines plus the
// distinct set of bins the picking plan touches.
func exportLines(items []models.OrderItem) ([]AllocationLine, []string) {
	lines := make([]AllocationLine, 0, len(items))
	binIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, item := range items {
		lines = append(lines, AllocationLine{
			OrderItemID: item.ID,
			BookID:      item.BookID,
			Requested:   item.Quantity,
			Allocations: item.Allocations,
		})
		for _, a := range item.Allocations {
			if !seen[a.BinID] {
				seen[a.BinID] = true
				binIDs = append(binIDs, a.BinID)
			}
		}
	}
	return lines, binIDs
}

func (e *Engine) validateExportAllocations(ctx context.Context, s Store, order *OrderState) error {
	lines, binIDs := exportLines(order.Items)
	bins, err := s.GetBinsForUpdate(ctx, binIDs)
	if err != nil {
		return err
	}
	if err := ValidateAllocations(lines, bins, false); err != nil {
		return err
	}
	contents, err := s.GetBinContents(ctx, binIDs)
	if err != nil {
		return err
	}
	return ValidateBookStock(lines, contents)
}

func (e *Engine) releaseExportStock(ctx context.Context, s Store, order *OrderState) error {
	lines, binIDs := exportLines(order.Items)
	outgoing := make(map[string]int)
	for _, line := range lines {
		for _, a := range line.Allocations {
			outgoing[a.BinID] += a.Quantity
		}
	}
	bins, err := s.GetBinsForUpdate(ctx, binIDs)
	if err != nil {
		return err
	}
	for binID, qty := range outgoing {
		if err := CheckDelta(bins[binID], -qty); err != nil {
			return err
		}
	}
	contents, err := s.GetBinContents(ctx, binIDs)
	if err != nil {
		return err
	}
	if err := ValidateBookStock(lines, contents); err != nil {
		return err
	}
	for _, item := range order.Items {
		for _, a := range item.Allocations {
			if err := s.ApplyBinDelta(ctx, a.BinID, item.BookID, -a.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) recordFaults(ctx context.Context, s Store, order *OrderState, faults []models.FaultBook) error {
	ordered := make(map[string]int)
	for _, item := range order.Items {
		ordered[item.BookID] += item.Quantity
	}
	// The cap applies to the fault total per book, not per entry; duplicate
	// entries for one book must not slip past it.
	totals := make(map[string]int)
	for _, f := range faults {
		if f.Quantity <= 0 {
			return fmt.Errorf("fault quantity for book %s must be positive", f.BookID)
		}
		totals[f.BookID] += f.Quantity
	}
	for bookID, qty := range totals {
		if qty > ordered[bookID] {
			return fmt.Errorf("fault quantity %d for book %s exceeds ordered quantity %d",
				qty, bookID, ordered[bookID])
		}
	}
	return s.SaveFaults(ctx, order.ID, faults)
}

// commitImportAllocations maps the per-book bin assignments onto the order's
// line items, checks them against the effective receivable quantity (ordered
// minus faults), and puts the stock away.
func (e *Engine) commitImportAllocations(ctx context.Context, s Store, order *OrderState, allocs []BookAllocation) error {
	faulted := make(map[string]int)
	for _, f := range order.Faults {
		faulted[f.BookID] += f.Quantity
	}

	byBook := make(map[string][]models.BinAllocation)
	binIDs := make([]string, 0)
	seen := make(map[string]bool)
	for _, a := range allocs {
		byBook[a.BookID] = append(byBook[a.BookID], models.BinAllocation{BinID: a.BinID, Quantity: a.Quantity})
		if !seen[a.BinID] {
			seen[a.BinID] = true
			binIDs = append(binIDs, a.BinID)
		}
	}

	lines := make([]AllocationLine, 0, len(order.Items))
	for _, item := range order.Items {
		receivable := item.Quantity - faulted[item.BookID]
		if receivable < 0 {
			receivable = 0
		}
		if receivable == 0 {
			// Whole line faulted out; nothing to put away for it.
			if len(byBook[item.BookID]) > 0 {
				return &IncompleteAllocationError{OrderItemID: item.ID, Requested: 0,
					Allocated: sumAllocations(byBook[item.BookID])}
			}
			continue
		}
		lines = append(lines, AllocationLine{
			OrderItemID: item.ID,
			BookID:      item.BookID,
			Requested:   receivable,
			Allocations: byBook[item.BookID],
		})
	}

	bins, err := s.GetBinsForUpdate(ctx, binIDs)
	if err != nil {
		return err
	}
	if err := ValidateAllocations(lines, bins, true); err != nil {
		return err
	}

	for _, item := range order.Items {
		itemAllocs := byBook[item.BookID]
		if len(itemAllocs) == 0 {
			continue
		}
		if err := s.SaveItemAllocations(ctx, item.ID, itemAllocs); err != nil {
			return err
		}
		for _, a := range itemAllocs {
			if err := s.ApplyBinDelta(ctx, a.BinID, item.BookID, a.Quantity); err != nil {
				return err
			}
		}
	}
	return nil
}

func sumAllocations(allocs []models.BinAllocation) int {
	total := 0
	for _, a := range allocs {
		total += a.Quantity
	}
	return total
}
