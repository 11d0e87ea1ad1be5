package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"book-warehouse-api-server/internal/models"
)

// memState is the in-memory world the mock store operates on.
type memState struct {
	orders     map[string]*OrderState
	bins       map[string]models.Bin
	contents   map[string]map[string]int
	logs       []memLog
	faults     map[string][]models.FaultBook
	itemAllocs map[string][]models.BinAllocation
}

type memLog struct {
	orderID string
	status  models.Status
	actorID string
	note    string
}

func (s *memState) clone() *memState {
	c := &memState{
		orders:     make(map[string]*OrderState, len(s.orders)),
		bins:       make(map[string]models.Bin, len(s.bins)),
		contents:   make(map[string]map[string]int, len(s.contents)),
		logs:       append([]memLog(nil), s.logs...),
		faults:     make(map[string][]models.FaultBook, len(s.faults)),
		itemAllocs: make(map[string][]models.BinAllocation, len(s.itemAllocs)),
	}
	for id, o := range s.orders {
		copied := *o
		copied.Items = append([]models.OrderItem(nil), o.Items...)
		c.orders[id] = &copied
	}
	for id, b := range s.bins {
		c.bins[id] = b
	}
	for binID, byBook := range s.contents {
		copied := make(map[string]int, len(byBook))
		for bookID, qty := range byBook {
			copied[bookID] = qty
		}
		c.contents[binID] = copied
	}
	for id, f := range s.faults {
		c.faults[id] = append([]models.FaultBook(nil), f...)
	}
	for id, a := range s.itemAllocs {
		c.itemAllocs[id] = append([]models.BinAllocation(nil), a...)
	}
	return c
}

// memRunner serializes transactions with a mutex and discards all writes when
// fn errors, matching the rollback behaviour of the real transaction runner.
type memRunner struct {
	mu    sync.Mutex
	state *memState
}

func newMemRunner() *memRunner {
	return &memRunner{state: &memState{
		orders:     make(map[string]*OrderState),
		bins:       make(map[string]models.Bin),
		contents:   make(map[string]map[string]int),
		faults:     make(map[string][]models.FaultBook),
		itemAllocs: make(map[string][]models.BinAllocation),
	}}
}

func (r *memRunner) InTransaction(_ context.Context, fn func(Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	working := r.state.clone()
	if err := fn(&memTx{state: working}); err != nil {
		return err
	}
	r.state = working
	return nil
}

type memTx struct {
	state *memState
}

func (t *memTx) GetOrderForUpdate(_ context.Context, _ models.OrderType, orderID string) (*OrderState, error) {
	order, ok := t.state.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	order.Faults = append([]models.FaultBook(nil), t.state.faults[orderID]...)
	return order, nil
}

func (t *memTx) GetBinsForUpdate(_ context.Context, binIDs []string) (map[string]models.Bin, error) {
	out := make(map[string]models.Bin, len(binIDs))
	for _, id := range binIDs {
		if bin, ok := t.state.bins[id]; ok {
			out[id] = bin
		}
	}
	return out, nil
}

func (t *memTx) GetBinContents(_ context.Context, binIDs []string) (map[string]map[string]int, error) {
	out := make(map[string]map[string]int, len(binIDs))
	for _, id := range binIDs {
		if byBook, ok := t.state.contents[id]; ok {
			out[id] = byBook
		}
	}
	return out, nil
}

func (t *memTx) ApplyBinDelta(_ context.Context, binID, bookID string, delta int) error {
	bin := t.state.bins[binID]
	bin.QuantityCurrent += delta
	t.state.bins[binID] = bin
	if t.state.contents[binID] == nil {
		t.state.contents[binID] = make(map[string]int)
	}
	t.state.contents[binID][bookID] += delta
	return nil
}

func (t *memTx) SetStatus(_ context.Context, _ models.OrderType, orderID string, s models.Status) error {
	t.state.orders[orderID].Status = s
	return nil
}

func (t *memTx) AppendStatusLog(_ context.Context, _ models.OrderType, orderID string, s models.Status, actorID, note string) error {
	t.state.logs = append(t.state.logs, memLog{orderID: orderID, status: s, actorID: actorID, note: note})
	return nil
}

func (t *memTx) SaveFaults(_ context.Context, orderID string, faults []models.FaultBook) error {
	t.state.faults[orderID] = append(t.state.faults[orderID], faults...)
	return nil
}

func (t *memTx) SaveItemAllocations(_ context.Context, itemID string, allocs []models.BinAllocation) error {
	t.state.itemAllocs[itemID] = append([]models.BinAllocation(nil), allocs...)
	return nil
}

func seedExportOrder(r *memRunner, status models.Status, allocs []models.BinAllocation) {
	r.state.orders["exp-1"] = &OrderState{
		ID:        "exp-1",
		Type:      models.OrderTypeExport,
		Status:    status,
		CreatedBy: "user-1",
		Items: []models.OrderItem{
			{ID: "item-1", BookID: "book-1", Quantity: 10, Allocations: allocs},
		},
	}
	r.state.bins["bin-a"] = models.Bin{ID: "bin-a", QuantityCurrent: 20, QuantityMaxLimit: 50}
	r.state.bins["bin-b"] = models.Bin{ID: "bin-b", QuantityCurrent: 10, QuantityMaxLimit: 30}
	r.state.contents["bin-a"] = map[string]int{"book-1": 20}
	r.state.contents["bin-b"] = map[string]int{"book-1": 10}
}

func seedImportOrder(r *memRunner, status models.Status) {
	r.state.orders["imp-1"] = &OrderState{
		ID:        "imp-1",
		Type:      models.OrderTypeImport,
		Status:    status,
		CreatedBy: "user-1",
		Items: []models.OrderItem{
			{ID: "item-1", BookID: "book-1", Quantity: 10},
		},
	}
	r.state.bins["bin-a"] = models.Bin{ID: "bin-a", QuantityCurrent: 20, QuantityMaxLimit: 50}
}

var fullSplit = []models.BinAllocation{
	{BinID: "bin-a", Quantity: 6},
	{BinID: "bin-b", Quantity: 4},
}

func TestTransition_ExportSubmit(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusNew, fullSplit)
	engine := NewEngine(runner)

	order, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusNew, To: models.StatusPending,
		})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if order.Status != models.StatusPending {
		t.Errorf("expected Pending, got %s", order.Status)
	}
	if runner.state.orders["exp-1"].Status != models.StatusPending {
		t.Error("status not persisted")
	}
	if len(runner.state.logs) != 1 || runner.state.logs[0].status != models.StatusPending {
		t.Errorf("expected one Pending log entry, got %+v", runner.state.logs)
	}
	// Submitting must not move stock.
	if runner.state.bins["bin-a"].QuantityCurrent != 20 {
		t.Error("submit must not mutate bins")
	}
}

func TestTransition_ExportSubmitIncompleteAllocationRollsBack(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusNew, []models.BinAllocation{{BinID: "bin-a", Quantity: 6}})
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusNew, To: models.StatusPending,
		})
	var incomplete *IncompleteAllocationError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAllocationError, got: %v", err)
	}
	if runner.state.orders["exp-1"].Status != models.StatusNew {
		t.Error("failed transition must leave the order in New")
	}
	if len(runner.state.logs) != 0 {
		t.Error("failed transition must not append a status log")
	}
}

func TestTransition_ExportShipMovesStock(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusApproved, fullSplit)
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-2", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusApproved, To: models.StatusShipping,
		})
	if err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if got := runner.state.bins["bin-a"].QuantityCurrent; got != 14 {
		t.Errorf("bin-a: expected 14, got %d", got)
	}
	if got := runner.state.bins["bin-b"].QuantityCurrent; got != 6 {
		t.Errorf("bin-b: expected 6, got %d", got)
	}
}

func TestTransition_ExportShipInsufficientStockRollsBack(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusApproved, fullSplit)
	runner.state.bins["bin-b"] = models.Bin{ID: "bin-b", QuantityCurrent: 2, QuantityMaxLimit: 30}
	runner.state.contents["bin-b"] = map[string]int{"book-1": 2}
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-2", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusApproved, To: models.StatusShipping,
		})
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	// Neither bin may change, even the one that could have been drained.
	if runner.state.bins["bin-a"].QuantityCurrent != 20 {
		t.Error("bin-a must be untouched after rollback")
	}
	if runner.state.orders["exp-1"].Status != models.StatusApproved {
		t.Error("status must be untouched after rollback")
	}
}

func TestTransition_IllegalEdge(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusNew, fullSplit)
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleAdmin},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusNew, To: models.StatusShipping,
		})
	var illegal *IllegalTransitionError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected IllegalTransitionError, got: %v", err)
	}
}

func TestTransition_RoleGate(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusPending, fullSplit)
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-2", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusPending, To: models.StatusApproved,
		})
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("expected ForbiddenError, got: %v", err)
	}
	if runner.state.orders["exp-1"].Status != models.StatusPending {
		t.Error("forbidden transition must not change status")
	}
}

func TestTransition_ConcurrentShipOnlyOneWins(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusApproved, fullSplit)
	engine := NewEngine(runner)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Transition(context.Background(),
				Actor{ID: "user-2", Role: RoleEmployee},
				TransitionRequest{
					OrderID: "exp-1", OrderType: models.OrderTypeExport,
					FromExpected: models.StatusApproved, To: models.StatusShipping,
				})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflict int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConcurrentModification):
			conflict++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflict != 1 {
		t.Errorf("expected exactly one winner and one conflict, got ok=%d conflict=%d", ok, conflict)
	}
	// Stock must leave the bins exactly once.
	if got := runner.state.bins["bin-a"].QuantityCurrent; got != 14 {
		t.Errorf("bin-a: expected 14 after single ship, got %d", got)
	}
}

func TestTransition_ImportFaultCheck(t *testing.T) {
	runner := newMemRunner()
	seedImportOrder(runner, models.StatusApprove)
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "imp-1", OrderType: models.OrderTypeImport,
			FromExpected: models.StatusApprove, To: models.StatusReceive,
			Faults: []models.FaultBook{{BookID: "book-1", Quantity: 3, Note: "water damage"}},
		})
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if len(runner.state.faults["imp-1"]) != 1 || runner.state.faults["imp-1"][0].Quantity != 3 {
		t.Errorf("expected one fault of 3, got %+v", runner.state.faults["imp-1"])
	}
}

func TestTransition_ImportFaultExceedsOrdered(t *testing.T) {
	runner := newMemRunner()
	seedImportOrder(runner, models.StatusApprove)
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "imp-1", OrderType: models.OrderTypeImport,
			FromExpected: models.StatusApprove, To: models.StatusReceive,
			Faults: []models.FaultBook{{BookID: "book-1", Quantity: 11}},
		})
	if err == nil {
		t.Fatal("expected error for fault quantity above ordered quantity")
	}
	if runner.state.orders["imp-1"].Status != models.StatusApprove {
		t.Error("failed check must not change status")
	}
}

func TestTransition_ImportFaultsSummedPerBook(t *testing.T) {
	runner := newMemRunner()
	seedImportOrder(runner, models.StatusApprove)
	engine := NewEngine(runner)

	// Two entries of 6 each stay under the cap individually but total 12 on a
	// 10-unit line.
	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "imp-1", OrderType: models.OrderTypeImport,
			FromExpected: models.StatusApprove, To: models.StatusReceive,
			Faults: []models.FaultBook{
				{BookID: "book-1", Quantity: 6},
				{BookID: "book-1", Quantity: 6},
			},
		})
	if err == nil {
		t.Fatal("expected error when fault entries total above the ordered quantity")
	}
	if len(runner.state.faults["imp-1"]) != 0 {
		t.Error("rejected faults must not be persisted")
	}
	if runner.state.orders["imp-1"].Status != models.StatusApprove {
		t.Error("failed check must not change status")
	}
}

func TestTransition_ExportSubmitRejectsBinWithoutBook(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusNew, []models.BinAllocation{{BinID: "bin-b", Quantity: 10}})
	// bin-b has room and enough total stock, but none of it is book-1.
	runner.state.contents["bin-b"] = map[string]int{"book-2": 10}
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusNew, To: models.StatusPending,
		})
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if stock.BinID != "bin-b" || stock.BookID != "book-1" || stock.Available != 0 {
		t.Errorf("unexpected detail: %+v", stock)
	}
	if runner.state.orders["exp-1"].Status != models.StatusNew {
		t.Error("failed submit must leave the order in New")
	}
}

func TestTransition_ExportShipRejectsBinWithoutBook(t *testing.T) {
	runner := newMemRunner()
	seedExportOrder(runner, models.StatusApproved, []models.BinAllocation{{BinID: "bin-a", Quantity: 10}})
	runner.state.contents["bin-a"] = map[string]int{"book-2": 20}
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-2", Role: RoleEmployee},
		TransitionRequest{
			OrderID: "exp-1", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusApproved, To: models.StatusShipping,
		})
	var stock *InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("expected InsufficientStockError, got: %v", err)
	}
	if runner.state.bins["bin-a"].QuantityCurrent != 20 {
		t.Error("bin totals must be untouched after rollback")
	}
}

func TestTransition_ImportWMSApprovalUsesEffectiveQuantity(t *testing.T) {
	runner := newMemRunner()
	seedImportOrder(runner, models.StatusReceive)
	runner.state.faults["imp-1"] = []models.FaultBook{{BookID: "book-1", Quantity: 3}}
	engine := NewEngine(runner)

	// 10 ordered, 3 faulted: allocating the full 10 must be rejected.
	_, err := engine.Transition(context.Background(),
		Actor{ID: "mgr-1", Role: RoleManager},
		TransitionRequest{
			OrderID: "imp-1", OrderType: models.OrderTypeImport,
			FromExpected: models.StatusReceive, To: models.StatusDone,
			Allocations: []BookAllocation{{BookID: "book-1", BinID: "bin-a", Quantity: 10}},
		})
	var incomplete *IncompleteAllocationError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteAllocationError, got: %v", err)
	}

	// Allocating the effective 7 succeeds and puts 7 units away.
	_, err = engine.Transition(context.Background(),
		Actor{ID: "mgr-1", Role: RoleManager},
		TransitionRequest{
			OrderID: "imp-1", OrderType: models.OrderTypeImport,
			FromExpected: models.StatusReceive, To: models.StatusDone,
			Allocations: []BookAllocation{{BookID: "book-1", BinID: "bin-a", Quantity: 7}},
		})
	if err != nil {
		t.Fatalf("WMS approval failed: %v", err)
	}
	if got := runner.state.bins["bin-a"].QuantityCurrent; got != 27 {
		t.Errorf("bin-a: expected 27, got %d", got)
	}
	if got := runner.state.itemAllocs["item-1"]; len(got) != 1 || got[0].Quantity != 7 {
		t.Errorf("expected one saved allocation of 7, got %+v", got)
	}
	if runner.state.orders["imp-1"].Status != models.StatusDone {
		t.Error("order must be Done after WMS approval")
	}
}

func TestTransition_UnknownOrder(t *testing.T) {
	runner := newMemRunner()
	engine := NewEngine(runner)

	_, err := engine.Transition(context.Background(),
		Actor{ID: "user-1", Role: RoleAdmin},
		TransitionRequest{
			OrderID: "missing", OrderType: models.OrderTypeExport,
			FromExpected: models.StatusNew, To: models.StatusPending,
		})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got: %v", err)
	}
}
