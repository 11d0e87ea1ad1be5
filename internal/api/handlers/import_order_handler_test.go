package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/socket"
	"book-warehouse-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// stubStore backs the engine with a single import order held in memory.
type stubStore struct {
	order  *workflow.OrderState
	faults []models.FaultBook
	logs   int
}

func (s *stubStore) GetOrderForUpdate(_ context.Context, _ models.OrderType, orderID string) (*workflow.OrderState, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, workflow.ErrOrderNotFound
	}
	return s.order, nil
}

func (s *stubStore) GetBinsForUpdate(context.Context, []string) (map[string]models.Bin, error) {
	return map[string]models.Bin{}, nil
}

func (s *stubStore) GetBinContents(context.Context, []string) (map[string]map[string]int, error) {
	return map[string]map[string]int{}, nil
}

func (s *stubStore) ApplyBinDelta(context.Context, string, string, int) error { return nil }

func (s *stubStore) SetStatus(_ context.Context, _ models.OrderType, _ string, status models.Status) error {
	s.order.Status = status
	return nil
}

func (s *stubStore) AppendStatusLog(context.Context, models.OrderType, string, models.Status, string, string) error {
	s.logs++
	return nil
}

func (s *stubStore) SaveFaults(_ context.Context, _ string, faults []models.FaultBook) error {
	s.faults = append(s.faults, faults...)
	return nil
}

func (s *stubStore) SaveItemAllocations(context.Context, string, []models.BinAllocation) error {
	return nil
}

type stubRunner struct {
	mu    sync.Mutex
	store *stubStore
}

func (r *stubRunner) InTransaction(_ context.Context, fn func(workflow.Store) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.store)
}

func newCheckRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := &ImportOrderHandler{
		Engine: workflow.NewEngine(&stubRunner{store: store}),
		Hub:    socket.NewHub(),
	}
	r := gin.New()
	r.POST("/import-orders/:id/check", func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("user_role", "employee")
		h.Check(c)
	})
	return r
}

func importOrderInApprove() *stubStore {
	return &stubStore{order: &workflow.OrderState{
		ID:        "imp-1",
		Type:      models.OrderTypeImport,
		Status:    models.StatusApprove,
		CreatedBy: "user-1",
		Items:     []models.OrderItem{{ID: "item-1", BookID: "book-1", Quantity: 10}},
	}}
}

func postCheck(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/import-orders/imp-1/check", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheck_RejectsNonReceiveTarget(t *testing.T) {
	store := importOrderInApprove()
	r := newCheckRouter(store)

	// Posting the reject target on the check route would silently drop the
	// fault quantities; the handler must refuse it.
	w := postCheck(r, `{"Status":"New","FaultBooks":[{"BookId":"book-1","Quantity":3}]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
	}
	if store.order.Status != models.StatusApprove {
		t.Error("rejected request must not change status")
	}
	if len(store.faults) != 0 {
		t.Error("rejected request must not persist faults")
	}
}

func TestCheck_ReceiveRecordsFaults(t *testing.T) {
	store := importOrderInApprove()
	r := newCheckRouter(store)

	w := postCheck(r, `{"Status":"Receive","FaultBooks":[{"BookId":"book-1","Quantity":3,"Note":"torn covers"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if store.order.Status != models.StatusReceive {
		t.Errorf("expected Receive, got %s", store.order.Status)
	}
	if len(store.faults) != 1 || store.faults[0].Quantity != 3 {
		t.Errorf("expected one fault of 3, got %+v", store.faults)
	}
	if store.logs != 1 {
		t.Errorf("expected one status log append, got %d", store.logs)
	}
}
