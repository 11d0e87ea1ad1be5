package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/redisx"
	"book-warehouse-api-server/internal/socket"
	"book-warehouse-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type ExportOrderHandler struct {
	Orders  *database.OrderRepo
	Catalog *database.CatalogRepo
	Logs    *database.StatusLogRepo
	Engine  *workflow.Engine
	Hub     *socket.Hub
	Redis   *redis.Client
}

type AllocationRequest struct {
	BinID    string `json:"binID" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

type ExportItemRequest struct {
	BookID   string              `json:"bookID" binding:"required"`
	Quantity int                 `json:"quantity" binding:"required,gt=0"`
	Price    float64             `json:"price" binding:"min=0"`
	Note     string              `json:"note"`
	Bins     []AllocationRequest `json:"bins" binding:"required"`
}

type ExportOrderRequest struct {
	ClientRef       string              `json:"clientRef"`
	ExportDate      time.Time           `json:"exportDate"`
	RecipientName   string              `json:"recipientName" binding:"required"`
	RecipientPhone  string              `json:"recipientPhone" binding:"required,len=10,numeric"`
	ShippingAddress string              `json:"shippingAddress" binding:"required"`
	Note            string              `json:"note"`
	Items           []ExportItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	FromStatus string `json:"fromStatus"`
	Reason     string `json:"reason"`
}

func actorFromContext(c *gin.Context) workflow.Actor {
	return workflow.Actor{
		ID:   c.GetString("user_id"),
		Role: c.GetString("user_role"),
	}
}

func (h *ExportOrderHandler) cacheStatus(c *gin.Context, t models.OrderType, orderID string, status models.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, t, orderID)
	body, _ := json.Marshal(gin.H{"status": status})
	_ = h.Redis.Set(c.Request.Context(), key, body, redisx.TTLStatusCache).Err()
}

func (h *ExportOrderHandler) buildItems(reqItems []ExportItemRequest) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(reqItems))
	for _, it := range reqItems {
		item := models.OrderItem{
			ID:        uuid.NewString(),
			BookID:    it.BookID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Note:      it.Note,
		}
		for _, b := range it.Bins {
			item.Allocations = append(item.Allocations, models.BinAllocation{
				ID:          uuid.NewString(),
				OrderItemID: item.ID,
				BinID:       b.BinID,
				Quantity:    b.Quantity,
			})
		}
		items = append(items, item)
	}
	return items
}

// preValidate runs the allocation validator against a plain (non-locking) bin
// read. This is the UX check; the authoritative one runs inside the
// New -> Pending transition under row locks.
func (h *ExportOrderHandler) preValidate(c *gin.Context, items []models.OrderItem) error {
	binIDs := []string{}
	seen := map[string]bool{}
	lines := make([]workflow.AllocationLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, workflow.AllocationLine{
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
	bins, err := h.Catalog.BinsByID(c.Request.Context(), binIDs)
	if err != nil {
		return err
	}
	if err := workflow.ValidateAllocations(lines, bins, false); err != nil {
		return err
	}
	contents, err := h.Catalog.BinContentsByID(c.Request.Context(), binIDs)
	if err != nil {
		return err
	}
	return workflow.ValidateBookStock(lines, contents)
}

func (h *ExportOrderHandler) CreateExportOrder(c *gin.Context) {
	var req ExportOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Idempotency shortcut: a retried create with the same clientRef returns
	// the order it already produced.
	if req.ClientRef != "" {
		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ClientRef)
		if existingID, err := h.Redis.Get(c.Request.Context(), idemKey).Result(); err == nil && existingID != "" {
			order, err := h.Orders.GetExportOrder(c.Request.Context(), existingID)
			if err == nil {
				c.JSON(http.StatusOK, order)
				return
			}
		}
	}

	items := h.buildItems(req.Items)
	if err := h.preValidate(c, items); err != nil {
		respondError(c, err)
		return
	}

	order := &models.ExportOrder{
		ID:              uuid.NewString(),
		Status:          workflow.InitialStatus(),
		CreatedBy:       c.GetString("user_id"),
		CreatedDate:     time.Now().UTC(),
		ExportDate:      req.ExportDate,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		ShippingAddress: req.ShippingAddress,
		Note:            req.Note,
		Items:           items,
	}
	if err := h.Orders.CreateExportOrder(c.Request.Context(), order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create export order"})
		return
	}

	if req.ClientRef != "" {
		idemKey := fmt.Sprintf(redisx.KeyIdemOrderCreate, req.ClientRef)
		_ = h.Redis.Set(c.Request.Context(), idemKey, order.ID, redisx.TTLIdempotency).Err()
	}
	h.cacheStatus(c, models.OrderTypeExport, order.ID, order.Status)

	c.JSON(http.StatusCreated, order)
}

// UpdateExportOrder rewrites an order that is still New. Only the creator may
// edit, and the edited allocations must pass the validator again.
func (h *ExportOrderHandler) UpdateExportOrder(c *gin.Context) {
	var req ExportOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := h.Orders.GetExportOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if existing.Status != workflow.InitialStatus() {
		c.JSON(http.StatusConflict, gin.H{"error": "Only orders in status New can be edited"})
		return
	}
	if existing.CreatedBy != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the order creator may edit this order"})
		return
	}

	items := h.buildItems(req.Items)
	if err := h.preValidate(c, items); err != nil {
		respondError(c, err)
		return
	}

	existing.ExportDate = req.ExportDate
	existing.RecipientName = req.RecipientName
	existing.RecipientPhone = req.RecipientPhone
	existing.ShippingAddress = req.ShippingAddress
	existing.Note = req.Note
	existing.Items = items

	if err := h.Orders.ReplaceExportOrder(c.Request.Context(), existing); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, existing)
}

func (h *ExportOrderHandler) GetExportOrder(c *gin.Context) {
	order, err := h.Orders.GetExportOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ExportOrderHandler) ListExportOrders(c *gin.Context) {
	orders, err := h.Orders.ListExportOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query export orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetExportOrderStatus is the cheap status poll: cache first, DB fallback.
func (h *ExportOrderHandler) GetExportOrderStatus(c *gin.Context) {
	orderID := c.Param("id")
	key := fmt.Sprintf(redisx.KeyOrderStatus, models.OrderTypeExport, orderID)
	if s, err := h.Redis.Get(c.Request.Context(), key).Result(); err == nil && s != "" {
		c.Data(http.StatusOK, "application/json", []byte(s))
		return
	}

	order, err := h.Orders.GetExportOrder(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.cacheStatus(c, models.OrderTypeExport, orderID, order.Status)
	c.JSON(http.StatusOK, gin.H{"status": order.Status})
}

// UpdateStatus drives the transition engine for export orders.
func (h *ExportOrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orderID := c.Param("id")

	fromExpected := models.Status(req.FromStatus)
	if fromExpected == "" {
		// The client did not say which status it saw; read it now, so two
		// racing requests still collide on the in-transaction re-check.
		existing, err := h.Orders.GetExportOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		fromExpected = existing.Status
	}

	actor := actorFromContext(c)
	order, err := h.Engine.Transition(c.Request.Context(), actor, workflow.TransitionRequest{
		OrderID:      orderID,
		OrderType:    models.OrderTypeExport,
		FromExpected: fromExpected,
		To:           models.Status(req.Status),
		Note:         req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.cacheStatus(c, models.OrderTypeExport, orderID, order.Status)
	h.Hub.NotifyStatusChange(order.CreatedBy, socket.StatusEvent{
		OrderID:   order.ID,
		OrderType: models.OrderTypeExport,
		Status:    order.Status,
		ChangedBy: actor.ID,
		ChangedAt: time.Now().UTC(),
	})

	c.JSON(http.StatusOK, gin.H{"id": order.ID, "status": order.Status})
}

func (h *ExportOrderHandler) GetStatusLogs(c *gin.Context) {
	logs, err := h.Logs.ListForOrder(c.Request.Context(), c.Param("id"), models.OrderTypeExport)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query status logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
