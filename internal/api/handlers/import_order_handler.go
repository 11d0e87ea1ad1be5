package handlers

import (
	"fmt"
	"net/http"
	"time"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/s3"
	"book-warehouse-api-server/internal/socket"
	"book-warehouse-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ImportOrderHandler struct {
	Orders     *database.OrderRepo
	Logs       *database.StatusLogRepo
	Engine     *workflow.Engine
	Hub        *socket.Hub
	S3Uploader *s3.Uploader
}

type ImportItemRequest struct {
	BookID   string  `json:"bookID" binding:"required"`
	Quantity int     `json:"quantity" binding:"required,gt=0"`
	Price    float64 `json:"price" binding:"min=0"`
	Note     string  `json:"note"`
}

type ImportOrderRequest struct {
	ImportDate   time.Time           `json:"importDate"`
	SupplierName string              `json:"supplierName" binding:"required"`
	Note         string              `json:"note"`
	Items        []ImportItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CheckRequest matches the body the warehouse UI posts at the post-receipt
// check: target status plus fault quantities found while counting the goods.
type CheckRequest struct {
	Status     string `json:"Status" binding:"required"`
	LogStatus  string `json:"LogStatus"`
	LogNote    string `json:"LogNote"`
	FaultBooks []struct {
		BookID   string `json:"BookId" binding:"required"`
		Quantity int    `json:"Quantity" binding:"required,gt=0"`
		Note     string `json:"Note"`
	} `json:"FaultBooks"`
}

// ApproveWMSRequest is the final bin-commit for a received import order.
type ApproveWMSRequest struct {
	Status         string `json:"Status" binding:"required"`
	LogStatus      string `json:"LogStatus"`
	LogNote        string `json:"LogNote"`
	BinAllocations []struct {
		BookID   string `json:"BookId" binding:"required"`
		BinID    string `json:"BinId" binding:"required"`
		Quantity int    `json:"Quantity" binding:"required,gt=0"`
	} `json:"BinAllocations" binding:"required,min=1"`
}

func (h *ImportOrderHandler) CreateImportOrder(c *gin.Context) {
	var req ImportOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, models.OrderItem{
			ID:        uuid.NewString(),
			BookID:    it.BookID,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Note:      it.Note,
		})
	}

	order := &models.ImportOrder{
		ID:           uuid.NewString(),
		Status:       workflow.InitialStatus(),
		CreatedBy:    c.GetString("user_id"),
		CreatedDate:  time.Now().UTC(),
		ImportDate:   req.ImportDate,
		SupplierName: req.SupplierName,
		Note:         req.Note,
		Items:        items,
	}
	if err := h.Orders.CreateImportOrder(c.Request.Context(), order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create import order"})
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *ImportOrderHandler) GetImportOrder(c *gin.Context) {
	order, err := h.Orders.GetImportOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *ImportOrderHandler) ListImportOrders(c *gin.Context) {
	orders, err := h.Orders.ListImportOrders(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query import orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateStatus covers the supervisor edges: New -> Approve and the
// Approve -> New reject branch. Check and WMS approval have their own routes.
func (h *ImportOrderHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, workflow.TransitionRequest{
		OrderID:      c.Param("id"),
		OrderType:    models.OrderTypeImport,
		FromExpected: models.Status(req.FromStatus),
		To:           models.Status(req.Status),
		Note:         req.Reason,
	})
}

// Check records fault quantities found after receiving the goods and advances
// the order from Approve to Receive.
func (h *ImportOrderHandler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// This route only moves an order into Receive; any other target would
	// silently discard the posted fault quantities.
	if models.Status(req.Status) != models.StatusReceive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Status must be Receive on the check route"})
		return
	}

	faults := make([]models.FaultBook, 0, len(req.FaultBooks))
	for _, f := range req.FaultBooks {
		faults = append(faults, models.FaultBook{
			BookID:   f.BookID,
			Quantity: f.Quantity,
			Note:     f.Note,
		})
	}

	h.transition(c, workflow.TransitionRequest{
		OrderID:      c.Param("id"),
		OrderType:    models.OrderTypeImport,
		FromExpected: models.StatusApprove,
		To:           models.Status(req.Status),
		Note:         req.LogNote,
		Faults:       faults,
	})
}

// ApproveWMS commits bin allocations for a received import order and puts the
// stock away. Allocations must cover the effective receivable quantity
// (ordered minus faults) of every book exactly.
func (h *ImportOrderHandler) ApproveWMS(c *gin.Context) {
	var req ApproveWMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allocs := make([]workflow.BookAllocation, 0, len(req.BinAllocations))
	for _, a := range req.BinAllocations {
		allocs = append(allocs, workflow.BookAllocation{
			BookID:   a.BookID,
			BinID:    a.BinID,
			Quantity: a.Quantity,
		})
	}

	h.transition(c, workflow.TransitionRequest{
		OrderID:      c.Param("id"),
		OrderType:    models.OrderTypeImport,
		FromExpected: models.StatusReceive,
		To:           models.Status(req.Status),
		Note:         req.LogNote,
		Allocations:  allocs,
	})
}

func (h *ImportOrderHandler) transition(c *gin.Context, req workflow.TransitionRequest) {
	if req.FromExpected == "" {
		existing, err := h.Orders.GetImportOrder(c.Request.Context(), req.OrderID)
		if err != nil {
			respondError(c, err)
			return
		}
		req.FromExpected = existing.Status
	}

	actor := actorFromContext(c)
	order, err := h.Engine.Transition(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.Hub.NotifyStatusChange(order.CreatedBy, socket.StatusEvent{
		OrderID:   order.ID,
		OrderType: models.OrderTypeImport,
		Status:    order.Status,
		ChangedBy: actor.ID,
		ChangedAt: time.Now().UTC(),
	})

	c.JSON(http.StatusOK, gin.H{"id": order.ID, "status": order.Status})
}

// UploadFaultEvidence attaches a photo of defective goods to a recorded fault.
func (h *ImportOrderHandler) UploadFaultEvidence(c *gin.Context) {
	orderID := c.Param("id")
	faultID := c.PostForm("faultID")
	if faultID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "faultID is required"})
		return
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	objectKey := fmt.Sprintf("import-orders/%s/faults/%s-%s", orderID, faultID, fileHeader.Filename)
	url, err := h.S3Uploader.UploadFile(c.Request.Context(), file, objectKey, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo", "details": err.Error()})
		return
	}

	if err := h.Orders.SetFaultPhoto(c.Request.Context(), faultID, url); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photoURL": url})
}

func (h *ImportOrderHandler) GetStatusLogs(c *gin.Context) {
	logs, err := h.Logs.ListForOrder(c.Request.Context(), c.Param("id"), models.OrderTypeImport)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query status logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
