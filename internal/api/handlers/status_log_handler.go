package handlers

import (
	"net/http"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/models"

	"github.com/gin-gonic/gin"
)

type StatusLogHandler struct {
	Logs *database.StatusLogRepo
}

// ListOrderStatusLogs serves GET /order-status-logs?orderId=...&orderType=...
// for any authenticated viewer. Logs are returned oldest first.
func (h *StatusLogHandler) ListOrderStatusLogs(c *gin.Context) {
	orderID := c.Query("orderId")
	orderType := models.OrderType(c.Query("orderType"))
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId is required"})
		return
	}
	if orderType != models.OrderTypeImport && orderType != models.OrderTypeExport {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderType must be import or export"})
		return
	}

	logs, err := h.Logs.ListForOrder(c.Request.Context(), orderID, orderType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query status logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}
