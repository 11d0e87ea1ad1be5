package handlers

import (
	"net/http"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BinHandler manages shelves and bins. Bin quantities are read-only here;
// they change only through workflow transitions.
type BinHandler struct {
	Catalog *database.CatalogRepo
}

type ShelfRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateBinRequest struct {
	ShelfID          string `json:"shelfID" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	QuantityMaxLimit int    `json:"quantityMaxLimit" binding:"required,gt=0"`
}

type UpdateBinRequest struct {
	Name             string `json:"name" binding:"required"`
	Description      string `json:"description"`
	QuantityMaxLimit int    `json:"quantityMaxLimit" binding:"required,gt=0"`
}

func (h *BinHandler) CreateShelf(c *gin.Context) {
	var req ShelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	shelf := models.Shelf{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	if err := h.Catalog.CreateShelf(c.Request.Context(), shelf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create shelf"})
		return
	}
	c.JSON(http.StatusCreated, shelf)
}

func (h *BinHandler) ListShelves(c *gin.Context) {
	shelves, err := h.Catalog.ListShelves(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query shelves"})
		return
	}
	c.JSON(http.StatusOK, shelves)
}

func (h *BinHandler) CreateBin(c *gin.Context) {
	var req CreateBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	bin := models.Bin{
		ID:               uuid.NewString(),
		ShelfID:          req.ShelfID,
		Name:             req.Name,
		Description:      req.Description,
		QuantityCurrent:  0,
		QuantityMaxLimit: req.QuantityMaxLimit,
	}
	if err := h.Catalog.CreateBin(c.Request.Context(), bin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create bin"})
		return
	}
	c.JSON(http.StatusCreated, bin)
}

func (h *BinHandler) UpdateBin(c *gin.Context) {
	var req UpdateBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Shrinking the limit below the current occupancy would break the bin
	// invariant, so check before writing.
	current, err := h.Catalog.GetBin(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if req.QuantityMaxLimit < current.QuantityCurrent {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "New capacity limit is below the bin's current quantity",
		})
		return
	}

	bin := models.Bin{
		ID:               current.ID,
		Name:             req.Name,
		Description:      req.Description,
		QuantityMaxLimit: req.QuantityMaxLimit,
	}
	if err := h.Catalog.UpdateBin(c.Request.Context(), bin); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bin updated successfully"})
}

func (h *BinHandler) GetBin(c *gin.Context) {
	bin, err := h.Catalog.GetBin(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bin)
}

func (h *BinHandler) ListBins(c *gin.Context) {
	bins, err := h.Catalog.ListBins(c.Request.Context(), c.Query("shelfID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query bins"})
		return
	}
	c.JSON(http.StatusOK, bins)
}
