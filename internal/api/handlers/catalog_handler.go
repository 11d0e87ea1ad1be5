package handlers

import (
	"net/http"
	"time"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler serves books, categories and aggregate stock. The workflow
// core reads this catalog but never writes it.
type CatalogHandler struct {
	Catalog *database.CatalogRepo
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type BookRequest struct {
	SKU        string  `json:"sku" binding:"required"`
	Title      string  `json:"title" binding:"required"`
	Author     string  `json:"author"`
	CategoryID string  `json:"categoryID"`
	Publisher  string  `json:"publisher"`
	Price      float64 `json:"price" binding:"min=0"`
}

// --- Categories ---

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.Category{ID: uuid.NewString(), Name: req.Name, Description: req.Description}
	if err := h.Catalog.CreateCategory(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := models.Category{ID: c.Param("id"), Name: req.Name, Description: req.Description}
	if err := h.Catalog.UpdateCategory(c.Request.Context(), category); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.Catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

// --- Books ---

func (h *CatalogHandler) CreateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	now := time.Now().UTC()
	book := models.Book{
		ID:         uuid.NewString(),
		SKU:        req.SKU,
		Title:      req.Title,
		Author:     req.Author,
		CategoryID: req.CategoryID,
		Publisher:  req.Publisher,
		Price:      req.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.Catalog.CreateBook(c.Request.Context(), book); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create book"})
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	book := models.Book{
		ID:         c.Param("id"),
		SKU:        req.SKU,
		Title:      req.Title,
		Author:     req.Author,
		CategoryID: req.CategoryID,
		Publisher:  req.Publisher,
		Price:      req.Price,
	}
	if err := h.Catalog.UpdateBook(c.Request.Context(), book); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book updated successfully"})
}

func (h *CatalogHandler) DeleteBook(c *gin.Context) {
	if err := h.Catalog.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted successfully"})
}

func (h *CatalogHandler) GetBook(c *gin.Context) {
	book, err := h.Catalog.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

func (h *CatalogHandler) ListBooks(c *gin.Context) {
	books, err := h.Catalog.ListBooks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query books"})
		return
	}
	c.JSON(http.StatusOK, books)
}

func (h *CatalogHandler) GetBookStock(c *gin.Context) {
	stock, err := h.Catalog.GetStock(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

// GetBookBins returns every bin with the book's quantity in it and its free
// space. The UI builds allocation proposals from this; the engine re-checks
// them under lock when the transition commits.
func (h *CatalogHandler) GetBookBins(c *gin.Context) {
	bins, err := h.Catalog.BinsForBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query bins"})
		return
	}
	c.JSON(http.StatusOK, bins)
}
