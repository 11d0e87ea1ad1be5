package handlers

import (
	"errors"
	"net/http"

	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// respondError maps workflow and repository errors onto HTTP statuses. Every
// domain error comes out as 4xx with its specific message; anything
// unexpected is a 500.
func respondError(c *gin.Context, err error) {
	var (
		illegal   *workflow.IllegalTransitionError
		forbidden *workflow.ForbiddenError
	)

	switch {
	case errors.Is(err, workflow.ErrOrderNotFound),
		errors.Is(err, database.ErrNotFound),
		errors.Is(err, database.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &illegal):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case workflow.IsDomainError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
