package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/larder/backend/internal/ai"
	"github.com/pageza/larder/backend/internal/backup"
	"github.com/pageza/larder/backend/internal/models"
	"github.com/pageza/larder/backend/internal/service"
	"github.com/pageza/larder/backend/internal/storage"
)

// providerStatus maps extraction failures onto HTTP statuses.
var providerStatus = map[ai.Kind]int{
	ai.KindNotConfigured:       http.StatusServiceUnavailable,
	ai.KindRateLimited:         http.StatusTooManyRequests,
	ai.KindBlocked:             http.StatusBadGateway,
	ai.KindFetchFailed:         http.StatusBadGateway,
	ai.KindUnsupportedModality: http.StatusBadRequest,
	ai.KindExtractionFailed:    http.StatusUnprocessableEntity,
}

// respondError writes the JSON error for err. Unknown errors are logged and
// reported without detail.
func respondError(c *gin.Context, err error) {
	var (
		aiErr      *ai.Error
		docErr     *backup.DocumentError
		validation *models.ValidationError
	)
	switch {
	case errors.As(err, &aiErr):
		status, ok := providerStatus[aiErr.Kind]
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{
			"error":       aiErr.Error(),
			"kind":        aiErr.Kind,
			"remediation": aiErr.Kind.Remediation(),
		})
	case errors.As(err, &docErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": docErr.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid recipe", "problems": validation.Problems})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrObjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
