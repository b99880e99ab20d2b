package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"telewarp/ingest"
)

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "ok",
	})
}

// respondError maps a pipeline error onto an HTTP response. Validation
// failures carry their message through; internal failures are logged
// and replaced with a generic message.
func respondError(c *gin.Context, err error) {
	var ingestErr *ingest.Error
	if errors.As(err, &ingestErr) {
		status := ingestErr.Status()
		if status >= http.StatusInternalServerError {
			log.Printf("Internal error: %v", err)
			c.JSON(status, gin.H{"error": "Internal Error"})
			return
		}
		c.JSON(status, gin.H{"error": ingestErr.Message})
		return
	}

	log.Printf("Unhandled error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Error"})
}
