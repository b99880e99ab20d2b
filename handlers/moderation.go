package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telewarp/ingest"
	"telewarp/models"
)

// ModerationRequest is the payload for moderation actions.
type ModerationRequest struct {
	Action    string `json:"action"`
	ProjectID string `json:"projectId"`
}

// ModerationProjects lists every stored project, newest first, for
// the moderation UI.
func ModerationProjects(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.AllProjects(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ProjectsResponse{Projects: projects})
	}
}

// Moderate flags or deletes one project.
func Moderate(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ModerationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters"})
			return
		}
		if req.ProjectID == "" || (req.Action != "delete" && req.Action != "flag") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters"})
			return
		}

		ctx := c.Request.Context()
		switch req.Action {
		case "delete":
			if err := svc.Delete(ctx, req.ProjectID); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Project deleted"})
		case "flag":
			if err := svc.Flag(ctx, req.ProjectID); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Project flagged"})
		}
	}
}
