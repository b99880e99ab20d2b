package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"telewarp/ingest"
	"telewarp/middleware"
	"telewarp/models"
)

// Upload handles the multipart ingestion endpoint. Received files are
// spooled into tmpDir under random names; deferred removes guarantee
// no temp file outlives the request on any path. The thumbnail remove
// is a no-op when ingestion already renamed it into the asset dir.
func Upload(svc *ingest.Service, tmpDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		archiveFile, err := c.FormFile("projectFile")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No project file uploaded"})
			return
		}

		archivePath := filepath.Join(tmpDir, uuid.New().String())
		if err := c.SaveUploadedFile(archiveFile, archivePath); err != nil {
			respondError(c, err)
			return
		}
		defer os.Remove(archivePath)

		up := ingest.Upload{
			ArchivePath: archivePath,
			Name:        c.PostForm("projectName"),
			Description: c.PostForm("projectDescription"),
			LangID:      c.PostForm("langId"),
			Author:      middleware.Username(c),
		}

		if thumbFile, err := c.FormFile("thumbnail"); err == nil {
			thumbPath := filepath.Join(tmpDir, uuid.New().String())
			if err := c.SaveUploadedFile(thumbFile, thumbPath); err != nil {
				respondError(c, err)
				return
			}
			defer os.Remove(thumbPath)

			up.ThumbnailPath = thumbPath
			up.ThumbnailName = thumbFile.Filename
			up.ThumbnailSize = thumbFile.Size
		}

		project, err := svc.Ingest(c.Request.Context(), up)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{Success: true, ID: project.ID})
	}
}
