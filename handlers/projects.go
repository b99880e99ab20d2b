package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"telewarp/ingest"
	"telewarp/models"
)

// GetProject returns the stored manifest of one project, which is
// what players load.
func GetProject(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing project id"})
			return
		}

		project, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Data(http.StatusOK, "application/json", project.Metadata)
	}
}

// RecentProjects returns the records behind the recency index,
// newest first.
func RecentProjects(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.ProjectsResponse{
			Projects: svc.RecentProjects(c.Request.Context()),
		})
	}
}

// UserProjects returns the ids of one user's uploads.
func UserProjects(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Query("user")
		if username == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username"})
			return
		}

		ids, err := svc.UserProjects(c.Request.Context(), username)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"projects": ids})
	}
}

// Asset streams one file from the flat asset directory.
func Asset(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing asset id"})
			return
		}

		// Asset names are flat; anything path-like is rejected.
		if filepath.Base(id) != id || strings.HasPrefix(id, ".") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset id"})
			return
		}

		path := filepath.Join(svc.AssetsDir(), id)
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
			return
		}

		c.Header("Access-Control-Allow-Origin", "*")
		c.File(path)
	}
}

// DownloadProject rebuilds a downloadable archive: the manifest as
// project.json plus every asset file whose name starts with the
// project id (which picks up the thumbnail).
func DownloadProject(svc *ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Query("id")
		if id == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing project id"})
			return
		}

		project, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		var buf bytes.Buffer
		w := zip.NewWriter(&buf)

		manifest := &bytes.Buffer{}
		if err := json.Indent(manifest, project.Metadata, "", "  "); err != nil {
			manifest = bytes.NewBuffer(project.Metadata)
		}
		ew, err := w.Create("project.json")
		if err == nil {
			_, err = ew.Write(manifest.Bytes())
		}
		if err != nil {
			respondError(c, err)
			return
		}

		entries, err := os.ReadDir(svc.AssetsDir())
		if err != nil {
			respondError(c, err)
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), id) {
				continue
			}
			data, err := os.ReadFile(filepath.Join(svc.AssetsDir(), entry.Name()))
			if err != nil {
				continue
			}
			ew, err := w.Create(entry.Name())
			if err != nil {
				continue
			}
			ew.Write(data)
		}

		if err := w.Close(); err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="project_%s.zip"`, id))
		c.Data(http.StatusOK, "application/zip", buf.Bytes())
	}
}
