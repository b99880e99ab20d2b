package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"telewarp/filter"
	"telewarp/handlers"
	"telewarp/ingest"
	"telewarp/middleware"
	"telewarp/platforms"
	"telewarp/storage"
)

func main() {
	godotenv.Load()

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}
	tmpDir := filepath.Join(dataDir, "tmp")
	if err := os.MkdirAll(tmpDir, 0o750); err != nil {
		log.Fatal("Failed to create tmp directory:", err)
	}

	store := openStore(dataDir)
	defer store.Close()

	registry, err := platforms.Load()
	if err != nil {
		log.Fatal("Failed to load platform registry:", err)
	}

	svc, err := ingest.NewService(store, registry, filter.Default(), filepath.Join(dataDir, "projects"))
	if err != nil {
		log.Fatal("Failed to create ingestion service:", err)
	}

	r := gin.Default()
	r.MaxMultipartMemory = 32 << 20
	r.Use(middleware.SessionOptional(store))

	r.GET("/health", handlers.HealthCheck)

	r.POST("/api/upload", handlers.Upload(svc, tmpDir))
	r.GET("/api/project", handlers.GetProject(svc))
	r.GET("/api/projects/recent", handlers.RecentProjects(svc))
	r.GET("/api/user-projects", handlers.UserProjects(svc))
	r.GET("/api/asset", handlers.Asset(svc))
	r.GET("/api/sb3", handlers.DownloadProject(svc))

	r.GET("/api/moderation/projects", handlers.ModerationProjects(svc))
	r.POST("/api/moderation", handlers.Moderate(svc))

	userAPI := handlers.UserAPI(store, filepath.Join(dataDir, "avatars"))
	r.GET("/api/user-api", userAPI)
	r.POST("/api/user-api", userAPI)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	log.Println("Server starting on :" + port)
	r.Run(":" + port)
}

// openStore picks the backing engine from the DATABASE env variable:
// bolt (default) or postgres.
func openStore(dataDir string) storage.Store {
	switch strings.ToLower(os.Getenv("DATABASE")) {
	case "", "bolt":
		path := os.Getenv("DATABASE_PATH")
		if path == "" {
			path = filepath.Join(dataDir, "telewarp.db")
		}
		store, err := storage.OpenBolt(path)
		if err != nil {
			log.Fatal("Failed to open bolt database:", err)
		}
		return store

	case "postgres", "postgresql":
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			log.Fatal("DATABASE_URL not set")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		store, err := storage.ConnectPostgres(ctx, databaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database:", err)
		}
		if err := store.Migrate(ctx); err != nil {
			log.Fatal("Failed to apply schema:", err)
		}
		return store
	}

	log.Fatalf("Unsupported database type %q, use bolt or postgres", os.Getenv("DATABASE"))
	return nil
}
