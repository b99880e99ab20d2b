package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"telewarp/storage"
)

// Applies the postgres schema. The bolt backing needs no migration.
func main() {
	godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.ConnectPostgres(ctx, databaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply schema:", err)
	}

	log.Println("Schema applied")
}
