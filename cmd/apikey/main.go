package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/badyetly/badyetly/internal/application/auth"
	"github.com/badyetly/badyetly/internal/config"
	"github.com/badyetly/badyetly/internal/infrastructure/persistence/storage"
)

// Command-line tool to create an API key for an owner.
// Not a production-grade tool, just a utility for development and testing.
func main() {
	owner := flag.String("owner", "", "Owner the key authenticates as (required)")
	name := flag.String("name", "", "Name/description for the API key (required)")
	days := flag.Int("days", 0, "Number of days until expiration (0 = never expires)")

	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadAPIKeyGenConfig(*owner, *name, *days)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		flag.Usage()
		log.Fatal(err)
	}

	ctx := context.Background()

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Failed to close store: %v", err)
		}
	}()

	var expiresAt *time.Time
	if cfg.DaysValid > 0 {
		expiry := time.Now().UTC().AddDate(0, 0, cfg.DaysValid)
		expiresAt = &expiry
	}

	apiKey, err := auth.CreateAPIKey(ctx, store, cfg.Owner, cfg.Name, expiresAt)
	if err != nil {
		log.Fatalf("Failed to create API key: %v", err)
	}

	fmt.Println("\n API Key created successfully!")
	fmt.Println("----------------------------------------")
	fmt.Printf("Owner: %s\n", cfg.Owner)
	fmt.Printf("Name: %s\n", cfg.Name)
	if expiresAt != nil {
		fmt.Printf("Expires: %s (%d days)\n", expiresAt.Format(time.RFC3339), cfg.DaysValid)
	} else {
		fmt.Println("Expires: Never")
	}
	fmt.Println("----------------------------------------")
	fmt.Printf("\nAPI Key: %s\n\n", apiKey)
	fmt.Println("IMPORTANT: Save this key now! It will not be shown again.")
	fmt.Println("----------------------------------------")
	fmt.Println("Usage example:")
	fmt.Printf("  curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/dues\n", apiKey)
}
