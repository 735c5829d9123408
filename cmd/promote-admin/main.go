package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/dashboard-api/internal/config"
	"github.com/dimitrije/dashboard-api/internal/database"
	"github.com/dimitrije/dashboard-api/internal/models"
)

// promote-admin bootstraps the first admin; later promotions go through the
// admin API.
func main() {
	if len(os.Args) != 2 {
		fmt.Println("Usage: promote-admin <email>")
		os.Exit(1)
	}

	email := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	result, err := db.Pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role)
		SELECT id, $1 FROM users WHERE email = LOWER($2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
	`, models.RoleAdmin.String(), email)
	if err != nil {
		log.Fatalf("Failed to update profile: %v", err)
	}

	if result.RowsAffected() == 0 {
		log.Fatalf("No user found with email: %s", email)
	}

	fmt.Printf("Successfully promoted %s to admin\n", email)
}
