package main

import (
	"context"
	"log"

	"book-warehouse-api-server/config"
	"book-warehouse-api-server/internal/api/routes"
	"book-warehouse-api-server/internal/auth"
	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/redisx"
	"book-warehouse-api-server/internal/s3"
	"book-warehouse-api-server/internal/socket"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	auth.SetSecret(cfg.JWT.Secret)

	ctx := context.Background()

	// 2. Connect to Postgres and prepare the schema
	db, err := database.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	// 3. Seed the initial admin account
	if cfg.Seed.AdminPassword != "" {
		if err := database.SeedAdmin(ctx, db, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
	}

	// 4. Redis for status cache and create idempotency
	rdb := redisx.New(cfg.Redis.Addr)
	defer rdb.Close()

	// 5. S3 uploader for fault evidence photos
	s3Uploader, err := s3.NewUploader(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to create S3 uploader: %v", err)
	}

	// 6. WebSocket hub for status push
	wsHub := socket.NewHub()

	// 7. Wire everything into the router
	router := routes.SetupRouter(cfg, db, rdb, s3Uploader, wsHub)

	// 8. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
