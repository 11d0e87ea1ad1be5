package database

import (
	"context"
	"log"
	"time"

	"book-warehouse-api-server/internal/auth"
	"book-warehouse-api-server/internal/models"
	"book-warehouse-api-server/internal/workflow"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedAdmin creates the initial admin account if it does not exist yet.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	repo := &UserRepo{DB: pool}

	count, err := repo.CountByEmail(ctx, email)
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin not found. Seeding...")
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admin := models.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      "Admin",
		Password:  hashed,
		Role:      workflow.RoleAdmin,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, admin); err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}
