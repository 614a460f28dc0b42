// seed provisions the review-side employee accounts for a fresh deployment.
// Employees do not self-register through the portal; this is how they get in.
// Idempotent: skips accounts whose email already exists.
package main

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"payment-portal/backend/internal/config"
	"payment-portal/backend/internal/db"
	"payment-portal/backend/internal/identity/domain"
	identityrepo "payment-portal/backend/internal/identity/repository"
	"payment-portal/backend/internal/security"
)

var seedEmployees = []struct {
	name, email, password string
}{
	{"Portal Admin", "admin@paymentportal.example", "Adm1n!Portal"},
	{"Payment Reviewer", "reviewer@paymentportal.example", "Rev1ew!Portal"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	employees := identityrepo.NewEmployeePostgresRepository(conn)
	hasher := security.NewHasher(uint32(cfg.ArgonMemoryKiB), uint32(cfg.ArgonTime), uint8(cfg.ArgonThreads))
	ctx := context.Background()

	for _, e := range seedEmployees {
		existing, err := employees.GetByEmail(ctx, e.email)
		if err != nil {
			log.Fatalf("seed check %s: %v", e.email, err)
		}
		if existing != nil {
			log.Printf("seed: %s already exists, skipping", e.email)
			continue
		}
		hash, err := hasher.Hash([]byte(e.password))
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		if err := employees.Create(ctx, &domain.Employee{
			ID:           uuid.New().String(),
			FullName:     e.name,
			Email:        e.email,
			PasswordHash: hash,
			CreatedAt:    time.Now().UTC(),
		}); err != nil {
			log.Fatalf("create employee %s: %v", e.email, err)
		}
		log.Printf("seed: created employee %s", e.email)
	}
}
