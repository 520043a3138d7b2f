// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"backoffice/internal/core/id"
	"backoffice/internal/core/security"
	"backoffice/internal/core/types"
	"backoffice/internal/infrastructure/storage/postgres"
	"backoffice/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	agencyID := os.Getenv("SEED_AGENCY_ID")
	if agencyID == "" {
		agencyID = "demo"
	}

	if err := seedAgencyConfig(ctx, pool, agencyID); err != nil {
		log.Fatalw("failed to seed agency config", "error", err)
	}
	if err := seedUsers(ctx, pool, log, agencyID); err != nil {
		log.Fatalw("failed to seed users", "error", err)
	}

	log.Info("seeding completed successfully")
}

// seedUsers creates one user per role so every capability path can be
// exercised against a fresh database.
func seedUsers(ctx context.Context, pool *postgres.Pool, log *logger.Logger, agencyID string) error {
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "Backoffice123!"
	}

	roles := []string{
		security.RoleGerente,
		security.RoleAdministrativo,
		security.RoleDesarrollador,
		security.RoleVendedor,
		security.RoleLider,
	}

	for _, role := range roles {
		email := fmt.Sprintf("%s@%s.local", role, agencyID)

		var existingID id.ID
		err := pool.QueryRow(ctx,
			`SELECT id FROM users WHERE agency_id = $1 AND email = $2`,
			agencyID, email,
		).Scan(&existingID)
		if err == nil {
			log.Infow("user already exists", "email", email, "user_id", existingID)
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("check user exists: %w", err)
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		now := time.Now().UTC()
		_, err = pool.Exec(ctx,
			`INSERT INTO users (id, agency_id, email, password_hash, full_name, role, is_active, failed_logins, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, true, 0, $7, $7)`,
			id.New(), agencyID, email, string(passwordHash), role, role, now,
		)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", email, err)
		}
		log.Infow("user created", "email", email, "role", role)
	}
	return nil
}

// seedAgencyConfig writes the agency defaults: ARS, a 2.4% transfer fee and
// a 5 GiB storage quota.
func seedAgencyConfig(ctx context.Context, pool *postgres.Pool, agencyID string) error {
	fee, err := types.NewMoneyFromString("2.4")
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO agency_configs (agency_id, default_currency, default_transfer_fee_pct, storage_quota_bytes, updated_at)
		 VALUES ($1, 'ARS', $2, $3, $4)
		 ON CONFLICT (agency_id) DO NOTHING`,
		agencyID, fee, int64(5)<<30, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert agency config: %w", err)
	}
	return nil
}
