// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"coldchain-freight-api-server/config"
	"coldchain-freight-api-server/internal/auth"
	"coldchain-freight-api-server/internal/models"
	"coldchain-freight-api-server/internal/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

// Connect opens a client for cfg.URI and pings it before handing back the database.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(cfg.DBName), nil
}

// SeedAdmin creates the bootstrap admin account if it does not exist yet.
// Without a configured password nothing is seeded.
func SeedAdmin(ctx context.Context, users repository.UserStore, cfg config.AdminConfig, logger *slog.Logger) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Info("admin password not configured, seeding skipped")
		return nil
	}

	_, err := users.GetUserByEmail(ctx, cfg.Email)
	if err == nil {
		logger.Info("admin already exists, seeding skipped", "email", cfg.Email)
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	err = users.CreateUser(ctx, models.User{
		Email:        cfg.Email,
		Name:         "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       "active",
	})
	// Another replica may have seeded it first.
	if errors.Is(err, repository.ErrConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	logger.Info("admin seeded", "email", cfg.Email)
	return nil
}
