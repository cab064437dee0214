// Command seed creates the admin account, or resets its password when the
// account already exists.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fjod/go_shop/internal/auth"
	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/logger"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	username := flag.String("username", getEnv("SEED_ADMIN_USERNAME", "admin"), "admin username")
	password := flag.String("password", os.Getenv("SEED_ADMIN_PASSWORD"), "admin password")
	mongoURI := flag.String("mongo-uri", getEnv("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
	dbName := flag.String("db", getEnv("MONGO_DB_NAME", "shop"), "MongoDB database name")
	migrations := flag.String("migrations", getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"), "migrations directory")
	flag.Parse()

	log := logger.New(os.Stdout, getEnv("LOG_LEVEL", "info"))

	if err := seed(log, *mongoURI, *dbName, *migrations, *username, *password); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func seed(log *slog.Logger, uri, dbName, migrations, username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, repository.MongoOptions{URI: uri, Database: dbName, MaxPoolSize: 4})
	if err != nil {
		return err
	}
	defer db.Client().Disconnect(context.Background())

	if err := repository.RunMigrations(db, migrations); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	admins := repository.NewMongoAdminRepository(db)
	admin := &domain.Admin{Username: username, PasswordHash: hash}
	err = admins.CreateAdmin(ctx, admin)
	switch {
	case err == nil:
		log.Info("admin created", "username", username, "id", string(admin.ID))
		return nil
	case errors.Is(err, repository.ErrDuplicateUsername):
		existing, err := admins.FindByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := admins.UpdatePassword(ctx, existing.ID, hash); err != nil {
			return err
		}
		log.Info("admin password reset", "username", username, "id", string(existing.ID))
		return nil
	default:
		return err
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
