package main

import (
	"context"
	"log"

	"ncsresearch/internal/config"
	"ncsresearch/internal/container"
	"ncsresearch/internal/errors"
	"ncsresearch/internal/migration"
	"ncsresearch/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and applies migrations
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	deps, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	defer deps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := deps.InitWithDatabase(ctx, db); err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Ensure the default account exists before the first request hits.
	if _, err := deps.UserRepo.GetOrCreateDefaultUser(ctx); err != nil {
		log.Fatalf("Failed to ensure default user: %v", err)
	}

	// Background availability probes for the statistics backend.
	deps.Poller.Start(ctx)

	server := ui.NewServer(deps)
	if err := server.Run(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
