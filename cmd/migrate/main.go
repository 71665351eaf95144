// Command migrate applies the database schema without starting the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"ncsresearch/internal/config"
	"ncsresearch/internal/migration"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	reset := flag.Bool("reset", false, "drop all tables before migrating")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if *reset {
		log.Println("Dropping all tables...")
		// Reverse dependency order
		for _, table := range []string{"analysis_results", "analysis_sessions", "settings", "users"} {
			if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
				log.Printf("Warning: failed to drop table %s: %v", table, err)
			}
		}
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Printf("Migrations applied (schema version %s)", migrator.Version())
}
