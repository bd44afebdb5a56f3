package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"asset-inventory-api/internal/config"
	"asset-inventory-api/internal/database"
	"asset-inventory-api/internal/logging"
)

func main() {
	envFile := flag.String("env", ".env", "dotenv file to load before the environment")
	dsn := flag.String("dsn", "", "connection string (overrides DB_DSN)")
	driver := flag.String("driver", "", "postgres, mysql or sqlite (overrides DB_DRIVER)")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *dsn != "" {
		cfg.DBDSN = *dsn
	}
	if *driver != "" {
		cfg.DBDriver = *driver
	}

	opts, err := cfg.DatabaseOptions()
	if err != nil {
		log.Fatal("Invalid database settings:", err)
	}

	logger, err := logging.New(cfg.LogLevel, true, os.Stderr)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, opts)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, logger); err != nil {
		log.Fatal("Migration failed:", err)
	}
	logger.Info("all migrations applied", "driver", string(opts.Driver))
}
