package main

import (
	"log"
	"os"

	"gomall/internal/api"
	"gomall/internal/cache"
	"gomall/internal/config"
	"gomall/internal/db"
	"gomall/internal/tasks"
	"gomall/internal/utils/logger"
	"gomall/internal/ws"

	"github.com/joho/godotenv"
)

// Reconciliation helper: builds the route table the way the API server
// does, syncs permission rows against it and exits. Useful after a
// deploy that added or removed routes, without waiting for a restart.
func main() {
	var console = logger.New("helper")
	console.Info("🔁 Starting permission reconciliation helper")

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			console.Warn("Failed to close database connection: %v", err)
		}
	}()

	// The server constructor registers every route and reconciles
	// permissions as part of startup; the helper only needs that side
	// effect, so the in-memory cache and a throwaway task client do.
	taskClient := tasks.NewTaskClient(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
	defer taskClient.Close()

	server := api.NewServer(cfg, db.GetDB(), cache.NewMemoryRoleCache(), taskClient, ws.NewHub())
	if server == nil {
		log.Fatalf("Failed to build API server")
	}

	console.Success("✅ Permissions reconciled against %d routes", len(server.CollectRoutes()))
}
