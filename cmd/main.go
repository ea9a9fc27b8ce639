package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gomall/docs/swagger"
	"gomall/internal/api"
	"gomall/internal/cache"
	"gomall/internal/config"
	"gomall/internal/db"
	"gomall/internal/models"
	"gomall/internal/services"
	"gomall/internal/tasks"
	"gomall/internal/utils/logger"
	"gomall/internal/ws"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// 🚀 Main function
// @Summary Main function
// @Description Main function
// @title Gomall API
// @version 1.0
// @description API documentation for the Gomall storefront
// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @securityDefinitions.apikey PaymentApiKey
// @in header
// @name payment-api-key

func main() {

	logger := logger.New("gomall")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		logger.Info("No .env file found, skipping environment variable loading")
	} else {
		logger.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := db.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		err := db.Close()
		if err != nil {
			log.Fatalf("Failed to close database connection: %v", err)
		}
	}()

	db_instance := db.GetDB()

	// Role permission cache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis client: %v", err)
		}
	}()
	roleCache := cache.NewRedisRoleCache(redisClient)

	// Task client schedules payment expiry jobs
	taskClient := tasks.NewTaskClient(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Warn("Failed to close task client: %v", err)
		}
	}()

	// Initialize task handlers
	taskHandler := tasks.NewTaskHandler(db_instance)

	// Initialize task server
	taskServer := tasks.NewServer(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		taskHandler,
		logger,
	)

	// Create a context for task server
	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	// Start task server
	go func() {
		if err := taskServer.Start(serverCtx); err != nil {
			logger.Error("Task server error", err)
		}
	}()

	// Initialize task scheduler
	taskScheduler := tasks.NewScheduler(
		cfg.Redis.Addr,
		cfg.Redis.Username,
		cfg.Redis.Password,
		cfg.Redis.DB,
		logger,
	)

	// Start task scheduler
	go func() {
		if err := taskScheduler.Start(); err != nil {
			logger.Error("Task scheduler error", err)
		}
	}()

	// Websocket hub pushes payment confirmations to buyers
	hub := ws.NewHub()
	hub.SubscribePaymentEvents()

	// Initialize API server
	apiServer := api.NewServer(cfg, db_instance, roleCache, taskClient, hub)
	go func() {

		// Initialize S3 service; product images still render unsigned
		// when no bucket is configured.
		if cfg.Storage.S3.BucketName != "" {
			s3Service, err := services.NewS3Service(cfg.Storage.S3)
			if err != nil {
				logger.Warn("Failed to initialize S3 service, serving unsigned image URLs: %v", err)
			} else {
				models.RegisterFileURLGenerator(s3Service)
			}
		}

		logger.Success("API server started")

		// Swagger documentation
		swagger.SwaggerInfo.Title = "Gomall API Documentation"
		swagger.SwaggerInfo.Description = "API documentation for the Gomall storefront"
		swagger.SwaggerInfo.Version = "1.0"
		swagger.SwaggerInfo.Host = cfg.Server.PublicURL
		swagger.SwaggerInfo.Schemes = []string{"http", "https"}

		if err := apiServer.Start(); err != nil {
			logger.Error("API server error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop task scheduler
	taskScheduler.Stop()

	// Stop task server
	serverCancel()

	// Shutdown API server
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown API server", err)
	}

	logger.Info("Servers shutdown gracefully")
}
