package main

import (
	"log"
	"time"

	"quizhub/backend/config"
	"quizhub/backend/middleware"
	"quizhub/backend/relay"
	"quizhub/backend/routes"
	"quizhub/backend/seed"
	"quizhub/backend/sessionstore"
	"quizhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	if err := utils.Migrate(db); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}

	// Initialize logger
	logger := utils.InitLogger()

	if cfg.SeedDemo {
		if err := seed.Demo(db); err != nil {
			log.Fatalf("Error seeding demo quiz: %v", err)
		}
	}

	// Live attempt registry with idle expiry
	store := sessionstore.New(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	store.StartSweeper(time.Minute, make(chan struct{}))

	// Result email relay
	relayClient := relay.New(cfg, logger)
	if !relayClient.Enabled() {
		logger.Println("relay disabled: no RELAY_URL configured")
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, store, relayClient, logger)

	// Start server
	log.Fatal(app.Listen(":" + cfg.ServerPort))
}
