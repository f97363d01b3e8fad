package main

import (
	"fmt"
	"log"

	"freight-app/config"
	"freight-app/controllers/idgen"
	"freight-app/database"
	"freight-app/migration"
	"freight-app/routes"
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {

	config.LoadConfig()

	// Connect to database
	db, err := database.OpenConnection()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate models
	if err := migration.Migrate(db); err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	idgen.Init()

	hub := ws.NewHub()

	app := fiber.New()
	app.Use(logger.New())

	// Setup CORS middleware
	config.SetupCORS(app)

	// Setup routes
	routes.SetupDestinationRoutes(app, db, hub)
	routes.SetupCompanyRoutes(app, db, hub)
	routes.SetupInShipmentRoutes(app, db, hub)
	routes.SetupOutShipmentRoutes(app, db, hub)
	routes.SetupShipmentSocketRoutes(app, hub)

	port := config.APP_PORT
	fmt.Println("🚀 Server running on port " + port)

	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
