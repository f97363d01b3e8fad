package routes

import (
	"freight-app/config"
	"freight-app/controllers"
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupInShipmentRoutes(app *fiber.App, db *gorm.DB, hub *ws.Hub) {
	controller := controllers.NewInShipmentController(db, hub)
	api := app.Group(config.MAIN_ROUTES + "/in-shipments")

	api.Get("/", controller.GetAllInShipments)
	api.Get("/stats", controller.GetStats)
	api.Get("/excel", controller.ExportExcel)
	api.Post("/", controller.CreateInShipment)
	api.Get("/:id", controller.GetInShipmentByID)
	api.Put("/:id", controller.UpdateInShipment)
	api.Delete("/:id", controller.DeleteInShipment)
}
