package routes

import (
	"freight-app/config"
	"freight-app/controllers"
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupOutShipmentRoutes(app *fiber.App, db *gorm.DB, hub *ws.Hub) {
	controller := controllers.NewOutShipmentController(db, hub)
	api := app.Group(config.MAIN_ROUTES + "/out-shipments")

	api.Get("/", controller.GetAllOutShipments)
	api.Get("/stats", controller.GetStats)
	api.Get("/excel", controller.ExportExcel)
	api.Post("/", controller.CreateOutShipment)
	api.Get("/:id", controller.GetOutShipmentByID)
	api.Put("/:id", controller.UpdateOutShipment)
	api.Delete("/:id", controller.DeleteOutShipment)
}
