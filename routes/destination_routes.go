package routes

import (
	"freight-app/config"
	"freight-app/controllers"
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupDestinationRoutes(app *fiber.App, db *gorm.DB, hub *ws.Hub) {
	controller := controllers.NewDestinationController(db, hub)
	api := app.Group(config.MAIN_ROUTES + "/destinations")

	api.Get("/", controller.GetAllDestinations)
	api.Post("/", controller.CreateDestination)
	api.Get("/:id", controller.GetDestinationByID)
	api.Put("/:id", controller.UpdateNotAllowed)
	api.Patch("/:id", controller.UpdateNotAllowed)
	api.Delete("/:id", controller.DeleteDestination)
}
