package routes

import (
	"freight-app/config"
	"freight-app/controllers"
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupCompanyRoutes(app *fiber.App, db *gorm.DB, hub *ws.Hub) {
	controller := controllers.NewCompanyController(db, hub)
	api := app.Group(config.MAIN_ROUTES + "/companies")

	api.Get("/", controller.GetAllCompanies)
	api.Post("/", controller.CreateCompany)
	api.Get("/:id", controller.GetCompanyByID)
	api.Put("/:id", controller.UpdateNotAllowed)
	api.Patch("/:id", controller.UpdateNotAllowed)
	api.Delete("/:id", controller.DeleteCompany)
}
