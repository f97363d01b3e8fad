package routes

import (
	"freight-app/ws"

	"github.com/gofiber/fiber/v2"
)

func SetupShipmentSocketRoutes(app *fiber.App, hub *ws.Hub) {
	app.Use("/ws", ws.UpgradeRequired)
	app.Get("/ws/shipments", ws.Handler(hub, ws.TopicShipments))
	app.Get("/ws/shipments/stats", ws.Handler(hub, ws.TopicShipmentStats))
}
