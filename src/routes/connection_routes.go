package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/controllers"
)

// ConnectionRoutes sets up connection-related routes for sending, accepting and rejecting requests, listing requests and connections, and checking connection status
func ConnectionRoutes(app *fiber.App, cc *controllers.ConnectionController, protect fiber.Handler) {
	connection := app.Group("/api/v1/connections", protect)

	connection.Post("/request/:userId", cc.SendConnectionRequest)
	connection.Put("/accept/:requestId", cc.AcceptConnectionRequest)
	connection.Put("/reject/:requestId", cc.RejectConnectionRequest)
	connection.Post("/respond", cc.RespondToConnectionRequest)
	connection.Get("/requests", cc.GetConnectionRequests)
	connection.Get("/sent", cc.GetSentConnectionRequests)
	connection.Get("/all", cc.GetAllConnections)
	connection.Get("/overview", cc.GetConnectionsOverview)
	connection.Get("/", cc.GetUserConnections)
	connection.Get("/status/:userId", cc.GetConnectionStatus)
}
