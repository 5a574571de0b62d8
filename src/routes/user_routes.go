package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/controllers"
)

// UserRoutes sets up user-related routes for suggestions and public profiles
func UserRoutes(app *fiber.App, uc *controllers.UserController, protect fiber.Handler) {
	user := app.Group("/api/v1/users", protect)

	user.Get("/suggestions", uc.GetSuggestedConnections)
	user.Get("/:username", uc.GetPublicProfile)
}
