package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/controllers"
)

// AuthRoutes sets up authentication-related routes for signup, login, logout, and getting the current user
func AuthRoutes(app *fiber.App, ac *controllers.AuthController, protect fiber.Handler) {
	auth := app.Group("/api/v1/auth")

	auth.Post("/signup", ac.Signup)
	auth.Post("/login", ac.Login)
	auth.Post("/logout", ac.Logout)
	auth.Get("/me", protect, ac.GetCurrentUser)
}
