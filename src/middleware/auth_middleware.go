package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"go.uber.org/zap"
)

// ProtectRoute checks for a valid bearer JWT, loads the member and attaches it
// to the request as c.Locals("user")
func ProtectRoute(members identity.Directory, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - No token provided"))
		}

		// Expected format: "Bearer <token>"
		var token string
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			token = authHeader[7:]
		} else {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token format"))
		}

		userID, err := lib.VerifyJWT(token, secret)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("Unauthorized - Invalid token"))
		}

		user, err := members.FindByID(c.UserContext(), userID)
		if err != nil {
			if errors.Is(err, identity.ErrMemberNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("User not found"))
			}
			lib.Log().Error("Error loading authenticated user", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
		}

		c.Locals("user", user)
		return c.Next()
	}
}
