package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// parseBody decodes and validates the request body into out.
// On failure it returns the message to send back to the client.
func parseBody(c *fiber.Ctx, out interface{}) (string, bool) {
	if err := c.BodyParser(out); err != nil {
		return "Invalid request body", false
	}
	if err := validate.Struct(out); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return "Invalid fields: " + strings.Join(fields, ", "), false
		}
		return "Invalid request body", false
	}
	return "", true
}

// currentUser returns the member set by the auth middleware
func currentUser(c *fiber.Ctx) models.User {
	user, _ := c.Locals("user").(models.User)
	return user
}
