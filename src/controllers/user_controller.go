package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/connections"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"go.uber.org/zap"
)

const suggestionLimit = 3

// UserController serves member profiles and suggestions
type UserController struct {
	Members  identity.Directory
	Resolver *connections.Resolver
}

// GetSuggestedConnections returns members the authenticated user has no connection record with
func (uc *UserController) GetSuggestedConnections(c *fiber.Ctx) error {
	user := currentUser(c)
	ctx := c.UserContext()

	touching, err := uc.Resolver.ListAllTouching(ctx, user.ID)
	if err != nil {
		lib.Log().Error("Error listing connections for suggestions", zap.String("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	exclude := make([]string, 0, len(touching)+1)
	exclude = append(exclude, user.ID)
	for _, rel := range touching {
		exclude = append(exclude, rel.CounterpartID)
	}

	suggested, err := uc.Members.Suggest(ctx, exclude, suggestionLimit)
	if err != nil {
		lib.Log().Error("Error finding suggested users", zap.String("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.JSON(suggested)
}

// GetPublicProfile returns the public profile of a user by username along with the caller's relation to them
func (uc *UserController) GetPublicProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Username is required"))
	}

	viewer := currentUser(c)
	ctx := c.UserContext()

	profile, err := uc.Members.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrMemberNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("User not found"))
		}
		lib.Log().Error("Error in GetPublicProfile", zap.String("username", username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	response := fiber.Map{"user": profile.Dto()}
	if profile.ID == viewer.ID {
		response["connectionStatus"] = "self"
		return c.JSON(response)
	}

	relation, err := relationBody(ctx, uc.Resolver, viewer.ID, profile.ID)
	if err != nil {
		lib.Log().Error("Error resolving connection status", zap.String("username", username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	response["connectionStatus"] = relation["status"]
	if id, ok := relation["requestId"]; ok {
		response["requestId"] = id
	}
	return c.JSON(response)
}
