package controllers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/theleywin/talentnest-connections/src/identity"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NotificationController stores and serves member notifications
type NotificationController struct {
	DB      *gorm.DB
	Members identity.Directory
}

type notificationResponse struct {
	ID          uint                    `json:"id"`
	Recipient   string                  `json:"recipient"`
	Type        models.NotificationType `json:"type"`
	Read        bool                    `json:"read"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
	RelatedUser *models.UserDto         `json:"relatedUser,omitempty"`
}

func newNotificationResponse(n models.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Type:      n.Type,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}

// ConnectionAccepted tells the requester that accepterID accepted their request
func (nc *NotificationController) ConnectionAccepted(ctx context.Context, requesterID, accepterID string) error {
	notification := models.Notification{
		RecipientID:   requesterID,
		Type:          models.NotificationTypeConnectionAccepted,
		RelatedUserID: accepterID,
	}
	return nc.DB.WithContext(ctx).Create(&notification).Error
}

// GetUserNotifications returns all notifications for the authenticated user, newest first, with the related user populated
func (nc *NotificationController) GetUserNotifications(c *fiber.Ctx) error {
	user := currentUser(c)
	ctx := c.UserContext()

	var notifications []models.Notification
	err := nc.DB.WithContext(ctx).
		Where("recipient_id = ?", user.ID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		lib.Log().Error("Error finding notifications", zap.String("user_id", user.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	related := make([]string, 0, len(notifications))
	for _, n := range notifications {
		if n.RelatedUserID != "" {
			related = append(related, n.RelatedUserID)
		}
	}
	members, err := nc.Members.Resolve(ctx, related)
	if err != nil {
		// Serve the notifications without the related users
		lib.Log().Warn("Error resolving related users", zap.Error(err))
		members = map[string]models.UserDto{}
	}

	response := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		item := newNotificationResponse(n)
		if member, ok := members[n.RelatedUserID]; ok {
			item.RelatedUser = &member
		}
		response = append(response, item)
	}
	return c.Status(fiber.StatusOK).JSON(response)
}

// MarkNotificationAsRead marks a notification as read for the authenticated user
func (nc *NotificationController) MarkNotificationAsRead(c *fiber.Ctx) error {
	id, ok := notificationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}
	user := currentUser(c)
	db := nc.DB.WithContext(c.UserContext())

	// Only the recipient may update it
	result := db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, user.ID).
		Update("read", true)
	if result.Error != nil {
		lib.Log().Error("Error in MarkNotificationAsRead", zap.Uint64("id", id), zap.Error(result.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found or you don't have permission to update it"))
	}

	var updated models.Notification
	if err := db.First(&updated, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found"))
		}
		lib.Log().Error("Error reloading notification", zap.Uint64("id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	return c.Status(fiber.StatusOK).JSON(newNotificationResponse(updated))
}

// DeleteNotification deletes a notification for the authenticated user
func (nc *NotificationController) DeleteNotification(c *fiber.Ctx) error {
	id, ok := notificationID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid notification ID format"))
	}
	user := currentUser(c)

	result := nc.DB.WithContext(c.UserContext()).
		Where("id = ? AND recipient_id = ?", id, user.ID).
		Delete(&models.Notification{})
	if result.Error != nil {
		lib.Log().Error("Error in DeleteNotification", zap.Uint64("id", id), zap.Error(result.Error))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(lib.MessageResponse("Notification not found or you don't have permission to delete it"))
	}

	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Notification deleted successfully"))
}

func notificationID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
