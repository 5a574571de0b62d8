package models

import (
	"gorm.io/gorm"
)

type Notification struct {
	gorm.Model
	RecipientID   string           `json:"recipient" gorm:"index;type:varchar(36)"`
	Type          NotificationType `json:"type" gorm:"type:varchar(32)"`
	RelatedUserID string           `json:"related_user,omitempty" gorm:"type:varchar(36)"`
	Read          bool             `json:"read"`
}

type NotificationType string

const (
	NotificationTypeConnectionAccepted NotificationType = "connectionAccepted"
)
