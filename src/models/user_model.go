package models

import (
	"time"
)

// User is the member identity record. Connections only ever store its ID.
type User struct {
	ID             string    `json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name           string    `json:"name"`
	Username       string    `json:"username" gorm:"uniqueIndex"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	Password       string    `json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	HeadLine       string    `json:"headline"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Dto strips everything but display attributes.
func (u User) Dto() UserDto {
	return UserDto{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Headline:       u.HeadLine,
	}
}

type UserDto struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Headline       string `json:"headline,omitempty"`
}
