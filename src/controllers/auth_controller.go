package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/theleywin/talentnest-connections/src/lib"
	"github.com/theleywin/talentnest-connections/src/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 11

// AuthController registers and authenticates members
type AuthController struct {
	DB     *gorm.DB
	Secret string
	TTL    time.Duration
}

// Signup handles user registration, validates input, checks for duplicates, hashes password, creates user and returns a JWT
func (ac *AuthController) Signup(c *fiber.Ctx) error {
	var userData struct {
		Name     string `json:"name" validate:"required"`
		Username string `json:"username" validate:"required,alphanum"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
	}
	if msg, ok := parseBody(c, &userData); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(msg))
	}

	db := ac.DB.WithContext(c.UserContext())

	var existingUser models.User
	if err := db.Select("id").Where("email = ?", userData.Email).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Email already exists"))
	}
	if err := db.Select("id").Where("username = ?", userData.Username).First(&existingUser).Error; err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Username already exists"))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(userData.Password), bcryptCost)
	if err != nil {
		lib.Log().Error("Error hashing password", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	newUser := models.User{
		ID:       uuid.NewString(),
		Name:     userData.Name,
		Username: userData.Username,
		Email:    userData.Email,
		Password: string(hashedPassword),
	}
	if err := db.Create(&newUser).Error; err != nil {
		// Lost a race with another signup for the same email or username
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Email or username already exists"))
		}
		lib.Log().Error("Error creating user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Error creating user"))
	}

	token, err := lib.GenerateJWT(newUser.ID, ac.Secret, ac.TTL)
	if err != nil {
		lib.Log().Error("Error generating token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Error generating token"))
	}

	lib.Log().Info("User registered", zap.String("user_id", newUser.ID), zap.String("username", newUser.Username))
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   token,
		"user":    newUser.Dto(),
	})
}

// Login authenticates a user by username and password and returns a JWT
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var loginData struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if msg, ok := parseBody(c, &loginData); !ok {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse(msg))
	}

	var user models.User
	err := ac.DB.WithContext(c.UserContext()).Where("username = ?", loginData.Username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid credentials"))
		}
		lib.Log().Error("Error finding user", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginData.Password)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(lib.MessageResponse("Invalid credentials"))
	}

	token, err := lib.GenerateJWT(user.ID, ac.Secret, ac.TTL)
	if err != nil {
		lib.Log().Error("Error generating token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(lib.MessageResponse("Server error"))
	}

	return c.JSON(fiber.Map{
		"message": "Logged in successfully",
		"token":   token,
	})
}

// GetCurrentUser returns the currently authenticated user's data
func (ac *AuthController) GetCurrentUser(c *fiber.Ctx) error {
	user := currentUser(c)
	if user.ID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(lib.MessageResponse("User not authenticated"))
	}
	return c.JSON(user)
}

// Logout clears the authentication cookie to log out the user
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt-talentnest",
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		SameSite: "Strict",
		Path:     "/",
	})
	return c.Status(fiber.StatusOK).JSON(lib.MessageResponse("Logged out successfully"))
}
