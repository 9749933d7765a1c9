package server

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/daniyal2335/eprojectfitness/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	maxNameLen         = 100
	maxProfileImageLen = 512
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondUserError(c, err, userID)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req models.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := validateProfileUpdate(&req); err != nil {
		return models.RespondWithAppError(c, err)
	}

	user, err := s.userRepo.UpdateProfile(c.UserContext(), userID, req)
	if err != nil {
		return respondUserError(c, err, userID)
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

func validateProfileUpdate(req *models.ProfileUpdate) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || utf8.RuneCountInString(name) > maxNameLen {
			return models.NewValidationError("Name must be 1-100 characters")
		}
		req.Name = &name
	}
	if req.ProfileImage != nil && len(*req.ProfileImage) > maxProfileImageLen {
		return models.NewValidationError("Profile image URL too long")
	}
	if p := req.Preferences; p != nil {
		if !p.Units.Valid() {
			return models.NewValidationError("Invalid units preference")
		}
		if !p.Theme.Valid() {
			return models.NewValidationError("Invalid theme preference")
		}
	}
	return nil
}

func respondUserError(c *fiber.Ctx, err error, userID uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("User", userID))
	}
	return models.RespondWithError(c, fiber.StatusInternalServerError,
		models.NewStorageError(err))
}
