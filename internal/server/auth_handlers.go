package server

import (
	"errors"
	"time"

	"github.com/daniyal2335/eprojectfitness/internal/auth"
	"github.com/daniyal2335/eprojectfitness/internal/cache"
	"github.com/daniyal2335/eprojectfitness/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Logout handles POST /api/auth/logout. The token id is revoked until the token expires.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*auth.Claims)
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Token cannot be revoked"))
	}
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("revocation store unavailable")))
	}

	if ttl := time.Until(claims.ExpiresAt.Time); ttl > 0 {
		if err := s.redis.Set(c.Context(), cache.RevokedKey(claims.ID), "1", ttl).Err(); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
