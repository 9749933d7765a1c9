package server

import (
	"github.com/daniyal2335/eprojectfitness/internal/models"
	"github.com/daniyal2335/eprojectfitness/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createNotificationRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Link    string `json:"link"`
}

// GetNotifications handles GET /api/notifications?unread=true
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	list, err := s.notificationService.ListForUser(c.UserContext(), currentUserID(c),
		service.ListNotificationsInput{UnreadOnly: c.QueryBool("unread", false)})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(list)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// CreateNotification handles POST /api/notifications. The caller is always the owner.
func (s *Server) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	n, err := s.notificationService.Notify(c.UserContext(), currentUserID(c), service.NotifyInput{
		Message: req.Message,
		Kind:    models.NotificationKind(req.Type),
		Link:    req.Link,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(n)
}

// MarkNotificationRead handles POST /api/notifications/mark-read/:id and PATCH /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	n, err := s.notificationService.MarkRead(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":      "ok",
		"notification": n,
	})
}

// MarkAllNotificationsRead handles POST /api/notifications/mark-read-all and PATCH /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	modified, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":  "ok",
		"modified": modified,
	})
}
