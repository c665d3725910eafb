package notification

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"mygym-server/services"
	"mygym-server/utils/response"
)

// NotificationHandler handles notification-related API endpoints
type NotificationHandler struct {
	graduation    *services.GraduationService
	notifications *services.GraduationNotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(graduation *services.GraduationService, notifications *services.GraduationNotificationService) *NotificationHandler {
	return &NotificationHandler{
		graduation:    graduation,
		notifications: notifications,
	}
}

// ProcessNotifications handles POST /api/v1/graduation/notifications/process
// Builds notifications for eligible alerts that have not been announced yet
func (h *NotificationHandler) ProcessNotifications(c *fiber.Ctx) error {
	built, err := h.graduation.ProcessNotifications(c.Context())
	if err != nil {
		log.Printf("Failed to process notifications: %v", err)
		return response.InternalServerError(c, "Failed to process notifications")
	}

	return response.SuccessWithMessage(c, "Notifications processed", fiber.Map{
		"notifications": built,
		"count":         len(built),
	})
}

// GetPending handles GET /api/v1/notifications/pending
// Returns undelivered notifications addressed to ?user_id=
func (h *NotificationHandler) GetPending(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return response.BadRequest(c, "user_id query parameter is required")
	}

	pending, err := h.notifications.GetPendingNotifications(c.Context(), userID)
	if err != nil {
		log.Printf("Failed to get pending notifications for %s: %v", userID, err)
		return response.InternalServerError(c, "Failed to get pending notifications")
	}

	return response.Success(c, fiber.Map{
		"notifications": pending,
		"count":         len(pending),
	})
}

// MarkSent handles POST /api/v1/notifications/:id/sent
func (h *NotificationHandler) MarkSent(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return response.BadRequest(c, "Notification ID is required")
	}

	if err := h.notifications.MarkNotificationAsSent(c.Context(), id); err != nil {
		log.Printf("Failed to mark notification %s sent: %v", id, err)
		return response.InternalServerError(c, "Failed to mark notification as sent")
	}

	return response.SuccessWithMessage(c, "Notification marked as sent", nil)
}

// GetStats handles GET /api/v1/notifications/stats
// Supported timeframes: week, month (default), year
func (h *NotificationHandler) GetStats(c *fiber.Ctx) error {
	timeframe := c.Query("timeframe", "month")

	stats, err := h.notifications.GetNotificationStats(c.Context(), timeframe)
	if err != nil {
		log.Printf("Failed to get notification stats: %v", err)
		return response.InternalServerError(c, "Failed to get notification stats")
	}

	return response.Success(c, stats)
}

// Cleanup handles DELETE /api/v1/notifications/cleanup
// Removes notifications older than ?days_old= days (default 30)
func (h *NotificationHandler) Cleanup(c *fiber.Ctx) error {
	daysOld, err := strconv.Atoi(c.Query("days_old", "30"))
	if err != nil || daysOld < 1 {
		return response.BadRequest(c, "days_old must be a positive integer")
	}

	removed, err := h.notifications.CleanupOldNotifications(c.Context(), daysOld)
	if err != nil {
		log.Printf("Failed to cleanup notifications: %v", err)
		return response.InternalServerError(c, "Failed to cleanup notifications")
	}

	return response.SuccessWithMessage(c, "Old notifications removed", fiber.Map{
		"removed": removed,
	})
}
