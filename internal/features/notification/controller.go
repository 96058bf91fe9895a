package notification

import (
	"strconv"

	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationController struct {
	service Router
}

func NewNotificationController(service Router) *NotificationController {
	return &NotificationController{service: service}
}

func recipientFromClaims(ctx *fiber.Ctx) (primitive.ObjectID, error) {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return primitive.NilObjectID, fiber.ErrUnauthorized
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

// List godoc
// @Summary List notifications for the authenticated user
// @Tags notifications
// @Router /api/notifications [get]
func (c *NotificationController) List(ctx *fiber.Ctx) error {
	recipientID, err := recipientFromClaims(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	page, _ := strconv.ParseInt(ctx.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(ctx.Query("limit", "10"), 10, 64)
	unreadOnly := ctx.Query("unread_only") == "true"

	notifications, total, err := c.service.GetNotifications(ctx.Context(), recipientID, unreadOnly, page, limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"data":  notifications,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetUnreadCount godoc
func (c *NotificationController) GetUnreadCount(ctx *fiber.Ctx) error {
	recipientID, err := recipientFromClaims(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	count, err := c.service.GetUnreadCount(ctx.Context(), recipientID)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"count": count})
}

// MarkAsRead godoc
func (c *NotificationController) MarkAsRead(ctx *fiber.Ctx) error {
	recipientID, err := recipientFromClaims(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	id := ctx.Params("id")
	if err := c.service.MarkAsRead(ctx.Context(), id, recipientID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}

// MarkAllAsRead godoc
func (c *NotificationController) MarkAllAsRead(ctx *fiber.Ctx) error {
	recipientID, err := recipientFromClaims(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	if err := c.service.MarkAllAsRead(ctx.Context(), recipientID); err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{"status": "success"})
}
