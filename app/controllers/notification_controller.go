package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/notify"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type notificationSettingRequest struct {
	EmailEnabled *bool   `json:"email_enabled"`
	SMSEnabled   *bool   `json:"sms_enabled"`
	PushEnabled  *bool   `json:"push_enabled"`
	DueLeadDays  *int    `json:"due_lead_days"`
	PhoneNumber  *string `json:"phone_number"`
	PushEndpoint *string `json:"push_endpoint"`
}

// HandleNotificationList returns a page of the user's notifications plus
// the unread count.
func HandleNotificationList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := parsePagination(c)

	notifications, unread, err := getNotifyService().List(userID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load notifications")
	}

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread":        unread,
		"offset":        offset,
		"limit":         limit,
	})
}

// HandleNotificationMarkRead marks one notification as read.
func HandleNotificationMarkRead(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid notification id")
	}

	if err := getNotifyService().MarkAsRead(id, usercontext.GetUserID(c)); err != nil {
		if errors.Is(err, notify.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Notification not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to mark notification as read")
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// HandleNotificationMarkAllRead marks all notifications of the user as read.
func HandleNotificationMarkAllRead(c *fiber.Ctx) error {
	if err := getNotifyService().MarkAllAsRead(usercontext.GetUserID(c)); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to mark notifications as read")
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}

// HandleNotificationSettingsGet returns the user's delivery preferences.
func HandleNotificationSettingsGet(c *fiber.Ctx) error {
	setting, err := repository.GetGlobalFactory().GetSettingsRepository().GetOrCreateNotificationSetting(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load notification settings")
	}
	return c.JSON(setting)
}

// HandleNotificationSettingsUpdate updates delivery preferences. Only the
// fields present in the request change.
func HandleNotificationSettingsUpdate(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSettingsRepository()
	setting, err := repo.GetOrCreateNotificationSetting(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load notification settings")
	}

	var req notificationSettingRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.EmailEnabled != nil {
		setting.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		setting.SMSEnabled = *req.SMSEnabled
	}
	if req.PushEnabled != nil {
		setting.PushEnabled = *req.PushEnabled
	}
	if req.DueLeadDays != nil {
		if *req.DueLeadDays < 0 || *req.DueLeadDays > 30 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "due_lead_days must be between 0 and 30")
		}
		setting.DueLeadDays = *req.DueLeadDays
	}
	if req.PhoneNumber != nil {
		setting.PhoneNumber = *req.PhoneNumber
	}
	if req.PushEndpoint != nil {
		setting.PushEndpoint = *req.PushEndpoint
	}

	if setting.SMSEnabled && setting.PhoneNumber == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "SMS requires a phone number")
	}
	if setting.PushEnabled && setting.PushEndpoint == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Push requires an endpoint")
	}

	if err := repo.SaveNotificationSetting(setting); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save notification settings")
	}
	return c.JSON(setting)
}
