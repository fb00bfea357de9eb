package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/internal/pkg/calendar"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type calendarEventRequest struct {
	Title     string                    `json:"title"`
	StartAt   string                    `json:"start_at"`
	EndAt     string                    `json:"end_at"`
	Type      string                    `json:"type"`
	Color     string                    `json:"color"`
	Reminders []calendarReminderRequest `json:"reminders"`
}

type calendarReminderRequest struct {
	MinutesBefore int    `json:"minutes_before"`
	Channel       string `json:"channel"`
}

// HandleCalendarOverview returns the merged calendar for a date range,
// defaulting to the current month.
func HandleCalendarOverview(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	from, err := parseDateQuery(c, "from", monthStart)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "from must be YYYY-MM-DD")
	}
	to, err := parseDateQuery(c, "to", monthEnd)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "to must be YYYY-MM-DD")
	}

	events, err := getCalendarService().Overview(userID, from, to)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	return c.JSON(fiber.Map{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"events": events,
	})
}

// HandleCalendarSync materializes upcoming payment due dates as calendar
// rows for the current user.
func HandleCalendarSync(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	if err := getCalendarService().SyncPaymentEventsForUser(userID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to sync calendar")
	}
	return c.JSON(fiber.Map{"message": "Calendar synced"})
}

// HandleCalendarEventCreate stores a user-created event.
func HandleCalendarEventCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req calendarEventRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Title == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Title is required")
	}
	startAt, err := time.Parse("2006-01-02", req.StartAt)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "start_at must be YYYY-MM-DD")
	}
	endAt := startAt
	if req.EndAt != "" {
		endAt, err = time.Parse("2006-01-02", req.EndAt)
		if err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "end_at must be YYYY-MM-DD")
		}
		if endAt.Before(startAt) {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "end_at must not be before start_at")
		}
	}

	event := &models.CalendarEvent{
		UserID:  userID,
		Title:   req.Title,
		StartAt: startAt,
		EndAt:   endAt,
		Type:    models.EventType(req.Type),
		Color:   req.Color,
	}
	for _, r := range req.Reminders {
		if r.MinutesBefore < 0 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "minutes_before must not be negative")
		}
		switch r.Channel {
		case "", "database", "email", "sms", "push":
		default:
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown reminder channel")
		}
		if r.Channel == "" {
			r.Channel = "database"
		}
		event.Reminders = append(event.Reminders, models.CalendarReminder{
			MinutesBefore: r.MinutesBefore,
			Channel:       r.Channel,
		})
	}
	if err := getCalendarService().CreateEvent(event); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// HandleCalendarEventGet returns one calendar event of the current user.
func HandleCalendarEventGet(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid event id")
	}

	event, err := getCalendarService().GetEvent(id, usercontext.GetUserID(c))
	if err != nil {
		if errors.Is(err, calendar.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Event not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load event")
	}
	return c.JSON(event)
}

// HandleCalendarEventDelete removes a user-created calendar event.
func HandleCalendarEventDelete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid event id")
	}

	if err := getCalendarService().DeleteEvent(id, usercontext.GetUserID(c)); err != nil {
		if errors.Is(err, calendar.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Event not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete event")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
