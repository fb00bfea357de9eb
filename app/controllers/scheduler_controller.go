package controllers

import (
	"crypto/subtle"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MartinKaiser/FinCal/internal/pkg/env"
	"github.com/MartinKaiser/FinCal/internal/pkg/metrics/counter"
	"github.com/MartinKaiser/FinCal/internal/pkg/scheduler"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

// Trigger endpoints let an external cron or an admin fire the scheduled
// jobs. External callers authenticate with the X-Cron-Token header; the
// internal cron engine and admins bypass it via session.

// HandleRunDailyProcessing triggers one scheduled processing run.
func HandleRunDailyProcessing(c *fiber.Ctx) error {
	if err := authorizeTrigger(c); err != nil {
		return err
	}
	report, err := schedulerInstance.RunDailyProcessing(c.Context())
	if err != nil {
		return triggerError(c, err)
	}
	return c.JSON(report)
}

// HandleRunDueSweep triggers one "due soon" notification sweep.
func HandleRunDueSweep(c *fiber.Ctx) error {
	if err := authorizeTrigger(c); err != nil {
		return err
	}
	report, err := schedulerInstance.RunDueSweep(c.Context())
	if err != nil {
		return triggerError(c, err)
	}
	return c.JSON(report)
}

// HandleRunOverdueSweep triggers one overdue notification sweep.
func HandleRunOverdueSweep(c *fiber.Ctx) error {
	if err := authorizeTrigger(c); err != nil {
		return err
	}
	report, err := schedulerInstance.RunOverdueSweep(c.Context())
	if err != nil {
		return triggerError(c, err)
	}
	return c.JSON(report)
}

// HandleJobStats returns accumulated run counters per job.
func HandleJobStats(c *fiber.Ctx) error {
	if err := authorizeTrigger(c); err != nil {
		return err
	}
	runs, err := counter.JobRuns()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load job counters")
	}
	return c.JSON(fiber.Map{"runs": runs})
}

func authorizeTrigger(c *fiber.Ctx) error {
	if schedulerInstance == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "unavailable", "Scheduler not initialized")
	}

	userCtx := usercontext.GetUserContext(c)
	if userCtx.IsLoggedIn && userCtx.IsAdmin {
		return nil
	}

	token := env.GetEnv("SCHEDULER_TRIGGER_TOKEN", "")
	provided := c.Get("X-Cron-Token")
	if token != "" && provided != "" && subtle.ConstantTimeCompare([]byte(token), []byte(provided)) == 1 {
		return nil
	}
	return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Trigger requires admin session or valid X-Cron-Token")
}

func triggerError(c *fiber.Ctx, err error) error {
	if errors.Is(err, scheduler.ErrRunInProgress) {
		return jsonError(c, fiber.StatusConflict, "conflict", "Run already in progress")
	}
	return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", err.Error())
}
