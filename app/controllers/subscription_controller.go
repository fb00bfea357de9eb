package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type subscriptionRequest struct {
	WalletID   uint   `json:"wallet_id"`
	CategoryID *uint  `json:"category_id"`
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	Cycle      string `json:"cycle"`
	NextDueAt  string `json:"next_due_at"`
}

// HandleSubscriptionList returns all subscriptions of the current user.
func HandleSubscriptionList(c *fiber.Ctx) error {
	subs, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscriptions")
	}
	return c.JSON(fiber.Map{"subscriptions": subs})
}

// HandleSubscriptionCreate creates a new subscription. The anchor day is
// pinned to the first due date so monthly cycles return to their original
// day after short months.
func HandleSubscriptionCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Amount must be a positive number")
	}
	nextDue, err := time.Parse("2006-01-02", req.NextDueAt)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "next_due_at must be YYYY-MM-DD")
	}
	if req.Cycle == "" {
		req.Cycle = string(models.CycleMonthly)
	}

	wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(req.WalletID)
	if err != nil || wallet.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
	}

	sub := &models.Subscription{
		UserID:     userID,
		WalletID:   wallet.ID,
		CategoryID: req.CategoryID,
		Name:       req.Name,
		Amount:     amount,
		Cycle:      models.BillingCycle(req.Cycle),
		NextDueAt:  nextDue,
		AnchorDay:  nextDue.Day(),
		Status:     models.SUB_STATUS_ACTIVE,
	}
	if err := sub.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Create(sub); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create subscription")
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

// HandleSubscriptionGet returns one subscription of the current user.
func HandleSubscriptionGet(c *fiber.Ctx) error {
	sub, err := loadOwnedSubscription(c)
	if err != nil {
		return err
	}
	return c.JSON(sub)
}

// HandleSubscriptionUpdate changes name, amount, category or wallet.
// Cycle and due date stay fixed; cancel and recreate for a new schedule.
func HandleSubscriptionUpdate(c *fiber.Ctx) error {
	sub, err := loadOwnedSubscription(c)
	if err != nil {
		return err
	}

	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Name != "" {
		sub.Name = req.Name
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil || amount.LessThanOrEqual(decimal.Zero) {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Amount must be a positive number")
		}
		sub.Amount = amount
	}
	if req.CategoryID != nil {
		sub.CategoryID = req.CategoryID
	}
	if req.WalletID != 0 && req.WalletID != sub.WalletID {
		wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(req.WalletID)
		if err != nil || wallet.UserID != sub.UserID {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
		}
		sub.WalletID = wallet.ID
	}
	if err := sub.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Update(sub); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update subscription")
	}
	return c.JSON(sub)
}

// HandleSubscriptionPause excludes the subscription from scheduled runs.
func HandleSubscriptionPause(c *fiber.Ctx) error {
	sub, err := loadOwnedSubscription(c)
	if err != nil {
		return err
	}
	sub.Pause()
	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Update(sub); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to pause subscription")
	}
	return c.JSON(sub)
}

// HandleSubscriptionResume reactivates a paused subscription. Due dates
// that passed while paused are caught up by the next scheduled run.
func HandleSubscriptionResume(c *fiber.Ctx) error {
	sub, err := loadOwnedSubscription(c)
	if err != nil {
		return err
	}
	sub.Resume()
	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Update(sub); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to resume subscription")
	}
	return c.JSON(sub)
}

// HandleSubscriptionDelete cancels and removes a subscription. Booked
// transactions are kept.
func HandleSubscriptionDelete(c *fiber.Ctx) error {
	sub, err := loadOwnedSubscription(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetSubscriptionRepository().Delete(sub.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete subscription")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func loadOwnedSubscription(c *fiber.Ctx) (*models.Subscription, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid subscription id")
	}
	sub, err := repository.GetGlobalFactory().GetSubscriptionRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Subscription not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load subscription")
	}
	if sub.UserID != usercontext.GetUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Subscription not found")
	}
	return sub, nil
}
