package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type userSettingsRequest struct {
	Currency *string `json:"currency"`
	Timezone *string `json:"timezone"`
}

// HandleGetUserAccount returns account information for the authenticated user (API key or session).
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", "Missing or invalid authentication")
	}

	repos := repository.GetGlobalFactory()
	account, err := repos.GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "User not found")
		}
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user")
	}

	settings, err := repos.GetSettingsRepository().GetOrCreateUserSettings(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	wallets, err := repos.GetWalletRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load wallets")
	}
	totalBalance, err := repos.GetWalletRepository().TotalBalance(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to compute balance")
	}
	txCount, err := repos.GetTransactionRepository().CountByUserID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count transactions")
	}

	return c.JSON(fiber.Map{
		"id":                   account.ID,
		"username":             account.Name,
		"email":                account.Email,
		"status":               account.Status,
		"is_admin":             account.Role == models.ROLE_ADMIN,
		"created_at":           account.CreatedAt.UTC().Format(time.RFC3339),
		"last_login_at":        formatTimePtr(account.LastLoginAt),
		"api_key_last_used_at": formatTimePtr(settings.APIKeyLastUsedAt),
		"preferences": fiber.Map{
			"currency": settings.Currency,
			"timezone": settings.Timezone,
		},
		"stats": fiber.Map{
			"wallets": fiber.Map{
				"count":         len(wallets),
				"total_balance": totalBalance,
			},
			"transactions": fiber.Map{
				"count": txCount,
			},
		},
	})
}

// HandleUserSettingsUpdate changes display currency and timezone.
func HandleUserSettingsUpdate(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSettingsRepository()
	settings, err := repo.GetOrCreateUserSettings(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	var req userSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.Currency != nil {
		if len(*req.Currency) != 3 {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Currency must be a 3-letter code")
		}
		settings.Currency = *req.Currency
	}
	if req.Timezone != nil {
		if _, err := time.LoadLocation(*req.Timezone); err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown timezone")
		}
		settings.Timezone = *req.Timezone
	}

	if err := repo.SaveUserSettings(settings); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save user settings")
	}
	return c.JSON(settings)
}

// HandleAPIKeyIssue generates a new API key. The raw key is returned
// exactly once; only its hash is stored.
func HandleAPIKeyIssue(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSettingsRepository()
	settings, err := repo.GetOrCreateUserSettings(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}

	rawKey, err := settings.IssueAPIKey()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to generate API key")
	}
	if err := repo.SaveUserSettings(settings); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to save API key")
	}

	return c.JSON(fiber.Map{
		"api_key":    rawKey,
		"prefix":     settings.APIKeyPrefix,
		"created_at": formatTimePtr(settings.APIKeyCreatedAt),
		"message":    "Store this key now, it will not be shown again",
	})
}

// HandleAPIKeyRevoke revokes the active API key.
func HandleAPIKeyRevoke(c *fiber.Ctx) error {
	repo := repository.GetGlobalFactory().GetSettingsRepository()
	settings, err := repo.GetOrCreateUserSettings(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load user settings")
	}
	if !settings.HasActiveAPIKey() {
		return jsonError(c, fiber.StatusNotFound, "not_found", "No active API key")
	}

	settings.RevokeAPIKey()
	if err := repo.SaveUserSettings(settings); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to revoke API key")
	}
	return c.JSON(fiber.Map{"message": "API key revoked"})
}
