package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type walletRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// HandleWalletList returns all wallets of the current user plus the total balance.
func HandleWalletList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	repo := repository.GetGlobalFactory().GetWalletRepository()

	wallets, err := repo.GetByUserID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load wallets")
	}
	total, err := repo.TotalBalance(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to compute total balance")
	}

	return c.JSON(fiber.Map{"wallets": wallets, "total_balance": total})
}

// HandleWalletCreate creates a new wallet for the current user.
func HandleWalletCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	balance := decimal.Zero
	if req.Balance != "" {
		parsed, err := decimal.NewFromString(req.Balance)
		if err != nil {
			return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid balance")
		}
		balance = parsed
	}
	if req.Currency == "" {
		req.Currency = "EUR"
	}

	wallet := &models.Wallet{
		UserID:   userID,
		Name:     req.Name,
		Currency: req.Currency,
		Balance:  balance,
	}
	if err := wallet.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetWalletRepository().Create(wallet); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create wallet")
	}
	return c.Status(fiber.StatusCreated).JSON(wallet)
}

// HandleWalletGet returns one wallet of the current user.
func HandleWalletGet(c *fiber.Ctx) error {
	wallet, err := loadOwnedWallet(c)
	if err != nil {
		return err
	}
	return c.JSON(wallet)
}

// HandleWalletUpdate renames a wallet or changes its currency. The balance
// is only ever changed through transactions.
func HandleWalletUpdate(c *fiber.Ctx) error {
	wallet, err := loadOwnedWallet(c)
	if err != nil {
		return err
	}

	var req walletRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Name != "" {
		wallet.Name = req.Name
	}
	if req.Currency != "" {
		wallet.Currency = req.Currency
	}
	if err := wallet.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	if err := repository.GetGlobalFactory().GetWalletRepository().Update(wallet); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update wallet")
	}
	return c.JSON(wallet)
}

// HandleWalletDelete deletes an empty wallet. Wallets with booked
// transactions are refused to keep the transaction history consistent.
func HandleWalletDelete(c *fiber.Ctx) error {
	wallet, err := loadOwnedWallet(c)
	if err != nil {
		return err
	}

	repo := repository.GetGlobalFactory().GetWalletRepository()
	hasTx, err := repo.HasTransactions(wallet.ID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to check wallet usage")
	}
	if hasTx {
		return jsonError(c, fiber.StatusConflict, "conflict", "Wallet has transactions and cannot be deleted")
	}

	if err := repo.Delete(wallet.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete wallet")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// loadOwnedWallet resolves the :id route param to a wallet owned by the
// current user. Foreign wallets read as not found.
func loadOwnedWallet(c *fiber.Ctx) (*models.Wallet, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid wallet id")
	}

	wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load wallet")
	}
	if wallet.UserID != usercontext.GetUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
	}
	return wallet, nil
}
