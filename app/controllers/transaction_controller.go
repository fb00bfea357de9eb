package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/database"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type transactionRequest struct {
	WalletID    uint   `json:"wallet_id"`
	CategoryID  *uint  `json:"category_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Note        string `json:"note"`
	BookedAt    string `json:"booked_at"`
}

// HandleTransactionList returns a page of the user's transactions.
func HandleTransactionList(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetTransactionRepository()
	txs, err := repo.GetByUserID(userID, offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load transactions")
	}
	total, err := repo.CountByUserID(userID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to count transactions")
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
		"total":        total,
		"offset":       offset,
		"limit":        limit,
	})
}

// HandleTransactionCreate books a manual transaction and applies it to the
// wallet balance in one database transaction.
func HandleTransactionCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	if req.Type != models.TX_TYPE_EXPENSE && req.Type != models.TX_TYPE_INCOME {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Type must be expense or income")
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Amount must be a positive number")
	}

	bookedAt := time.Now()
	if req.BookedAt != "" {
		parsed, err := time.Parse("2006-01-02", req.BookedAt)
		if err != nil {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "booked_at must be YYYY-MM-DD")
		}
		bookedAt = parsed
	}

	wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(req.WalletID)
	if err != nil || wallet.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
	}

	tx := &models.Transaction{
		UserID:      userID,
		WalletID:    wallet.ID,
		CategoryID:  req.CategoryID,
		Type:        req.Type,
		Amount:      amount,
		Description: req.Description,
		Note:        req.Note,
		BookedAt:    bookedAt,
		Source:      models.TX_SOURCE_MANUAL,
	}

	err = database.GetDB().Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(tx).Error; err != nil {
			return err
		}
		if tx.Type == models.TX_TYPE_EXPENSE {
			wallet.Debit(amount)
		} else {
			wallet.Credit(amount)
		}
		return dbtx.Save(wallet).Error
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to book transaction")
	}

	return c.Status(fiber.StatusCreated).JSON(tx)
}

// HandleTransactionGet returns one transaction of the current user.
func HandleTransactionGet(c *fiber.Ctx) error {
	tx, err := loadOwnedTransaction(c)
	if err != nil {
		return err
	}
	return c.JSON(tx)
}

// HandleTransactionDelete removes a manual transaction and reverses its
// wallet effect. Scheduled bookings are immutable, deleting them would
// break idempotent re-processing.
func HandleTransactionDelete(c *fiber.Ctx) error {
	tx, err := loadOwnedTransaction(c)
	if err != nil {
		return err
	}
	if tx.Source != models.TX_SOURCE_MANUAL {
		return jsonError(c, fiber.StatusConflict, "conflict", "Scheduled transactions cannot be deleted")
	}

	wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(tx.WalletID)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load wallet")
	}

	err = database.GetDB().Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Delete(&models.Transaction{}, tx.ID).Error; err != nil {
			return err
		}
		if tx.Type == models.TX_TYPE_EXPENSE {
			wallet.Credit(tx.Amount)
		} else {
			wallet.Debit(tx.Amount)
		}
		return dbtx.Save(wallet).Error
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete transaction")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func loadOwnedTransaction(c *fiber.Ctx) (*models.Transaction, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid transaction id")
	}
	tx, err := repository.GetGlobalFactory().GetTransactionRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Transaction not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load transaction")
	}
	if tx.UserID != usercontext.GetUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Transaction not found")
	}
	return tx, nil
}
