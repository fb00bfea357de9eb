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

type installmentRequest struct {
	WalletID     uint   `json:"wallet_id"`
	CategoryID   *uint  `json:"category_id"`
	Name         string `json:"name"`
	TotalAmount  string `json:"total_amount"`
	PaymentCount int    `json:"payment_count"`
	FirstDueAt   string `json:"first_due_at"`
}

// HandleInstallmentList returns all installments of the current user with
// their payment schedules.
func HandleInstallmentList(c *fiber.Ctx) error {
	insts, err := repository.GetGlobalFactory().GetInstallmentRepository().GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load installments")
	}
	return c.JSON(fiber.Map{"installments": insts})
}

// HandleInstallmentCreate creates an installment plan and its full payment
// schedule. The schedule always sums to the total amount.
func HandleInstallmentCreate(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var req installmentRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}

	total, err := decimal.NewFromString(req.TotalAmount)
	if err != nil || total.LessThanOrEqual(decimal.Zero) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Total amount must be a positive number")
	}
	if req.PaymentCount < 1 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Payment count must be at least 1")
	}
	firstDue, err := time.Parse("2006-01-02", req.FirstDueAt)
	if err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "first_due_at must be YYYY-MM-DD")
	}

	wallet, err := repository.GetGlobalFactory().GetWalletRepository().GetByID(req.WalletID)
	if err != nil || wallet.UserID != userID {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Wallet not found")
	}

	inst := &models.Installment{
		UserID:         userID,
		WalletID:       wallet.ID,
		CategoryID:     req.CategoryID,
		Name:           req.Name,
		TotalAmount:    total,
		PaymentAmount:  total.Div(decimal.NewFromInt(int64(req.PaymentCount))).Round(2),
		PaymentCount:   req.PaymentCount,
		RemainingCount: req.PaymentCount,
		Status:         models.INSTALLMENT_STATUS_ACTIVE,
	}
	if err := inst.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}
	inst.Payments = inst.BuildPaymentSchedule(firstDue)

	if err := repository.GetGlobalFactory().GetInstallmentRepository().Create(inst); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create installment")
	}
	return c.Status(fiber.StatusCreated).JSON(inst)
}

// HandleInstallmentGet returns one installment with its schedule.
func HandleInstallmentGet(c *fiber.Ctx) error {
	inst, err := loadOwnedInstallment(c)
	if err != nil {
		return err
	}
	return c.JSON(inst)
}

// HandleInstallmentCancel stops future scheduled payments. Already-paid
// payments and their transactions are kept.
func HandleInstallmentCancel(c *fiber.Ctx) error {
	inst, err := loadOwnedInstallment(c)
	if err != nil {
		return err
	}
	if inst.Status == models.INSTALLMENT_STATUS_COMPLETE {
		return jsonError(c, fiber.StatusConflict, "conflict", "Installment already complete")
	}
	inst.Status = models.INSTALLMENT_STATUS_CANCELLED
	if err := repository.GetGlobalFactory().GetInstallmentRepository().Update(inst); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to cancel installment")
	}
	return c.JSON(inst)
}

// HandleInstallmentDelete removes an installment and its schedule. Booked
// transactions are kept.
func HandleInstallmentDelete(c *fiber.Ctx) error {
	inst, err := loadOwnedInstallment(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetInstallmentRepository().Delete(inst.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete installment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func loadOwnedInstallment(c *fiber.Ctx) (*models.Installment, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid installment id")
	}
	inst, err := repository.GetGlobalFactory().GetInstallmentRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Installment not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load installment")
	}
	if inst.UserID != usercontext.GetUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Installment not found")
	}
	return inst, nil
}
