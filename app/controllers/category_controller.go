package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/MartinKaiser/FinCal/app/models"
	"github.com/MartinKaiser/FinCal/app/repository"
	"github.com/MartinKaiser/FinCal/internal/pkg/usercontext"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Color string `json:"color"`
}

// HandleCategoryList returns all categories of the current user.
func HandleCategoryList(c *fiber.Ctx) error {
	categories, err := repository.GetGlobalFactory().GetCategoryRepository().GetByUserID(usercontext.GetUserID(c))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load categories")
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// HandleCategoryCreate creates a new category for the current user.
func HandleCategoryCreate(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Kind == "" {
		req.Kind = models.CATEGORY_KIND_EXPENSE
	}
	if req.Kind != models.CATEGORY_KIND_EXPENSE && req.Kind != models.CATEGORY_KIND_INCOME {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Kind must be expense or income")
	}
	if req.Name == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Name is required")
	}

	category := &models.Category{
		UserID: usercontext.GetUserID(c),
		Name:   req.Name,
		Kind:   req.Kind,
		Color:  req.Color,
	}
	if err := repository.GetGlobalFactory().GetCategoryRepository().Create(category); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleCategoryUpdate renames or recolors a category. The kind is fixed
// after creation so existing transactions keep their meaning.
func HandleCategoryUpdate(c *fiber.Ctx) error {
	category, err := loadOwnedCategory(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid request body")
	}
	if req.Name != "" {
		category.Name = req.Name
	}
	if req.Color != "" {
		category.Color = req.Color
	}

	if err := repository.GetGlobalFactory().GetCategoryRepository().Update(category); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update category")
	}
	return c.JSON(category)
}

// HandleCategoryDelete deletes a category. Transactions keep their
// category_id as a dangling reference and render uncategorized.
func HandleCategoryDelete(c *fiber.Ctx) error {
	category, err := loadOwnedCategory(c)
	if err != nil {
		return err
	}
	if err := repository.GetGlobalFactory().GetCategoryRepository().Delete(category.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func loadOwnedCategory(c *fiber.Ctx) (*models.Category, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return nil, jsonError(c, fiber.StatusBadRequest, "bad_request", "Invalid category id")
	}
	category, err := repository.GetGlobalFactory().GetCategoryRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Category not found")
		}
		return nil, jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load category")
	}
	if category.UserID != usercontext.GetUserID(c) {
		return nil, jsonError(c, fiber.StatusNotFound, "not_found", "Category not found")
	}
	return category, nil
}
