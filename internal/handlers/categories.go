package handlers

import (
	"strings"

	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoriesHandler struct {
	DB *gorm.DB
}

func NewCategoriesHandler(db *gorm.DB) *CategoriesHandler {
	return &CategoriesHandler{DB: db}
}

func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing categories")
	}
	return utils.Success(c, fiber.StatusOK, categories)
}

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.DB.Create(&category).Error; err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "category name already exists")
	}

	return utils.Success(c, fiber.StatusCreated, category)
}

func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	categoryID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid category id")
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}

	var category models.Category
	if err := h.DB.First(&category, "id = ?", categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "category not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading category")
	}

	category.Name = req.Name
	category.Description = req.Description

	if err := h.DB.Save(&category).Error; err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "category name already exists")
	}

	return utils.Success(c, fiber.StatusOK, category)
}

func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	categoryID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid category id")
	}

	var events int64
	if err := h.DB.Model(&models.Event{}).Where("category_id = ?", categoryID).Count(&events).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking category usage")
	}
	if events > 0 {
		return utils.Error(c, fiber.StatusBadRequest, "category is still referenced by events")
	}

	result := h.DB.Delete(&models.Category{}, "id = ?", categoryID)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting category")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "category not found")
	}

	return utils.Message(c, "category deleted")
}
