package handlers

import (
	"strings"
	"time"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventsHandler struct {
	DB *gorm.DB
}

func NewEventsHandler(db *gorm.DB) *EventsHandler {
	return &EventsHandler{DB: db}
}

func (h *EventsHandler) List(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))
	categoryID := strings.TrimSpace(c.Query("category_id"))

	query := h.DB.Model(&models.Event{}).Preload("Organizer").Preload("Category")
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(location) LIKE ?", searchValue, searchValue)
	}
	if categoryID != "" {
		id, err := parseUUID(categoryID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid category id")
		}
		query = query.Where("category_id = ?", id)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting events")
	}

	var events []models.Event
	if err := utils.ApplyPagination(query.Order("date ASC"), p).Find(&events).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing events")
	}

	return utils.Paginated(c, events, p.Page, p.Limit, total)
}

func (h *EventsHandler) Get(c *fiber.Ctx) error {
	eventID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	var event models.Event
	if err := h.DB.Preload("Organizer").Preload("Category").First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "event not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading event")
	}

	return utils.Success(c, fiber.StatusOK, event)
}

type createEventRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Date        time.Time  `json:"date"`
	Location    string     `json:"location"`
	Price       float64    `json:"price"`
	Capacity    int        `json:"capacity"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

func (h *EventsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)

	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}
	if req.Location == "" {
		return utils.Error(c, fiber.StatusBadRequest, "location is required")
	}
	if req.Date.IsZero() {
		return utils.Error(c, fiber.StatusBadRequest, "date is required")
	}
	if req.Capacity < 1 {
		return utils.Error(c, fiber.StatusBadRequest, "capacity must be at least 1")
	}
	if req.Price < 0 {
		return utils.Error(c, fiber.StatusBadRequest, "price cannot be negative")
	}

	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			return utils.Error(c, fiber.StatusNotFound, "category not found")
		}
	}

	event := models.Event{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Price:       req.Price,
		Capacity:    req.Capacity,
		OrganizerID: currentUser.ID,
		CategoryID:  req.CategoryID,
	}

	if err := h.DB.Create(&event).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating event")
	}

	logger.InfoWithUser(currentUser.ID.String(), "event_created", map[string]interface{}{
		"event_id": event.ID.String(),
		"title":    event.Title,
	})

	return utils.Success(c, fiber.StatusCreated, event)
}

type updateEventRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	Price       *float64   `json:"price"`
	Capacity    *int       `json:"capacity"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

func (h *EventsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	eventID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	var event models.Event
	if err := h.DB.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "event not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading event")
	}

	if !services.CanManage(currentUser, &event) {
		return utils.Error(c, fiber.StatusForbidden, "not enough permissions")
	}

	var req updateEventRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		trimmed := strings.TrimSpace(*req.Description)
		if trimmed == "" {
			updates["description"] = nil
		} else {
			updates["description"] = trimmed
		}
	}
	if req.Date != nil {
		if req.Date.IsZero() {
			return utils.Error(c, fiber.StatusBadRequest, "date cannot be empty")
		}
		updates["date"] = *req.Date
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location == "" {
			return utils.Error(c, fiber.StatusBadRequest, "location cannot be empty")
		}
		updates["location"] = location
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return utils.Error(c, fiber.StatusBadRequest, "price cannot be negative")
		}
		updates["price"] = *req.Price
	}
	if req.Capacity != nil {
		if *req.Capacity < 1 {
			return utils.Error(c, fiber.StatusBadRequest, "capacity must be at least 1")
		}
		updates["capacity"] = *req.Capacity
	}
	if req.CategoryID != nil {
		var category models.Category
		if err := h.DB.First(&category, "id = ?", *req.CategoryID).Error; err != nil {
			return utils.Error(c, fiber.StatusNotFound, "category not found")
		}
		updates["category_id"] = *req.CategoryID
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.Event{}).Where("id = ?", eventID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating event")
	}

	var updated models.Event
	if err := h.DB.Preload("Organizer").Preload("Category").First(&updated, "id = ?", eventID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated event")
	}

	return utils.Success(c, fiber.StatusOK, updated)
}

func (h *EventsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	eventID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	var event models.Event
	if err := h.DB.First(&event, "id = ?", eventID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "event not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading event")
	}

	if !services.CanManage(currentUser, &event) {
		return utils.Error(c, fiber.StatusForbidden, "not enough permissions")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		var groupIDs []uuid.UUID
		if err := tx.Model(&models.Group{}).Where("event_id = ?", eventID).Pluck("id", &groupIDs).Error; err != nil {
			return err
		}
		if len(groupIDs) > 0 {
			if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.ChatMessage{}).Error; err != nil {
				return err
			}
			if err := tx.Where("group_id IN ?", groupIDs).Delete(&models.GroupMember{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", eventID).Delete(&models.Group{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("event_id = ?", eventID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, "id = ?", eventID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting event")
	}

	logger.InfoWithUser(currentUser.ID.String(), "event_deleted", map[string]interface{}{
		"event_id": eventID.String(),
	})

	return utils.Message(c, "event deleted")
}
