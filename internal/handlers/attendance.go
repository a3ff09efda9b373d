package handlers

import (
	"time"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AttendanceHandler struct {
	DB *gorm.DB
}

func NewAttendanceHandler(db *gorm.DB) *AttendanceHandler {
	return &AttendanceHandler{DB: db}
}

func (h *AttendanceHandler) My(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var records []models.Attendance
	if err := h.DB.
		Preload("Event").
		Where("user_id = ?", currentUser.ID).
		Order("date DESC").
		Find(&records).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing attendance")
	}

	return utils.Success(c, fiber.StatusOK, records)
}

type markAttendanceRequest struct {
	UserID   uuid.UUID `json:"user_id"`
	Attended bool      `json:"attended"`
}

// Mark records whether a user attended an event. Only platform staff
// and the event's organizer may write attendance.
func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
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

	var req markAttendanceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.UserID == uuid.Nil {
		return utils.Error(c, fiber.StatusBadRequest, "user_id is required")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", req.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	var record models.Attendance
	err = h.DB.First(&record, "event_id = ? AND user_id = ?", eventID, req.UserID).Error
	switch err {
	case nil:
		record.Attended = req.Attended
		if err := h.DB.Save(&record).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed updating attendance")
		}
	case gorm.ErrRecordNotFound:
		record = models.Attendance{
			UserID:   req.UserID,
			EventID:  eventID,
			Attended: req.Attended,
			Date:     time.Now().UTC(),
		}
		if err := h.DB.Create(&record).Error; err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed recording attendance")
		}
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading attendance")
	}

	return utils.Success(c, fiber.StatusOK, record)
}
