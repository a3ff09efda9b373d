package handlers

import (
	"strings"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AdminHandler struct {
	DB     *gorm.DB
	Groups *services.GroupService
}

func NewAdminHandler(db *gorm.DB, groups *services.GroupService) *AdminHandler {
	return &AdminHandler{DB: db, Groups: groups}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)
	search := strings.TrimSpace(c.Query("search"))

	query := h.DB.Model(&models.User{})
	if search != "" {
		searchValue := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", searchValue, searchValue)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting users")
	}

	var users []models.User
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&users).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing users")
	}

	return utils.Paginated(c, users, p.Page, p.Limit, total)
}

func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

type adminUpdateUserRequest struct {
	Name *string          `json:"name"`
	Role *models.UserRole `json:"role"`
}

func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	var req adminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return utils.Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		updates["name"] = name
	}
	if req.Role != nil {
		switch *req.Role {
		case models.UserRoleAdmin, models.UserRoleModerator, models.UserRoleUser:
		default:
			return utils.Error(c, fiber.StatusBadRequest, "invalid role")
		}
		if user.Role == models.UserRoleAdmin && *req.Role != models.UserRoleAdmin {
			return utils.Error(c, fiber.StatusForbidden, "admin accounts cannot be demoted")
		}
		updates["role"] = *req.Role
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", userID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading updated user")
	}

	return utils.Success(c, fiber.StatusOK, updated)
}

func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "admin accounts cannot be deleted")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Attendance{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", userID).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed deleting user")
	}

	if currentUser != nil {
		logger.InfoWithUser(currentUser.ID.String(), "admin_user_deleted", map[string]interface{}{
			"target_user_id": userID.String(),
		})
	}

	return utils.Message(c, "user deleted")
}

func (h *AdminHandler) ToggleUserActive(c *fiber.Ctx) error {
	userID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	if user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusForbidden, "admin accounts cannot be deactivated")
	}

	user.IsActive = !user.IsActive
	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).Update("is_active", user.IsActive).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	return utils.Success(c, fiber.StatusOK, user)
}

func (h *AdminHandler) ListEvents(c *fiber.Ctx) error {
	p := utils.ParsePagination(c)

	query := h.DB.Model(&models.Event{}).Preload("Organizer")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed counting events")
	}

	var events []models.Event
	if err := utils.ApplyPagination(query.Order("created_at DESC"), p).Find(&events).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing events")
	}

	return utils.Paginated(c, events, p.Page, p.Limit, total)
}

func (h *AdminHandler) ListGroups(c *fiber.Ctx) error {
	catalogs, err := h.Groups.List(c.UserContext(), middleware.GetCurrentUser(c))
	if err != nil {
		return serviceError(c, err)
	}
	return utils.Success(c, fiber.StatusOK, catalogs)
}

// ToggleGroupStatus flips a group between open and closed for new
// members without touching anything else.
func (h *AdminHandler) ToggleGroupStatus(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var group models.Group
	if err := h.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "group not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading group")
	}

	next := !group.IsOpen
	updated, err := h.Groups.Update(c.UserContext(), groupID, services.GroupPatch{IsOpen: &next}, currentUser)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, updated)
}
