package handlers

import (
	"strings"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxChatMessageLen = 2000

type ChatHandler struct {
	DB          *gorm.DB
	Memberships *services.MembershipService
}

func NewChatHandler(db *gorm.DB, memberships *services.MembershipService) *ChatHandler {
	return &ChatHandler{DB: db, Memberships: memberships}
}

// requireParticipant resolves the group id and checks that the caller
// may read its chat: group members plus platform staff.
func (h *ChatHandler) requireParticipant(c *fiber.Ctx, user *models.User) (uuid.UUID, error) {
	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return uuid.Nil, utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	isMember, err := h.Memberships.IsMember(c.UserContext(), groupID, user.ID)
	if err != nil {
		return uuid.Nil, serviceError(c, err)
	}
	if !isMember && !user.IsStaff() {
		return uuid.Nil, utils.Error(c, fiber.StatusForbidden, "only group members can access the chat")
	}

	return groupID, nil
}

func (h *ChatHandler) ListMessages(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := h.requireParticipant(c, currentUser)
	if err != nil {
		return err
	}

	var messages []models.ChatMessage
	if err := h.DB.
		Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing messages")
	}

	return utils.Success(c, fiber.StatusOK, messages)
}

type postMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := h.requireParticipant(c, currentUser)
	if err != nil {
		return err
	}

	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return utils.Error(c, fiber.StatusBadRequest, "text is required")
	}
	if len(req.Text) > maxChatMessageLen {
		return utils.Error(c, fiber.StatusBadRequest, "message is too long")
	}

	message := models.ChatMessage{
		GroupID: groupID,
		UserID:  currentUser.ID,
		Text:    req.Text,
	}

	if err := h.DB.Create(&message).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed posting message")
	}

	message.User = *currentUser
	return utils.Success(c, fiber.StatusCreated, message)
}
