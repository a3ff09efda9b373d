package handlers

import (
	"strings"

	"github.com/eventtogether/backend/internal/middleware"
	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type GroupsHandler struct {
	Groups      *services.GroupService
	Memberships *services.MembershipService
}

func NewGroupsHandler(groups *services.GroupService, memberships *services.MembershipService) *GroupsHandler {
	return &GroupsHandler{Groups: groups, Memberships: memberships}
}

type createGroupRequest struct {
	EventID     uuid.UUID `json:"event_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	MaxMembers  int       `json:"max_members"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.EventID == uuid.Nil {
		return utils.Error(c, fiber.StatusUnprocessableEntity, "event_id is required")
	}

	group, err := h.Groups.Create(c.UserContext(), req.EventID, strings.TrimSpace(req.Name), req.Description, req.MaxMembers, currentUser)
	if err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"event_id":   group.EventID.String(),
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	viewer := middleware.GetCurrentUser(c)

	catalogs, err := h.Groups.List(c.UserContext(), viewer)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, catalogs)
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	detail, err := h.Groups.Get(c.UserContext(), groupID, middleware.GetCurrentUser(c))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, detail)
}

func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var patch services.GroupPatch
	if err := c.BodyParser(&patch); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Groups.Update(c.UserContext(), groupID, patch, currentUser)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Groups.Delete(c.UserContext(), groupID, currentUser); err != nil {
		return serviceError(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_deleted", map[string]interface{}{
		"group_id": groupID.String(),
	})

	return utils.Message(c, "group deleted")
}

func (h *GroupsHandler) Join(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if _, err := h.Memberships.Join(c.UserContext(), groupID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	return utils.Message(c, "successfully joined the group")
}

func (h *GroupsHandler) Leave(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Memberships.Leave(c.UserContext(), groupID, currentUser.ID); err != nil {
		return serviceError(c, err)
	}

	return utils.Message(c, "successfully left the group")
}

func (h *GroupsHandler) CheckMembership(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	isMember, err := h.Memberships.IsMember(c.UserContext(), groupID, currentUser.ID)
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"is_member": isMember})
}

func (h *GroupsHandler) ListByEvent(c *fiber.Ctx) error {
	eventID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid event id")
	}

	catalogs, err := h.Groups.ListByEvent(c.UserContext(), eventID, middleware.GetCurrentUser(c))
	if err != nil {
		return serviceError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, catalogs)
}
