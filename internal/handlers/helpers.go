package handlers

import (
	"errors"
	"strings"

	"github.com/eventtogether/backend/internal/services"
	"github.com/eventtogether/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// serviceError maps domain errors onto stable HTTP statuses. Business
// rule conflicts on the join/leave surface are 400, validation
// failures on group payloads are 422, and a timed-out store operation
// is the one retryable status.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrGroupNotFound):
		return utils.Error(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrForbidden):
		return utils.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrValidation):
		return utils.Error(c, fiber.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrGroupClosed),
		errors.Is(err, services.ErrGroupFull),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrOrganizerCannotLeave):
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrStoreTimeout):
		return utils.Error(c, fiber.StatusServiceUnavailable, err.Error())
	default:
		return utils.Error(c, fiber.StatusInternalServerError, "internal server error")
	}
}
