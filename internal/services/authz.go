package services

import (
	"github.com/eventtogether/backend/internal/models"
	"github.com/google/uuid"
)

// OrganizerOwned is implemented by resources that belong to the user
// who created them (groups, events).
type OrganizerOwned interface {
	OwnerID() uuid.UUID
}

// CanManage is the single authorization predicate for organizer-owned
// resources: the organizer themselves, moderators, and admins may
// mutate; everyone else may not.
func CanManage(actor *models.User, resource OrganizerOwned) bool {
	if actor == nil {
		return false
	}
	if actor.IsStaff() {
		return true
	}
	return actor.ID == resource.OwnerID()
}
