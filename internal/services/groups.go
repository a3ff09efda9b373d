package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/eventtogether/backend/internal/models"
	"github.com/eventtogether/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	groupNameMinLen = 3
	groupNameMaxLen = 100
	groupMinMembers = 2
	groupMaxMembers = 100
)

// GroupService owns the group lifecycle: create, update, delete and
// the catalog projections. Membership mutations live in
// MembershipService.
type GroupService struct {
	DB           *gorm.DB
	StoreTimeout time.Duration
}

func NewGroupService(db *gorm.DB, storeTimeout time.Duration) *GroupService {
	return &GroupService{DB: db, StoreTimeout: storeTimeout}
}

// GroupCatalog is the list-view projection of a group. The derived
// fields are computed from the live member rows at read time, never
// cached on the entity.
type GroupCatalog struct {
	ID                  uuid.UUID `json:"id"`
	EventID             uuid.UUID `json:"event_id"`
	Name                string    `json:"name"`
	MembersCount        int64     `json:"members_count"`
	MaxMembers          int       `json:"max_members"`
	IsOpen              bool      `json:"is_open"`
	OrganizerName       string    `json:"organizer_name"`
	CurrentUserIsMember *bool     `json:"current_user_is_member,omitempty"`
}

// GroupDetail is the full representation returned for a single group.
type GroupDetail struct {
	models.Group
	MembersCount        int64  `json:"members_count"`
	OrganizerName       string `json:"organizer_name"`
	CurrentUserIsMember *bool  `json:"current_user_is_member,omitempty"`
}

// GroupPatch carries partial update semantics: nil fields are left
// untouched.
type GroupPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	MaxMembers  *int    `json:"max_members"`
	IsOpen      *bool   `json:"is_open"`
}

// Create validates the target event and the group parameters, then
// creates the group together with its organizer membership row in one
// transaction. The organizer is a member from the first moment the
// group exists.
func (s *GroupService) Create(ctx context.Context, eventID uuid.UUID, name string, description *string, maxMembers int, actor *models.User) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if len(name) < groupNameMinLen || len(name) > groupNameMaxLen {
		return nil, validationError("group name must be between %d and %d characters", groupNameMinLen, groupNameMaxLen)
	}
	if maxMembers < groupMinMembers || maxMembers > groupMaxMembers {
		return nil, validationError("max_members must be between %d and %d", groupMinMembers, groupMaxMembers)
	}

	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	group := models.Group{
		EventID:     eventID,
		Name:        name,
		Description: description,
		MaxMembers:  maxMembers,
		IsOpen:      true,
		OrganizerID: actor.ID,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := tx.First(&event, "id = ?", eventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEventNotFound
			}
			return err
		}

		if err := tx.Create(&group).Error; err != nil {
			return err
		}

		member := models.GroupMember{UserID: actor.ID, GroupID: group.ID}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	logger.InfoWithUser(actor.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"event_id":   eventID.String(),
		"group_name": group.Name,
	})
	return &group, nil
}

// Update applies a partial patch. Only the organizer, moderators and
// admins may update. Shrinking max_members below the current member
// count is refused so the capacity invariant cannot be broken from
// above.
func (s *GroupService) Update(ctx context.Context, groupID uuid.UUID, patch GroupPatch, actor *models.User) (*models.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	var updated models.Group
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := lockGroup(tx, groupID)
		if err != nil {
			return err
		}
		if !CanManage(actor, group) {
			return ErrForbidden
		}

		updates := map[string]interface{}{}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if len(name) < groupNameMinLen || len(name) > groupNameMaxLen {
				return validationError("group name must be between %d and %d characters", groupNameMinLen, groupNameMaxLen)
			}
			updates["name"] = name
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.MaxMembers != nil {
			maxMembers := *patch.MaxMembers
			if maxMembers < groupMinMembers || maxMembers > groupMaxMembers {
				return validationError("max_members must be between %d and %d", groupMinMembers, groupMaxMembers)
			}

			var memberCount int64
			if err := tx.Model(&models.GroupMember{}).
				Where("group_id = ?", groupID).
				Count(&memberCount).Error; err != nil {
				return err
			}
			if int64(maxMembers) < memberCount {
				return validationError("max_members cannot be lower than the current member count (%d)", memberCount)
			}
			updates["max_members"] = maxMembers
		}
		if patch.IsOpen != nil {
			updates["is_open"] = *patch.IsOpen
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.First(&updated, "id = ?", groupID).Error
	})
	if err != nil {
		return nil, translateStoreErr(err)
	}

	logger.InfoWithUser(actor.ID.String(), "group_updated", map[string]interface{}{
		"group_id": groupID.String(),
	})
	return &updated, nil
}

// Delete removes the group and cascades its membership rows and chat
// messages in a single transaction.
func (s *GroupService) Delete(ctx context.Context, groupID uuid.UUID, actor *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.First(&group, "id = ?", groupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGroupNotFound
			}
			return err
		}
		if !CanManage(actor, &group) {
			return ErrForbidden
		}

		if err := tx.Where("group_id = ?", groupID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("group_id = ?", groupID).Delete(&models.GroupMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, "id = ?", groupID).Error
	})
	if err != nil {
		return translateStoreErr(err)
	}

	logger.InfoWithUser(actor.ID.String(), "group_deleted", map[string]interface{}{
		"group_id": groupID.String(),
	})
	return nil
}

// Get returns the detail projection for one group, or ErrGroupNotFound.
func (s *GroupService) Get(ctx context.Context, groupID uuid.UUID, viewer *models.User) (*GroupDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	var group models.Group
	if err := s.DB.WithContext(ctx).Preload("Organizer").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, translateStoreErr(err)
	}

	var memberCount int64
	if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&memberCount).Error; err != nil {
		return nil, translateStoreErr(err)
	}

	detail := GroupDetail{
		Group:         group,
		MembersCount:  memberCount,
		OrganizerName: group.Organizer.Name,
	}

	if viewer != nil {
		var viewerRows int64
		if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, viewer.ID).
			Count(&viewerRows).Error; err != nil {
			return nil, translateStoreErr(err)
		}
		isMember := viewerRows > 0
		detail.CurrentUserIsMember = &isMember
	}

	return &detail, nil
}

// List returns the catalog projection of all groups.
func (s *GroupService) List(ctx context.Context, viewer *models.User) ([]GroupCatalog, error) {
	return s.listCatalogs(ctx, viewer, nil)
}

// ListByEvent returns the catalog projection of one event's groups.
func (s *GroupService) ListByEvent(ctx context.Context, eventID uuid.UUID, viewer *models.User) ([]GroupCatalog, error) {
	return s.listCatalogs(ctx, viewer, &eventID)
}

func (s *GroupService) listCatalogs(ctx context.Context, viewer *models.User, eventID *uuid.UUID) ([]GroupCatalog, error) {
	ctx, cancel := context.WithTimeout(ctx, s.StoreTimeout)
	defer cancel()

	query := s.DB.WithContext(ctx).Preload("Organizer").Order("created_at DESC")
	if eventID != nil {
		query = query.Where("event_id = ?", *eventID)
	}

	var groups []models.Group
	if err := query.Find(&groups).Error; err != nil {
		return nil, translateStoreErr(err)
	}

	counts, err := s.memberCounts(ctx)
	if err != nil {
		return nil, err
	}

	var viewerGroups map[uuid.UUID]bool
	if viewer != nil {
		viewerGroups, err = s.viewerMemberships(ctx, viewer.ID)
		if err != nil {
			return nil, err
		}
	}

	catalogs := make([]GroupCatalog, 0, len(groups))
	for _, group := range groups {
		catalog := GroupCatalog{
			ID:            group.ID,
			EventID:       group.EventID,
			Name:          group.Name,
			MembersCount:  counts[group.ID],
			MaxMembers:    group.MaxMembers,
			IsOpen:        group.IsOpen,
			OrganizerName: group.Organizer.Name,
		}
		if viewer != nil {
			isMember := viewerGroups[group.ID]
			catalog.CurrentUserIsMember = &isMember
		}
		catalogs = append(catalogs, catalog)
	}
	return catalogs, nil
}

func (s *GroupService) memberCounts(ctx context.Context) (map[uuid.UUID]int64, error) {
	var rows []struct {
		GroupID uuid.UUID
		Count   int64
	}
	if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
		Select("group_id, COUNT(*) AS count").
		Group("group_id").
		Scan(&rows).Error; err != nil {
		return nil, translateStoreErr(err)
	}

	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.GroupID] = row.Count
	}
	return counts, nil
}

func (s *GroupService) viewerMemberships(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	var groupIDs []uuid.UUID
	if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &groupIDs).Error; err != nil {
		return nil, translateStoreErr(err)
	}

	memberships := make(map[uuid.UUID]bool, len(groupIDs))
	for _, id := range groupIDs {
		memberships[id] = true
	}
	return memberships, nil
}
