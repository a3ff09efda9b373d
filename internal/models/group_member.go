package models

import "github.com/google/uuid"

// GroupMember is the user<->group membership relation. Rows are
// created by join and removed by leave or group deletion, never
// updated. The unique index keeps a (user, group) pair from appearing
// twice even under concurrent joins.
type GroupMember struct {
	BaseModel
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	GroupID uuid.UUID `json:"group_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	User    User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group   Group     `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}
