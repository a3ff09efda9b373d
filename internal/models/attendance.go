package models

import (
	"time"

	"github.com/google/uuid"
)

type Attendance struct {
	BaseModel
	UserID   uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_event"`
	EventID  uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_event"`
	Attended bool      `json:"attended" gorm:"not null;default:false"`
	Date     time.Time `json:"date" gorm:"not null"`

	User  User  `json:"-" gorm:"foreignKey:UserID"`
	Event Event `json:"event,omitempty" gorm:"foreignKey:EventID"`
}
