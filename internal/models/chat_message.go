package models

import "github.com/google/uuid"

type ChatMessage struct {
	BaseModel
	GroupID uuid.UUID `json:"group_id" gorm:"type:uuid;not null;index"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Text    string    `json:"text" gorm:"type:text;not null"`

	Group Group `json:"-" gorm:"foreignKey:GroupID"`
	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
