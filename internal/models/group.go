package models

import "github.com/google/uuid"

type Group struct {
	BaseModel
	EventID     uuid.UUID `json:"event_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	MaxMembers  int       `json:"max_members" gorm:"not null"`
	IsOpen      bool      `json:"is_open" gorm:"not null;default:true"`
	OrganizerID uuid.UUID `json:"organizer_id" gorm:"type:uuid;not null;index"`

	Event     Event         `json:"-" gorm:"foreignKey:EventID"`
	Organizer User          `json:"-" gorm:"foreignKey:OrganizerID"`
	Members   []GroupMember `json:"-" gorm:"foreignKey:GroupID"`
	Messages  []ChatMessage `json:"-" gorm:"foreignKey:GroupID"`
}

func (g *Group) OwnerID() uuid.UUID {
	return g.OrganizerID
}
