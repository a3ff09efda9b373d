package models

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	BaseModel
	Title       string     `json:"title" gorm:"type:varchar(200);not null"`
	Description *string    `json:"description,omitempty" gorm:"type:text"`
	Date        time.Time  `json:"date" gorm:"not null"`
	Location    string     `json:"location" gorm:"type:varchar(300);not null"`
	Price       float64    `json:"price" gorm:"not null;default:0"`
	Capacity    int        `json:"capacity" gorm:"not null"`
	OrganizerID uuid.UUID  `json:"organizer_id" gorm:"type:uuid;not null;index"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty" gorm:"type:uuid;index"`

	Organizer User      `json:"organizer,omitempty" gorm:"foreignKey:OrganizerID"`
	Category  *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Groups    []Group   `json:"-" gorm:"foreignKey:EventID"`
}

// OwnerID satisfies the services authorization predicate.
func (e *Event) OwnerID() uuid.UUID {
	return e.OrganizerID
}
