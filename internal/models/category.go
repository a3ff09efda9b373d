package models

type Category struct {
	BaseModel
	Name        string  `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description *string `json:"description,omitempty" gorm:"type:text"`

	Events []Event `json:"-" gorm:"foreignKey:CategoryID"`
}
