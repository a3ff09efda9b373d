package models

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleModerator UserRole = "moderator"
	UserRoleUser      UserRole = "user"
)

type User struct {
	BaseModel
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Name         string   `json:"name" gorm:"type:varchar(100);not null"`
	About        *string  `json:"about,omitempty" gorm:"type:text"`
	AvatarURL    *string  `json:"avatar_url,omitempty" gorm:"type:text"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsActive     bool     `json:"is_active" gorm:"not null;default:true"`

	OrganizedEvents []Event       `json:"-" gorm:"foreignKey:OrganizerID"`
	OrganizedGroups []Group       `json:"-" gorm:"foreignKey:OrganizerID"`
	Memberships     []GroupMember `json:"-" gorm:"foreignKey:UserID"`
}

// IsStaff reports whether the user holds a platform-wide role that
// overrides per-resource ownership checks.
func (u *User) IsStaff() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRoleModerator
}
