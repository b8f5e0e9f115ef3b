package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role controls what a user may do across the catalog.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStandard
}

type User struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Role         Role      `gorm:"size:20;not null;default:'standard'" json:"role"`
	TokenVersion int       `gorm:"not null;default:0" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanModify reports whether the user may change or delete a recipe.
func (u *User) CanModify(r *Recipe) bool {
	return u.IsAdmin() || r.UserID == u.ID
}
