package models

import "time"

const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
	RoleAdmin     = "admin"
)

type User struct {
	Base
	FullName string `gorm:"size:255;not null" json:"full_name"`
	Email    string `gorm:"size:255;not null;unique" json:"email"`
	Role     string `gorm:"size:20;not null;default:'student'" json:"role"`

	Xavicoins           int64      `gorm:"not null;default:0" json:"xavicoins"`
	Experience          int64      `gorm:"not null;default:0" json:"experience"`
	Level               int        `gorm:"not null;default:1" json:"level"`
	CompletedActivities int64      `gorm:"not null;default:0" json:"completed_activities"`
	CurrentStreak       int        `gorm:"not null;default:0" json:"current_streak"`
	LastActivityDate    *time.Time `json:"last_activity_date"`

	PushToken *string `gorm:"size:255" json:"-"`
}
