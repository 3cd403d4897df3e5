package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	NotificationActivityCreated     = "activity_created"
	NotificationMissionCompleted    = "mission_completed"
	NotificationAchievementUnlocked = "achievement_unlocked"
)

// Notification with a nil UserID is global and visible to everyone.
type Notification struct {
	Base
	UserID  *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Type    string         `gorm:"size:50;not null" json:"type"`
	Title   string         `gorm:"size:255;not null" json:"title"`
	Message string         `gorm:"type:text;not null" json:"message"`
	Data    datatypes.JSON `json:"data"`
	IsRead  bool           `gorm:"not null;default:false" json:"is_read"`
}
