package models

import (
	"time"

	"github.com/google/uuid"
)

// ActionMathActivity is emitted after an activity reward is granted.
const ActionMathActivity = "math_activity"

const (
	MetricCount     = "count"
	MetricXavicoins = "xavicoins"
)

type Achievement struct {
	Base
	Code        string `gorm:"size:100;not null;uniqueIndex" json:"code"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	ActionType  string `gorm:"size:50;not null;index" json:"action_type"`
	MathTopic   string `gorm:"size:100" json:"math_topic"`
	Metric      string `gorm:"size:20;not null;default:'count'" json:"metric"`
	Target      int64  `gorm:"not null" json:"target"`
	IconURL     string `gorm:"size:255" json:"icon_url"`
}

type UserAchievement struct {
	Base
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"user_id"`
	AchievementID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_achievement" json:"achievement_id"`
	Progress      int64      `gorm:"not null;default:0" json:"progress"`
	IsUnlocked    bool       `gorm:"not null;default:false" json:"is_unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at"`

	Achievement *Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}
