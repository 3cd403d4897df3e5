package models

import (
	"time"

	"github.com/google/uuid"
)

type MissionType string

const (
	MissionDaily   MissionType = "DAILY"
	MissionWeekly  MissionType = "WEEKLY"
	MissionGroup   MissionType = "GROUP"
	MissionSpecial MissionType = "SPECIAL"
)

type MissionCategory string

const (
	CategoryActivityCompletion MissionCategory = "ACTIVITY_COMPLETION"
	CategoryStudySession       MissionCategory = "STUDY_SESSION"
	CategoryCardsStudied       MissionCategory = "CARDS_STUDIED"
	CategoryGeneral            MissionCategory = "GENERAL"
)

type RewardType string

const (
	RewardCoins RewardType = "COINS"
	RewardBadge RewardType = "BADGE"
	RewardItem  RewardType = "ITEM"
)

type Mission struct {
	Base
	Code          string          `gorm:"size:160;not null;uniqueIndex" json:"code"`
	Title         string          `gorm:"size:255;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Type          MissionType     `gorm:"size:20;not null" json:"type"`
	Category      MissionCategory `gorm:"size:40;not null;default:'GENERAL';index" json:"category"`
	RequiredCount int             `gorm:"not null" json:"required_count"`
	RewardType    RewardType      `gorm:"size:20;not null" json:"reward_type"`
	RewardAmount  int64           `gorm:"not null;default:0" json:"reward_amount"`
	IsActive      bool            `gorm:"not null;index" json:"is_active"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       time.Time       `gorm:"not null" json:"end_date"`
}

// ActiveAt reports whether the mission window [StartDate, EndDate) contains t.
func (m Mission) ActiveAt(t time.Time) bool {
	return m.IsActive && !t.Before(m.StartDate) && t.Before(m.EndDate)
}

type UserMission struct {
	Base
	UserID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_mission" json:"user_id"`
	MissionID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_mission" json:"mission_id"`
	Progress      int        `gorm:"not null;default:0" json:"progress"`
	IsCompleted   bool       `gorm:"not null;default:false" json:"is_completed"`
	CompletedAt   *time.Time `json:"completed_at"`
	RewardClaimed bool       `gorm:"not null;default:false" json:"reward_claimed"`
	ClaimedAt     *time.Time `json:"claimed_at"`

	Mission *Mission `gorm:"foreignKey:MissionID" json:"mission,omitempty"`
}
