package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReviewAgain = "again"
	ReviewHard  = "hard"
	ReviewGood  = "good"
	ReviewEasy  = "easy"
)

type Deck struct {
	Base
	Title   string    `gorm:"size:255;not null" json:"title"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`

	Cards []Flashcard `gorm:"foreignKey:DeckID" json:"cards,omitempty"`
}

type Flashcard struct {
	Base
	DeckID   uuid.UUID `gorm:"type:uuid;not null;index" json:"deck_id"`
	Front    string    `gorm:"type:text;not null" json:"front"`
	Back     string    `gorm:"type:text;not null" json:"back"`
	Position int       `gorm:"not null;default:0" json:"position"`
}

type StudySession struct {
	Base
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	DeckID          uuid.UUID  `gorm:"type:uuid;not null" json:"deck_id"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Duration        int        `gorm:"not null;default:0" json:"duration"`
	CardsStudied    int        `gorm:"not null;default:0" json:"cards_studied"`
	XavicoinsEarned int64      `gorm:"not null;default:0" json:"xavicoins_earned"`
	IsCompleted     bool       `gorm:"not null;default:false;index" json:"is_completed"`
	SessionGoal     int        `gorm:"not null;default:0" json:"session_goal"`
	Cancelled       bool       `gorm:"not null;default:false" json:"cancelled"`
}

type CardReview struct {
	Base
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	CardID     uuid.UUID `gorm:"type:uuid;not null" json:"card_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null" json:"user_id"`
	Difficulty string    `gorm:"size:10;not null" json:"difficulty"`
	ReviewedAt time.Time `gorm:"not null" json:"reviewed_at"`
}
