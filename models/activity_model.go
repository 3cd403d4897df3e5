package models

import "github.com/google/uuid"

// Difficulty tiers drive the experience granted on approval.
const (
	DifficultyEasy   = 1
	DifficultyMedium = 2
	DifficultyHard   = 3
	DifficultyExpert = 4
)

type Activity struct {
	Base
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	MathTopic   string    `gorm:"size:100;index" json:"math_topic"`
	Xavicoins   int64     `gorm:"not null;default:0" json:"xavicoins"`
	Difficulty  int       `gorm:"not null;default:1" json:"difficulty"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null" json:"created_by_id"`

	Evidences []Evidence `gorm:"foreignKey:ActivityID" json:"evidences,omitempty"`
}
