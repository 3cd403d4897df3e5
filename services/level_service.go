package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Experience granted per activity difficulty tier.
var experienceByDifficulty = map[int]int64{
	models.DifficultyEasy:   10,
	models.DifficultyMedium: 25,
	models.DifficultyHard:   50,
	models.DifficultyExpert: 100,
}

const baseXPPerLevel = 100

func ExperienceForDifficulty(tier int) int64 {
	if tier < models.DifficultyEasy {
		tier = models.DifficultyEasy
	}
	if tier > models.DifficultyExpert {
		tier = models.DifficultyExpert
	}
	return experienceByDifficulty[tier]
}

// xpForNextLevel is the experience needed to go from level to level+1.
func xpForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(float64(baseXPPerLevel) * math.Pow(float64(level), 1.2))
}

// LevelForExperience returns the level reached with the given total experience.
func LevelForExperience(exp int64) int {
	level := 1
	for exp >= xpForNextLevel(level) {
		exp -= xpForNextLevel(level)
		level++
	}
	return level
}

type LevelService struct{}

func NewLevelService() *LevelService {
	return &LevelService{}
}

func (s *LevelService) GrantExperience(tx *gorm.DB, userID uuid.UUID, difficulty int) error {
	xp := ExperienceForDifficulty(difficulty)

	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "experience", "level").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStudentNotFound
	}
	if err != nil {
		return fmt.Errorf("load experience: %w", err)
	}

	level := LevelForExperience(user.Experience + xp)
	err = tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"experience": gorm.Expr("experience + ?", xp),
		"level":      level,
	}).Error
	if err != nil {
		return fmt.Errorf("grant experience: %w", err)
	}
	return nil
}
