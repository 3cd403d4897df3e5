package database

import (
	"fmt"
	"log"

	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var defaultAchievements = []models.Achievement{
	{Code: "first-activity", Name: "First Steps", Description: "Complete your first activity.", ActionType: models.ActionMathActivity, Metric: models.MetricCount, Target: 1},
	{Code: "ten-activities", Name: "Getting Serious", Description: "Complete ten activities.", ActionType: models.ActionMathActivity, Metric: models.MetricCount, Target: 10},
	{Code: "algebra-specialist", Name: "Algebra Specialist", Description: "Complete five algebra activities.", ActionType: models.ActionMathActivity, MathTopic: "algebra", Metric: models.MetricCount, Target: 5},
	{Code: "geometry-specialist", Name: "Geometry Specialist", Description: "Complete five geometry activities.", ActionType: models.ActionMathActivity, MathTopic: "geometry", Metric: models.MetricCount, Target: 5},
	{Code: "coin-collector", Name: "Coin Collector", Description: "Earn 500 xavicoins from activities.", ActionType: models.ActionMathActivity, Metric: models.MetricXavicoins, Target: 500},
}

// SeedAchievements inserts the built-in achievement catalog. Existing codes are left alone.
func SeedAchievements(db *gorm.DB) error {
	rows := make([]models.Achievement, len(defaultAchievements))
	copy(rows, defaultAchievements)

	res := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("seed achievements: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Seeded %d achievements", res.RowsAffected)
	}
	return nil
}
