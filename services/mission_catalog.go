package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gosimple/slug"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm/clause"
)

type missionTemplate struct {
	Type        models.MissionType
	Title       string
	Description string
	Category    models.MissionCategory
	Required    int
	RewardType  models.RewardType
	Reward      int64
}

var missionCatalog = []missionTemplate{
	{models.MissionDaily, "Complete an activity", "Get one activity approved today.", models.CategoryActivityCompletion, 1, models.RewardCoins, 5},
	{models.MissionDaily, "Finish a study session", "Finish one flashcard study session today.", models.CategoryStudySession, 1, models.RewardCoins, 5},
	{models.MissionWeekly, "Complete five activities", "Get five activities approved this week.", models.CategoryActivityCompletion, 5, models.RewardCoins, 30},
	{models.MissionWeekly, "Study fifty cards", "Review fifty flashcards this week.", models.CategoryCardsStudied, 50, models.RewardCoins, 25},
	{models.MissionSpecial, "Monthly math marathon", "Get twenty activities approved this month.", models.CategoryActivityCompletion, 20, models.RewardBadge, 1},
}

// missionWindow returns the [start, end) period containing now and a key
// naming that period.
func missionWindow(t models.MissionType, now time.Time) (time.Time, time.Time, string) {
	day := startOfDay(now)
	switch t {
	case models.MissionWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		year, week := start.ISOWeek()
		return start, start.AddDate(0, 0, 7), fmt.Sprintf("%d-w%02d", year, week)
	case models.MissionDaily:
		return day, day.AddDate(0, 0, 1), day.Format("2006-01-02")
	default:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, 0), start.Format("2006-01")
	}
}

func missionCode(t models.MissionType, title, period string) string {
	return slug.Make(fmt.Sprintf("%s %s %s", t, title, period))
}

// EnsureMissions creates the catalog missions for the periods containing now.
// Missions that already exist for a period are left alone.
func (s *MissionService) EnsureMissions(ctx context.Context, now time.Time) (int, error) {
	rows := make([]models.Mission, 0, len(missionCatalog))
	for _, tpl := range missionCatalog {
		start, end, period := missionWindow(tpl.Type, now)
		rows = append(rows, models.Mission{
			Code:          missionCode(tpl.Type, tpl.Title, period),
			Title:         tpl.Title,
			Description:   tpl.Description,
			Type:          tpl.Type,
			Category:      tpl.Category,
			RequiredCount: tpl.Required,
			RewardType:    tpl.RewardType,
			RewardAmount:  tpl.Reward,
			IsActive:      true,
			StartDate:     start,
			EndDate:       end,
		})
	}

	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("ensure missions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Generated %d missions", res.RowsAffected)
	}
	return int(res.RowsAffected), nil
}

// DeactivateExpired switches off missions whose window has ended.
func (s *MissionService) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Mission{}).
		Where("is_active = ? AND end_date < ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, fmt.Errorf("deactivate missions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("✅ Deactivated %d expired missions", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
