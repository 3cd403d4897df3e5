package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementService struct {
	DB       *gorm.DB
	Realtime Realtime
	Notifier UserNotifier
	Now      func() time.Time
}

func NewAchievementService(db *gorm.DB, rt Realtime, notifier UserNotifier) *AchievementService {
	return &AchievementService{DB: db, Realtime: rt, Notifier: notifier, Now: utcNow}
}

// NotifyAction advances every achievement matching the event and unlocks
// those that reach their target.
func (s *AchievementService) NotifyAction(ctx context.Context, ev ActionEvent) error {
	now := s.Now()
	var unlocked []models.Achievement

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var achievements []models.Achievement
		err := tx.Where("action_type = ? AND (math_topic = '' OR math_topic IS NULL OR math_topic = ?)", ev.ActivityType, ev.MathTopic).
			Find(&achievements).Error
		if err != nil {
			return fmt.Errorf("load achievements: %w", err)
		}
		if len(achievements) == 0 {
			return nil
		}

		rows := make([]models.UserAchievement, 0, len(achievements))
		ids := make([]uuid.UUID, 0, len(achievements))
		for _, a := range achievements {
			rows = append(rows, models.UserAchievement{UserID: ev.UserID, AchievementID: a.ID})
			ids = append(ids, a.ID)
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("create user achievements: %w", err)
		}

		var progress []models.UserAchievement
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND achievement_id IN ? AND is_unlocked = ?", ev.UserID, ids, false).
			Find(&progress).Error
		if err != nil {
			return fmt.Errorf("load user achievements: %w", err)
		}

		byID := make(map[uuid.UUID]models.Achievement, len(achievements))
		for _, a := range achievements {
			byID[a.ID] = a
		}

		for _, ua := range progress {
			a := byID[ua.AchievementID]
			delta := int64(1)
			if a.Metric == models.MetricXavicoins {
				delta = ev.XavicoinsEarned
			}
			if delta <= 0 {
				continue
			}

			updates := map[string]interface{}{"progress": ua.Progress + delta}
			if ua.Progress+delta >= a.Target {
				updates["is_unlocked"] = true
				updates["unlocked_at"] = now
				unlocked = append(unlocked, a)
			}
			if err := tx.Model(&models.UserAchievement{}).Where("id = ?", ua.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update achievement progress: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, a := range unlocked {
		s.announceUnlocked(ctx, ev.UserID, a)
	}
	return nil
}

func (s *AchievementService) announceUnlocked(ctx context.Context, userID uuid.UUID, a models.Achievement) {
	log.Printf("✅ User %s unlocked achievement %s", userID, a.Code)
	payload := map[string]interface{}{
		"achievement_id": a.ID,
		"code":           a.Code,
		"name":           a.Name,
		"icon_url":       a.IconURL,
	}
	if s.Realtime != nil {
		if err := s.Realtime.EmitToUser(userID, models.NotificationAchievementUnlocked, payload); err != nil {
			log.Printf("🔥 Failed to emit achievement to %s: %v", userID, err)
		}
	}
	if s.Notifier != nil {
		msg := fmt.Sprintf("You unlocked \"%s\".", a.Name)
		if err := s.Notifier.NotifyUser(ctx, userID, models.NotificationAchievementUnlocked, "Achievement unlocked", msg, payload); err != nil {
			log.Printf("🔥 Failed to store achievement notification for %s: %v", userID, err)
		}
	}
}

// ListForUser returns the user's achievement progress with templates.
func (s *AchievementService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.UserAchievement, error) {
	var rows []models.UserAchievement
	err := s.DB.WithContext(ctx).Preload("Achievement").
		Where("user_id = ?", userID).
		Order("is_unlocked DESC, progress DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	return rows, nil
}
