package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MissionService struct {
	DB       *gorm.DB
	Realtime Realtime
	Notifier UserNotifier
	Now      func() time.Time

	// FallbackAllOnNoMatch credits every incomplete mission when a user has no
	// activity-completion mission. It over-credits unrelated missions and is
	// off unless explicitly configured.
	FallbackAllOnNoMatch bool
}

func NewMissionService(db *gorm.DB, rt Realtime, notifier UserNotifier, fallbackAll bool) *MissionService {
	return &MissionService{
		DB:                   db,
		Realtime:             rt,
		Notifier:             notifier,
		Now:                  utcNow,
		FallbackAllOnNoMatch: fallbackAll,
	}
}

// AssignActiveMissions creates one UserMission per active mission the user
// does not have yet. Existing rows are never touched.
func (s *MissionService) AssignActiveMissions(ctx context.Context, userID uuid.UUID) (int, error) {
	now := s.Now()
	db := s.DB.WithContext(ctx)

	missions, err := s.activeMissions(db, now)
	if err != nil {
		return 0, err
	}
	if len(missions) == 0 {
		if _, err := s.EnsureMissions(ctx, now); err != nil {
			return 0, err
		}
		if missions, err = s.activeMissions(db, now); err != nil {
			return 0, err
		}
	}
	if len(missions) == 0 {
		return 0, nil
	}

	rows := make([]models.UserMission, 0, len(missions))
	for _, m := range missions {
		rows = append(rows, models.UserMission{UserID: userID, MissionID: m.ID})
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "mission_id"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return 0, fmt.Errorf("assign missions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *MissionService) activeMissions(db *gorm.DB, now time.Time) ([]models.Mission, error) {
	var missions []models.Mission
	err := db.Where("is_active = ? AND start_date <= ? AND end_date > ?", true, now, now).Find(&missions).Error
	if err != nil {
		return nil, fmt.Errorf("load active missions: %w", err)
	}
	return missions, nil
}

// RecordActivityCompletion adds one to every incomplete activity-completion
// mission of the user.
func (s *MissionService) RecordActivityCompletion(ctx context.Context, userID uuid.UUID) ([]models.UserMission, error) {
	if _, err := s.AssignActiveMissions(ctx, userID); err != nil {
		return nil, err
	}

	updated, err := s.increment(ctx, userID, []models.MissionCategory{models.CategoryActivityCompletion}, 1)
	if err != nil || len(updated) > 0 {
		return updated, err
	}

	if !s.FallbackAllOnNoMatch {
		log.Printf("⚠️ No activity-completion missions for user %s, nothing to credit", userID)
		return nil, nil
	}
	log.Printf("⚠️ No activity-completion missions for user %s, crediting all incomplete missions (fallback enabled)", userID)
	return s.increment(ctx, userID, nil, 1)
}

// RecordStudySession credits study-session and cards-studied missions.
func (s *MissionService) RecordStudySession(ctx context.Context, userID uuid.UUID, cardsStudied int) ([]models.UserMission, error) {
	if _, err := s.AssignActiveMissions(ctx, userID); err != nil {
		return nil, err
	}

	updated, err := s.increment(ctx, userID, []models.MissionCategory{models.CategoryStudySession}, 1)
	if err != nil {
		return nil, err
	}
	if cardsStudied > 0 {
		cards, err := s.increment(ctx, userID, []models.MissionCategory{models.CategoryCardsStudied}, cardsStudied)
		if err != nil {
			return updated, err
		}
		updated = append(updated, cards...)
	}
	return updated, nil
}

// UpdateProgress is the generic increment for a single mission.
func (s *MissionService) UpdateProgress(ctx context.Context, userID, missionID uuid.UUID, increment int) (*models.UserMission, error) {
	if increment <= 0 {
		return nil, ErrInvalidIncrement
	}

	var (
		um        models.UserMission
		completed bool
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Mission").
			Where("user_id = ? AND mission_id = ?", userID, missionID).
			First(&um).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMissionNotAssigned
		}
		if err != nil {
			return fmt.Errorf("load user mission: %w", err)
		}
		if um.IsCompleted || um.Mission == nil {
			return nil
		}

		completed = applyProgress(&um, um.Mission.RequiredCount, increment, s.Now())
		return saveProgress(tx, &um)
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.announceCompleted(ctx, []models.UserMission{um})
	}
	return &um, nil
}

// increment adds amount to the user's incomplete missions in the given
// categories. A nil category list matches every category.
func (s *MissionService) increment(ctx context.Context, userID uuid.UUID, categories []models.MissionCategory, amount int) ([]models.UserMission, error) {
	now := s.Now()
	var (
		updated   []models.UserMission
		completed []models.UserMission
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "user_missions"}}).
			Joins("JOIN missions ON missions.id = user_missions.mission_id").
			Where("user_missions.user_id = ? AND user_missions.is_completed = ?", userID, false).
			Where("missions.is_active = ? AND missions.end_date > ?", true, now)
		if categories != nil {
			q = q.Where("missions.category IN ?", categories)
		}

		var rows []models.UserMission
		if err := q.Preload("Mission").Find(&rows).Error; err != nil {
			return fmt.Errorf("load user missions: %w", err)
		}

		for i := range rows {
			um := &rows[i]
			if um.Mission == nil {
				continue
			}
			if applyProgress(um, um.Mission.RequiredCount, amount, now) {
				completed = append(completed, *um)
			}
			if err := saveProgress(tx, um); err != nil {
				return err
			}
		}
		updated = rows
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(completed) > 0 {
		s.announceCompleted(ctx, completed)
	}
	return updated, nil
}

// applyProgress reports whether the mission just became completed.
func applyProgress(um *models.UserMission, required, amount int, now time.Time) bool {
	if um.IsCompleted {
		return false
	}
	um.Progress += amount
	if um.Progress >= required {
		um.IsCompleted = true
		um.CompletedAt = &now
		return true
	}
	return false
}

func saveProgress(tx *gorm.DB, um *models.UserMission) error {
	err := tx.Model(&models.UserMission{}).Where("id = ?", um.ID).Updates(map[string]interface{}{
		"progress":     um.Progress,
		"is_completed": um.IsCompleted,
		"completed_at": um.CompletedAt,
	}).Error
	if err != nil {
		return fmt.Errorf("save mission progress: %w", err)
	}
	return nil
}

func (s *MissionService) announceCompleted(ctx context.Context, missions []models.UserMission) {
	for _, um := range missions {
		payload := map[string]interface{}{
			"user_mission_id": um.ID,
			"mission_id":      um.MissionID,
			"title":           um.Mission.Title,
			"reward_type":     um.Mission.RewardType,
			"reward_amount":   um.Mission.RewardAmount,
		}
		log.Printf("✅ Mission %s completed by user %s", um.Mission.Code, um.UserID)

		if s.Realtime != nil {
			if err := s.Realtime.EmitToUser(um.UserID, models.NotificationMissionCompleted, payload); err != nil {
				log.Printf("🔥 Failed to emit mission completion to %s: %v", um.UserID, err)
			}
		}
		if s.Notifier != nil {
			msg := fmt.Sprintf("You completed \"%s\". Claim your reward!", um.Mission.Title)
			if err := s.Notifier.NotifyUser(ctx, um.UserID, models.NotificationMissionCompleted, "Mission completed", msg, payload); err != nil {
				log.Printf("🔥 Failed to store mission notification for %s: %v", um.UserID, err)
			}
		}
	}
}

// ClaimReward pays out a completed mission exactly once.
func (s *MissionService) ClaimReward(ctx context.Context, userID, missionID uuid.UUID) (*models.UserMission, error) {
	now := s.Now()
	var um models.UserMission

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND mission_id = ?", userID, missionID).
			First(&um).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMissionNotAssigned
		}
		if err != nil {
			return fmt.Errorf("load user mission: %w", err)
		}
		if !um.IsCompleted {
			return ErrMissionNotCompleted
		}
		if um.RewardClaimed {
			return ErrRewardAlreadyClaimed
		}

		var mission models.Mission
		err = tx.First(&mission, "id = ?", missionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMissionNotFound
		}
		if err != nil {
			return fmt.Errorf("load mission: %w", err)
		}

		res := tx.Model(&models.UserMission{}).
			Where("id = ? AND reward_claimed = ?", um.ID, false).
			Updates(map[string]interface{}{"reward_claimed": true, "claimed_at": now})
		if res.Error != nil {
			return fmt.Errorf("mark reward claimed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRewardAlreadyClaimed
		}

		if mission.RewardType == models.RewardCoins && mission.RewardAmount > 0 {
			res := tx.Model(&models.User{}).Where("id = ?", userID).
				Update("xavicoins", gorm.Expr("xavicoins + ?", mission.RewardAmount))
			if res.Error != nil {
				return fmt.Errorf("grant mission reward: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}

		um.RewardClaimed = true
		um.ClaimedAt = &now
		um.Mission = &mission
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ User %s claimed mission %s (%s %d)", userID, missionID, um.Mission.RewardType, um.Mission.RewardAmount)
	return &um, nil
}

// ListUserMissions assigns current missions and returns every mission of the user.
func (s *MissionService) ListUserMissions(ctx context.Context, userID uuid.UUID) ([]models.UserMission, error) {
	if _, err := s.AssignActiveMissions(ctx, userID); err != nil {
		return nil, err
	}

	var rows []models.UserMission
	err := s.DB.WithContext(ctx).
		Joins("JOIN missions ON missions.id = user_missions.mission_id").
		Where("user_missions.user_id = ?", userID).
		Where("missions.is_active = ? OR (user_missions.is_completed = ? AND user_missions.reward_claimed = ?)", true, true, false).
		Preload("Mission").
		Order("missions.end_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list user missions: %w", err)
	}
	return rows, nil
}
