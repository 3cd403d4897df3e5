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

// RewardService reviews evidence and grants the activity reward on approval.
type RewardService struct {
	DB           *gorm.DB
	Experience   ExperienceGranter
	Missions     ActivityCompletionRecorder
	Achievements AchievementNotifier
	Tasks        Submitter
	Now          func() time.Time
}

func NewRewardService(db *gorm.DB, exp ExperienceGranter, missions ActivityCompletionRecorder, achievements AchievementNotifier, tasks Submitter) *RewardService {
	return &RewardService{
		DB:           db,
		Experience:   exp,
		Missions:     missions,
		Achievements: achievements,
		Tasks:        tasks,
		Now:          utcNow,
	}
}

// ApproveOrReject moves a pending evidence to targetStatus. Approval grants
// xavicoins, completed activity count, streak and experience in the same
// transaction. Mission and achievement updates run after commit.
func (s *RewardService) ApproveOrReject(ctx context.Context, evidenceID uuid.UUID, targetStatus string, activityID uuid.UUID) (*models.Activity, error) {
	if targetStatus != models.EvidenceApproved && targetStatus != models.EvidenceRejected {
		return nil, ErrInvalidTargetStatus
	}

	now := s.Now()
	var (
		studentID uuid.UUID
		granted   models.Activity
		result    models.Activity
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var evidence models.Evidence
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&evidence, "id = ?", evidenceID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEvidenceNotFound
		}
		if err != nil {
			return fmt.Errorf("load evidence: %w", err)
		}
		if evidence.ActivityID != activityID {
			return ErrEvidenceActivityMismatch
		}

		res := tx.Model(&models.Evidence{}).
			Where("id = ? AND status = ?", evidence.ID, models.EvidencePending).
			Updates(map[string]interface{}{"status": targetStatus, "reviewed_at": now})
		if res.Error != nil {
			return fmt.Errorf("update evidence status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrEvidenceAlreadyReviewed
		}

		if targetStatus == models.EvidenceApproved {
			studentID = evidence.StudentID
			if err := s.grant(tx, evidence.StudentID, activityID, now, &granted); err != nil {
				return err
			}
		}

		err = tx.Preload("Evidences.Student").
			Preload("Evidences.Activity").
			First(&result, "id = ?", activityID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		if err != nil {
			return fmt.Errorf("reload activity: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Printf("🔥 Failed to review evidence %s: %v", evidenceID, err)
		return nil, err
	}

	log.Printf("✅ Evidence %s marked %s", evidenceID, targetStatus)
	if targetStatus == models.EvidenceApproved {
		s.afterGrant(studentID, granted)
	}
	return &result, nil
}

func (s *RewardService) grant(tx *gorm.DB, studentID, activityID uuid.UUID, now time.Time, activity *models.Activity) error {
	err := tx.First(activity, "id = ?", activityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrActivityNotFound
	}
	if err != nil {
		return fmt.Errorf("load activity: %w", err)
	}

	var student models.User
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "current_streak", "last_activity_date").
		First(&student, "id = ?", studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStudentNotFound
	}
	if err != nil {
		return fmt.Errorf("load student: %w", err)
	}

	today := startOfDay(now)
	err = tx.Model(&models.User{}).Where("id = ?", studentID).Updates(map[string]interface{}{
		"xavicoins":            gorm.Expr("xavicoins + ?", activity.Xavicoins),
		"completed_activities": gorm.Expr("completed_activities + ?", 1),
		"current_streak":       nextStreak(student.CurrentStreak, student.LastActivityDate, today),
		"last_activity_date":   today,
	}).Error
	if err != nil {
		return fmt.Errorf("grant xavicoins: %w", err)
	}

	return s.Experience.GrantExperience(tx, studentID, activity.Difficulty)
}

func (s *RewardService) afterGrant(studentID uuid.UUID, activity models.Activity) {
	if s.Tasks == nil {
		return
	}
	if s.Missions != nil {
		s.Tasks.Submit("missions.activity_completion", func(ctx context.Context) error {
			_, err := s.Missions.RecordActivityCompletion(ctx, studentID)
			return err
		})
	}
	if s.Achievements != nil {
		ev := ActionEvent{
			UserID:          studentID,
			ActivityType:    models.ActionMathActivity,
			MathTopic:       activity.MathTopic,
			XavicoinsEarned: activity.Xavicoins,
		}
		s.Tasks.Submit("achievements.notify_action", func(ctx context.Context) error {
			return s.Achievements.NotifyAction(ctx, ev)
		})
	}
}

// nextStreak counts consecutive days with at least one approved activity.
func nextStreak(current int, last *time.Time, today time.Time) int {
	if last == nil {
		return 1
	}
	lastDay := startOfDay(*last)
	switch {
	case lastDay.Equal(today):
		if current < 1 {
			return 1
		}
		return current
	case lastDay.AddDate(0, 0, 1).Equal(today):
		return current + 1
	default:
		return 1
	}
}
