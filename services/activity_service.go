package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateActivityInput struct {
	Title       string
	Description string
	MathTopic   string
	Xavicoins   int64
	Difficulty  int
}

type ActivityService struct {
	DB     *gorm.DB
	FanOut ActivityFanOut
}

func NewActivityService(db *gorm.DB, fanOut ActivityFanOut) *ActivityService {
	return &ActivityService{DB: db, FanOut: fanOut}
}

// Create stores the activity and announces it to every user. Announcement
// failures never affect the returned activity.
func (s *ActivityService) Create(ctx context.Context, professorID uuid.UUID, in CreateActivityInput) (*models.Activity, error) {
	activity := models.Activity{
		Title:       in.Title,
		Description: in.Description,
		MathTopic:   in.MathTopic,
		Xavicoins:   in.Xavicoins,
		Difficulty:  in.Difficulty,
		CreatedByID: professorID,
	}
	if err := s.DB.WithContext(ctx).Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	log.Printf("✅ Activity %s created by %s", activity.ID, professorID)
	if s.FanOut != nil {
		s.FanOut.FanOutActivityCreated(&activity)
	}
	return &activity, nil
}

// SubmitEvidence records a pending submission. A student submits once per activity.
func (s *ActivityService) SubmitEvidence(ctx context.Context, studentID, activityID uuid.UUID, fileURL, comment string) (*models.Evidence, error) {
	db := s.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Activity{}).Where("id = ?", activityID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}
	if count == 0 {
		return nil, ErrActivityNotFound
	}

	evidence := models.Evidence{
		StudentID:  studentID,
		ActivityID: activityID,
		Status:     models.EvidencePending,
		FileURL:    fileURL,
		Comment:    comment,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "activity_id"}},
		DoNothing: true,
	}).Create(&evidence)
	if res.Error != nil {
		return nil, fmt.Errorf("submit evidence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrEvidenceAlreadySubmitted
	}
	return &evidence, nil
}

// ListEvidences returns an activity's submissions, optionally filtered by status.
func (s *ActivityService) ListEvidences(ctx context.Context, activityID uuid.UUID, status string) ([]models.Evidence, error) {
	var activity models.Activity
	err := s.DB.WithContext(ctx).Select("id").First(&activity, "id = ?", activityID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load activity: %w", err)
	}

	q := s.DB.WithContext(ctx).Preload("Student").Where("activity_id = ?", activityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.Evidence
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list evidences: %w", err)
	}
	return rows, nil
}
