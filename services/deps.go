package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"github.com/xavicoins/progression/tasks"
	"gorm.io/gorm"
)

// Realtime is the part of the websocket hub services publish to.
type Realtime interface {
	Broadcast(event string, payload interface{}) error
	EmitToUser(userID uuid.UUID, event string, payload interface{}) error
}

type Submitter interface {
	Submit(name string, fn tasks.Task) bool
}

// ExperienceGranter must run inside the caller's transaction.
type ExperienceGranter interface {
	GrantExperience(tx *gorm.DB, userID uuid.UUID, difficulty int) error
}

type ActionEvent struct {
	UserID          uuid.UUID `json:"user_id"`
	ActivityType    string    `json:"activity_type"`
	MathTopic       string    `json:"math_topic"`
	XavicoinsEarned int64     `json:"xavicoins_earned"`
}

type AchievementNotifier interface {
	NotifyAction(ctx context.Context, ev ActionEvent) error
}

type ActivityCompletionRecorder interface {
	RecordActivityCompletion(ctx context.Context, userID uuid.UUID) ([]models.UserMission, error)
}

type StudySessionRecorder interface {
	RecordStudySession(ctx context.Context, userID uuid.UUID, cardsStudied int) ([]models.UserMission, error)
}

type UserNotifier interface {
	NotifyUser(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]interface{}) error
}

type ActivityFanOut interface {
	FanOutActivityCreated(activity *models.Activity)
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
