package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/xavicoins/progression/models"
	"github.com/xavicoins/progression/notifications"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const notificationBatchSize = 500

type NotificationService struct {
	DB       *gorm.DB
	Realtime Realtime
	Push     notifications.Sender
	Tasks    Submitter
}

func NewNotificationService(db *gorm.DB, rt Realtime, push notifications.Sender, tasks Submitter) *NotificationService {
	return &NotificationService{DB: db, Realtime: rt, Push: push, Tasks: tasks}
}

func activityPayload(a *models.Activity) map[string]interface{} {
	return map[string]interface{}{
		"activity_id": a.ID,
		"title":       a.Title,
		"math_topic":  a.MathTopic,
		"xavicoins":   a.Xavicoins,
		"difficulty":  a.Difficulty,
	}
}

// FanOutActivityCreated schedules the realtime, stored and push deliveries
// for a new activity. Each channel runs as its own task so one failing
// channel never blocks the others.
func (s *NotificationService) FanOutActivityCreated(activity *models.Activity) {
	a := *activity
	s.Tasks.Submit("fanout.broadcast", func(ctx context.Context) error {
		return s.BroadcastActivity(ctx, &a)
	})
	s.Tasks.Submit("fanout.persist", func(ctx context.Context) error {
		return s.PersistActivity(ctx, &a)
	})
	s.Tasks.Submit("fanout.push", func(ctx context.Context) error {
		return s.PushActivity(ctx, &a)
	})
}

func (s *NotificationService) BroadcastActivity(ctx context.Context, a *models.Activity) error {
	if err := s.Realtime.Broadcast(models.NotificationActivityCreated, activityPayload(a)); err != nil {
		return fmt.Errorf("%w: broadcast activity %s: %v", ErrTransientDelivery, a.ID, err)
	}
	return nil
}

// PersistActivity writes one notification per user so offline users see it later.
func (s *NotificationService) PersistActivity(ctx context.Context, a *models.Activity) error {
	data, err := sonic.Marshal(activityPayload(a))
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	written := 0
	var users []models.User
	res := s.DB.WithContext(ctx).Model(&models.User{}).Select("id").
		FindInBatches(&users, notificationBatchSize, func(batch *gorm.DB, _ int) error {
			rows := make([]models.Notification, 0, len(users))
			for _, u := range users {
				userID := u.ID
				rows = append(rows, models.Notification{
					UserID:  &userID,
					Type:    models.NotificationActivityCreated,
					Title:   "New activity available",
					Message: a.Title,
					Data:    datatypes.JSON(data),
				})
			}
			if err := s.DB.WithContext(ctx).CreateInBatches(&rows, notificationBatchSize).Error; err != nil {
				return err
			}
			written += len(rows)
			return nil
		})
	if res.Error != nil {
		return fmt.Errorf("%w: persist notifications: %v", ErrTransientDelivery, res.Error)
	}

	log.Printf("✅ Stored %d notifications for activity %s", written, a.ID)
	return nil
}

func (s *NotificationService) PushActivity(ctx context.Context, a *models.Activity) error {
	if s.Push == nil {
		return nil
	}
	var tokens []string
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Where("push_token IS NOT NULL AND push_token <> ''").
		Pluck("push_token", &tokens).Error
	if err != nil {
		return fmt.Errorf("load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	res := notifications.SendAll(ctx, s.Push, tokens, notifications.Message{
		Title: "New activity available",
		Body:  a.Title,
		Data:  activityPayload(a),
	})
	if res.Failed > 0 {
		return fmt.Errorf("%w: %d of %d push chunks failed", ErrTransientDelivery, res.Failed, res.Chunks)
	}
	log.Printf("✅ Pushed activity %s in %d chunks", a.ID, res.Chunks)
	return nil
}

// NotifyUser stores a personal notification.
func (s *NotificationService) NotifyUser(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]interface{}) error {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode notification data: %w", err)
	}

	n := models.Notification{
		UserID:  &userID,
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    datatypes.JSON(raw),
	}
	if err := s.DB.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("%w: store notification: %v", ErrTransientDelivery, err)
	}
	return nil
}

// ListForUser returns the user's own and global notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := s.DB.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? OR user_id IS NULL", userID).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	var rows []models.Notification
	err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	return rows, total, nil
}

// MarkRead flips a notification to read. Only its owner may do so.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := s.DB.WithContext(ctx).First(&n, "id = ? AND user_id = ?", notificationID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load notification: %w", err)
	}
	if n.IsRead {
		return &n, nil
	}

	if err := s.DB.WithContext(ctx).Model(&n).Update("is_read", true).Error; err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.IsRead = true
	return &n, nil
}

// RegisterPushToken stores the device token. An empty token unregisters.
func (s *NotificationService) RegisterPushToken(ctx context.Context, userID uuid.UUID, token string) error {
	var value interface{}
	if token != "" {
		if !notifications.ValidToken(token) {
			return ErrInvalidPushToken
		}
		value = token
	}

	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("push_token", value)
	if res.Error != nil {
		return fmt.Errorf("save push token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
