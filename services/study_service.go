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

// StudyReward is the fixed xavicoin payout for a finished study session.
// duration and goal are in minutes.
func StudyReward(duration, cardsStudied, goal int) int64 {
	var reward int64
	if duration >= 10 {
		reward += 10
	}
	if duration >= 20 {
		reward += 5
	}
	if duration >= 30 {
		reward += 15
	}
	if goal >= 20 && duration >= goal {
		reward += 10
	}
	if goal >= 30 && duration >= goal {
		reward += int64(goal / 5)
	}
	if cardsStudied > 0 {
		reward += int64(cardsStudied) * 2
	}
	return reward
}

type StudyService struct {
	DB       *gorm.DB
	Missions StudySessionRecorder
	Tasks    Submitter
	Now      func() time.Time
}

func NewStudyService(db *gorm.DB, missions StudySessionRecorder, tasks Submitter) *StudyService {
	return &StudyService{DB: db, Missions: missions, Tasks: tasks, Now: utcNow}
}

// Start opens a session. A user may only have one active session.
func (s *StudyService) Start(ctx context.Context, userID, deckID uuid.UUID, goalMinutes int) (*models.StudySession, error) {
	if goalMinutes < 0 {
		goalMinutes = 0
	}
	session := models.StudySession{
		UserID:      userID,
		DeckID:      deckID,
		StartTime:   s.Now(),
		SessionGoal: goalMinutes,
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialises concurrent starts for the same user.
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, "id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}

		var active int64
		if err := tx.Model(&models.StudySession{}).Where("user_id = ? AND is_completed = ?", userID, false).Count(&active).Error; err != nil {
			return fmt.Errorf("check active session: %w", err)
		}
		if active > 0 {
			return ErrActiveSessionExists
		}

		var decks int64
		if err := tx.Model(&models.Deck{}).Where("id = ?", deckID).Count(&decks).Error; err != nil {
			return fmt.Errorf("load deck: %w", err)
		}
		if decks == 0 {
			return ErrDeckNotFound
		}

		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Study session %s started for user %s", session.ID, userID)
	return &session, nil
}

func (s *StudyService) Active(ctx context.Context, userID uuid.UUID) (*models.StudySession, error) {
	var session models.StudySession
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND is_completed = ?", userID, false).
		Order("start_time DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load active session: %w", err)
	}
	return &session, nil
}

func (s *StudyService) Cards(ctx context.Context, deckID uuid.UUID) ([]models.Flashcard, error) {
	var deck models.Deck
	err := s.DB.WithContext(ctx).
		Preload("Cards", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&deck, "id = ?", deckID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load deck: %w", err)
	}
	return deck.Cards, nil
}

// RecordReview stores one card answer of an active session.
func (s *StudyService) RecordReview(ctx context.Context, userID, sessionID, cardID uuid.UUID, difficulty string) (*models.CardReview, error) {
	switch difficulty {
	case models.ReviewAgain, models.ReviewHard, models.ReviewGood, models.ReviewEasy:
	default:
		return nil, ErrInvalidDifficulty
	}

	if _, err := s.ownActive(s.DB.WithContext(ctx), userID, sessionID); err != nil {
		return nil, err
	}

	review := models.CardReview{
		SessionID:  sessionID,
		CardID:     cardID,
		UserID:     userID,
		Difficulty: difficulty,
		ReviewedAt: s.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&review).Error; err != nil {
		return nil, fmt.Errorf("record review: %w", err)
	}
	return &review, nil
}

// Finish closes the session and pays the reward. The duration comes from the
// server clock, never from the client.
func (s *StudyService) Finish(ctx context.Context, userID, sessionID uuid.UUID, cardsStudied int) (*models.StudySession, error) {
	end := s.Now()
	var session *models.StudySession

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = s.ownActive(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, sessionID)
		if err != nil {
			return err
		}

		var deckSize int64
		if err := tx.Model(&models.Flashcard{}).Where("deck_id = ?", session.DeckID).Count(&deckSize).Error; err != nil {
			return fmt.Errorf("count deck cards: %w", err)
		}
		if cardsStudied < 0 {
			cardsStudied = 0
		}
		if int64(cardsStudied) > deckSize {
			cardsStudied = int(deckSize)
		}

		duration := 0
		if end.After(session.StartTime) {
			duration = int(end.Sub(session.StartTime) / time.Minute)
		}
		reward := StudyReward(duration, cardsStudied, session.SessionGoal)

		if err := finalize(tx, session, end, duration, cardsStudied, reward, false); err != nil {
			return err
		}
		if reward > 0 {
			res := tx.Model(&models.User{}).Where("id = ?", userID).Update("xavicoins", gorm.Expr("xavicoins + ?", reward))
			if res.Error != nil {
				return fmt.Errorf("grant study reward: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return ErrUserNotFound
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Study session %s finished: %d min, %d cards, %d xavicoins", session.ID, session.Duration, session.CardsStudied, session.XavicoinsEarned)
	if s.Missions != nil && s.Tasks != nil {
		cards := session.CardsStudied
		s.Tasks.Submit("missions.study_session", func(ctx context.Context) error {
			_, err := s.Missions.RecordStudySession(ctx, userID, cards)
			return err
		})
	}
	return session, nil
}

// Cancel closes the session with zero reward. The row is kept for auditing.
func (s *StudyService) Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	end := s.Now()
	var session *models.StudySession

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		session, err = s.ownActive(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, sessionID)
		if err != nil {
			return err
		}
		return finalize(tx, session, end, 0, 0, 0, true)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Study session %s cancelled for user %s", session.ID, userID)
	return session, nil
}

// SweepStale cancels sessions that have been open longer than maxAge.
func (s *StudyService) SweepStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := s.Now()
	res := s.DB.WithContext(ctx).Model(&models.StudySession{}).
		Where("is_completed = ? AND start_time < ?", false, now.Add(-maxAge)).
		Updates(map[string]interface{}{
			"is_completed":     true,
			"cancelled":        true,
			"end_time":         now,
			"duration":         0,
			"cards_studied":    0,
			"xavicoins_earned": 0,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep stale sessions: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("⚠️ Cancelled %d stale study sessions", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

func (s *StudyService) ownActive(db *gorm.DB, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	var session models.StudySession
	err := db.First(&session, "id = ? AND user_id = ?", sessionID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.IsCompleted {
		return nil, ErrSessionNotActive
	}
	return &session, nil
}

func finalize(tx *gorm.DB, session *models.StudySession, end time.Time, duration, cards int, reward int64, cancelled bool) error {
	res := tx.Model(&models.StudySession{}).
		Where("id = ? AND is_completed = ?", session.ID, false).
		Updates(map[string]interface{}{
			"end_time":         end,
			"duration":         duration,
			"cards_studied":    cards,
			"xavicoins_earned": reward,
			"is_completed":     true,
			"cancelled":        cancelled,
		})
	if res.Error != nil {
		return fmt.Errorf("finalize session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotActive
	}

	session.EndTime = &end
	session.Duration = duration
	session.CardsStudied = cards
	session.XavicoinsEarned = reward
	session.IsCompleted = true
	session.Cancelled = cancelled
	return nil
}
