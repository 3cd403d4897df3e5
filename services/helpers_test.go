package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xavicoins/progression/database/dbtest"
	"github.com/xavicoins/progression/models"
	"github.com/xavicoins/progression/tasks"
	"gorm.io/gorm"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type emitted struct {
	UserID  uuid.UUID
	Event   string
	Payload interface{}
}

type fakeRealtime struct {
	mu         sync.Mutex
	broadcasts []emitted
	unicasts   []emitted
	err        error
}

func (f *fakeRealtime) Broadcast(event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.broadcasts = append(f.broadcasts, emitted{Event: event, Payload: payload})
	return nil
}

func (f *fakeRealtime) EmitToUser(userID uuid.UUID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.unicasts = append(f.unicasts, emitted{UserID: userID, Event: event, Payload: payload})
	return nil
}

func (f *fakeRealtime) eventsFor(userID uuid.UUID, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.unicasts {
		if e.UserID == userID && e.Event == event {
			n++
		}
	}
	return n
}

// inlineTasks runs submitted tasks immediately and remembers their outcome.
type inlineTasks struct {
	mu     sync.Mutex
	names  []string
	errors map[string]error
}

func newInlineTasks() *inlineTasks {
	return &inlineTasks{errors: make(map[string]error)}
}

func (i *inlineTasks) Submit(name string, fn tasks.Task) bool {
	err := fn(context.Background())
	i.mu.Lock()
	defer i.mu.Unlock()
	i.names = append(i.names, name)
	if err != nil {
		i.errors[name] = err
	}
	return true
}

func (i *inlineTasks) submitted() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.names...)
}

type failingGranter struct{}

func (failingGranter) GrantExperience(tx *gorm.DB, userID uuid.UUID, difficulty int) error {
	return errors.New("level service unavailable")
}

func newUser(t *testing.T, db *gorm.DB, name string) models.User {
	t.Helper()
	u := models.User{FullName: name, Email: uuid.NewString() + "@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func reloadUser(t *testing.T, db *gorm.DB, id uuid.UUID) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, db.First(&u, "id = ?", id).Error)
	return u
}

func newActivity(t *testing.T, db *gorm.DB, coins int64, difficulty int, topic string) models.Activity {
	t.Helper()
	a := models.Activity{Title: "Activity " + topic, MathTopic: topic, Xavicoins: coins, Difficulty: difficulty, CreatedByID: uuid.New()}
	require.NoError(t, db.Create(&a).Error)
	return a
}

func newEvidence(t *testing.T, db *gorm.DB, studentID, activityID uuid.UUID) models.Evidence {
	t.Helper()
	e := models.Evidence{StudentID: studentID, ActivityID: activityID, Status: models.EvidencePending}
	require.NoError(t, db.Create(&e).Error)
	return e
}

func newMission(t *testing.T, db *gorm.DB, category models.MissionCategory, required int, reward models.RewardType, amount int64) models.Mission {
	t.Helper()
	m := models.Mission{
		Code:          uuid.NewString(),
		Title:         string(category),
		Type:          models.MissionDaily,
		Category:      category,
		RequiredCount: required,
		RewardType:    reward,
		RewardAmount:  amount,
		IsActive:      true,
		StartDate:     testNow.Add(-time.Hour),
		EndDate:       testNow.Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func userMission(t *testing.T, db *gorm.DB, userID, missionID uuid.UUID) models.UserMission {
	t.Helper()
	var um models.UserMission
	require.NoError(t, db.First(&um, "user_id = ? AND mission_id = ?", userID, missionID).Error)
	return um
}

func openDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}
