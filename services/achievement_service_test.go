package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavicoins/progression/database"
	"github.com/xavicoins/progression/models"
)

func achievementProgress(t *testing.T, svc *AchievementService, code string, userID interface{}) models.UserAchievement {
	t.Helper()
	var ua models.UserAchievement
	require.NoError(t, svc.DB.
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("achievements.code = ? AND user_achievements.user_id = ?", code, userID).
		First(&ua).Error)
	return ua
}

func TestNotifyActionProgressesMatchingAchievements(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.SeedAchievements(db))
	rt := &fakeRealtime{}
	svc := NewAchievementService(db, rt, NewNotificationService(db, rt, nil, newInlineTasks()))
	svc.Now = fixedClock(testNow)
	user := newUser(t, db, "Ana")

	ev := ActionEvent{UserID: user.ID, ActivityType: models.ActionMathActivity, MathTopic: "algebra", XavicoinsEarned: 120}
	require.NoError(t, svc.NotifyAction(context.Background(), ev))

	first := achievementProgress(t, svc, "first-activity", user.ID)
	assert.True(t, first.IsUnlocked)
	require.NotNil(t, first.UnlockedAt)

	algebra := achievementProgress(t, svc, "algebra-specialist", user.ID)
	assert.EqualValues(t, 1, algebra.Progress)
	assert.False(t, algebra.IsUnlocked)

	coins := achievementProgress(t, svc, "coin-collector", user.ID)
	assert.EqualValues(t, 120, coins.Progress)

	var geometry int64
	require.NoError(t, db.Model(&models.UserAchievement{}).
		Joins("JOIN achievements ON achievements.id = user_achievements.achievement_id").
		Where("achievements.code = ?", "geometry-specialist").
		Count(&geometry).Error)
	assert.Zero(t, geometry)

	assert.Equal(t, 1, rt.eventsFor(user.ID, models.NotificationAchievementUnlocked))

	var stored int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", user.ID, models.NotificationAchievementUnlocked).
		Count(&stored).Error)
	assert.EqualValues(t, 1, stored)
}

func TestNotifyActionUnlocksOnce(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.SeedAchievements(db))
	rt := &fakeRealtime{}
	svc := NewAchievementService(db, rt, nil)
	user := newUser(t, db, "Ana")

	ev := ActionEvent{UserID: user.ID, ActivityType: models.ActionMathActivity, MathTopic: "geometry", XavicoinsEarned: 300}
	for i := 0; i < 5; i++ {
		require.NoError(t, svc.NotifyAction(context.Background(), ev))
	}

	assert.True(t, achievementProgress(t, svc, "geometry-specialist", user.ID).IsUnlocked)
	assert.True(t, achievementProgress(t, svc, "coin-collector", user.ID).IsUnlocked)
	// first-activity, geometry-specialist and coin-collector
	assert.Equal(t, 3, rt.eventsFor(user.ID, models.NotificationAchievementUnlocked))

	// unlocked rows stop moving
	assert.EqualValues(t, 600, achievementProgress(t, svc, "coin-collector", user.ID).Progress)
	assert.EqualValues(t, 1, achievementProgress(t, svc, "first-activity", user.ID).Progress)
}

func TestNotifyActionIgnoresUnknownActions(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.SeedAchievements(db))
	svc := NewAchievementService(db, &fakeRealtime{}, nil)
	user := newUser(t, db, "Ana")

	require.NoError(t, svc.NotifyAction(context.Background(), ActionEvent{UserID: user.ID, ActivityType: "chess_match"}))

	rows, err := svc.ListForUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListAchievementsForUser(t *testing.T) {
	db := openDB(t)
	require.NoError(t, database.SeedAchievements(db))
	svc := NewAchievementService(db, nil, nil)
	user := newUser(t, db, "Ana")

	require.NoError(t, svc.NotifyAction(context.Background(), ActionEvent{UserID: user.ID, ActivityType: models.ActionMathActivity}))

	rows, err := svc.ListForUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].IsUnlocked)
	require.NotNil(t, rows[0].Achievement)
	assert.Equal(t, "first-activity", rows[0].Achievement.Code)
}
