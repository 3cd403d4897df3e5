package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavicoins/progression/models"
	"gorm.io/gorm"
)

func newMissionFixture(t *testing.T) (*MissionService, *fakeRealtime, *gorm.DB) {
	db := openDB(t)
	rt := &fakeRealtime{}
	svc := NewMissionService(db, rt, NewNotificationService(db, rt, nil, newInlineTasks()), false)
	svc.Now = fixedClock(testNow)
	return svc, rt, db
}

func TestAssignActiveMissionsIsIdempotent(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	first := newMission(t, db, models.CategoryActivityCompletion, 3, models.RewardCoins, 5)
	newMission(t, db, models.CategoryStudySession, 1, models.RewardCoins, 5)

	created, err := svc.AssignActiveMissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	// progress must survive a second assignment
	require.NoError(t, db.Model(&models.UserMission{}).
		Where("user_id = ? AND mission_id = ?", user.ID, first.ID).
		Update("progress", 2).Error)

	created, err = svc.AssignActiveMissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, 2, userMission(t, db, user.ID, first.ID).Progress)

	var count int64
	require.NoError(t, db.Model(&models.UserMission{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestAssignSkipsInactiveAndExpiredMissions(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	active := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)

	inactive := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)
	require.NoError(t, db.Model(&inactive).Update("is_active", false).Error)

	expired := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)
	require.NoError(t, db.Model(&expired).Update("end_date", testNow.Add(-time.Minute)).Error)

	created, err := svc.AssignActiveMissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Zero(t, userMission(t, db, user.ID, active.ID).Progress)
}

func TestAssignGeneratesCatalogWhenNoMissionsExist(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")

	created, err := svc.AssignActiveMissions(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, len(missionCatalog), created)
}

func TestRecordActivityCompletionCreditsOnlyMatchingMissions(t *testing.T) {
	svc, rt, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	activity := newMission(t, db, models.CategoryActivityCompletion, 2, models.RewardCoins, 5)
	study := newMission(t, db, models.CategoryStudySession, 1, models.RewardCoins, 5)

	updated, err := svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, 1, userMission(t, db, user.ID, activity.ID).Progress)
	assert.False(t, userMission(t, db, user.ID, activity.ID).IsCompleted)
	assert.Zero(t, userMission(t, db, user.ID, study.ID).Progress)
	assert.Zero(t, rt.eventsFor(user.ID, models.NotificationMissionCompleted))

	_, err = svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	um := userMission(t, db, user.ID, activity.ID)
	assert.Equal(t, 2, um.Progress)
	assert.True(t, um.IsCompleted)
	require.NotNil(t, um.CompletedAt)
	assert.Equal(t, 1, rt.eventsFor(user.ID, models.NotificationMissionCompleted))

	var stored int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", user.ID, models.NotificationMissionCompleted).
		Count(&stored).Error)
	assert.EqualValues(t, 1, stored)

	// completed missions no longer move
	_, err = svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, userMission(t, db, user.ID, activity.ID).Progress)
	assert.Equal(t, 1, rt.eventsFor(user.ID, models.NotificationMissionCompleted))
}

func TestRecordActivityCompletionFallback(t *testing.T) {
	tests := []struct {
		name     string
		fallback bool
		want     int
	}{
		{"disabled", false, 0},
		{"enabled", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, db := newMissionFixture(t)
			svc.FallbackAllOnNoMatch = tt.fallback
			user := newUser(t, db, "Ana")
			study := newMission(t, db, models.CategoryStudySession, 3, models.RewardCoins, 5)

			_, err := svc.RecordActivityCompletion(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, userMission(t, db, user.ID, study.ID).Progress)
		})
	}
}

func TestRecordStudySession(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	session := newMission(t, db, models.CategoryStudySession, 1, models.RewardCoins, 5)
	cards := newMission(t, db, models.CategoryCardsStudied, 50, models.RewardCoins, 25)
	activity := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)

	updated, err := svc.RecordStudySession(context.Background(), user.ID, 12)
	require.NoError(t, err)
	assert.Len(t, updated, 2)

	assert.True(t, userMission(t, db, user.ID, session.ID).IsCompleted)
	assert.Equal(t, 12, userMission(t, db, user.ID, cards.ID).Progress)
	assert.Zero(t, userMission(t, db, user.ID, activity.ID).Progress)

	_, err = svc.RecordStudySession(context.Background(), user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 12, userMission(t, db, user.ID, cards.ID).Progress)
}

func TestUpdateProgress(t *testing.T) {
	svc, rt, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	mission := newMission(t, db, models.CategoryGeneral, 3, models.RewardCoins, 5)

	_, err := svc.UpdateProgress(context.Background(), user.ID, mission.ID, 1)
	assert.ErrorIs(t, err, ErrMissionNotAssigned)

	_, err = svc.AssignActiveMissions(context.Background(), user.ID)
	require.NoError(t, err)

	_, err = svc.UpdateProgress(context.Background(), user.ID, mission.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidIncrement)

	um, err := svc.UpdateProgress(context.Background(), user.ID, mission.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, um.Progress)
	assert.True(t, um.IsCompleted)
	assert.Equal(t, 1, rt.eventsFor(user.ID, models.NotificationMissionCompleted))

	um, err = svc.UpdateProgress(context.Background(), user.ID, mission.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, um.Progress)
	assert.Equal(t, 1, rt.eventsFor(user.ID, models.NotificationMissionCompleted))
}

func TestClaimReward(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	mission := newMission(t, db, models.CategoryActivityCompletion, 2, models.RewardCoins, 30)

	_, err := svc.ClaimReward(context.Background(), user.ID, mission.ID)
	assert.ErrorIs(t, err, ErrMissionNotAssigned)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	_, err = svc.ClaimReward(context.Background(), user.ID, mission.ID)
	assert.ErrorIs(t, err, ErrMissionNotCompleted)
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)

	um, err := svc.ClaimReward(context.Background(), user.ID, mission.ID)
	require.NoError(t, err)
	assert.True(t, um.RewardClaimed)
	require.NotNil(t, um.ClaimedAt)
	require.NotNil(t, um.Mission)
	assert.EqualValues(t, 30, reloadUser(t, db, user.ID).Xavicoins)

	_, err = svc.ClaimReward(context.Background(), user.ID, mission.ID)
	assert.ErrorIs(t, err, ErrRewardAlreadyClaimed)
	assert.EqualValues(t, 30, reloadUser(t, db, user.ID).Xavicoins)
}

func TestClaimBadgeRewardDoesNotCredit(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	mission := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardBadge, 1)

	_, err := svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)

	um, err := svc.ClaimReward(context.Background(), user.ID, mission.ID)
	require.NoError(t, err)
	assert.True(t, um.RewardClaimed)
	assert.Zero(t, reloadUser(t, db, user.ID).Xavicoins)
}

func TestListUserMissionsKeepsUnclaimedExpired(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	user := newUser(t, db, "Ana")
	current := newMission(t, db, models.CategoryStudySession, 1, models.RewardCoins, 5)
	done := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)
	stale := newMission(t, db, models.CategoryCardsStudied, 10, models.RewardCoins, 5)

	_, err := svc.RecordActivityCompletion(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Mission{}).
		Where("id IN ?", []interface{}{done.ID, stale.ID}).
		Update("is_active", false).Error)

	rows, err := svc.ListUserMissions(context.Background(), user.ID)
	require.NoError(t, err)

	ids := make(map[interface{}]bool)
	for _, r := range rows {
		require.NotNil(t, r.Mission)
		ids[r.MissionID] = true
	}
	assert.Len(t, rows, 2)
	assert.True(t, ids[current.ID])
	assert.True(t, ids[done.ID])
	assert.False(t, ids[stale.ID])
}

func TestDeactivateExpired(t *testing.T) {
	svc, _, db := newMissionFixture(t)
	live := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)
	old := newMission(t, db, models.CategoryActivityCompletion, 1, models.RewardCoins, 5)
	require.NoError(t, db.Model(&old).Update("end_date", testNow.Add(-time.Hour)).Error)

	n, err := svc.DeactivateExpired(context.Background(), testNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var expired, current models.Mission
	require.NoError(t, db.First(&expired, "id = ?", old.ID).Error)
	assert.False(t, expired.IsActive)
	require.NoError(t, db.First(&current, "id = ?", live.ID).Error)
	assert.True(t, current.IsActive)
}

func TestEnsureMissionsIsIdempotent(t *testing.T) {
	svc, _, db := newMissionFixture(t)

	n, err := svc.EnsureMissions(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, len(missionCatalog), n)

	n, err = svc.EnsureMissions(context.Background(), testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	// a new day only adds the daily missions
	n, err = svc.EnsureMissions(context.Background(), testNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var count int64
	require.NoError(t, db.Model(&models.Mission{}).Count(&count).Error)
	assert.EqualValues(t, len(missionCatalog)+2, count)
}

func TestMissionWindow(t *testing.T) {
	// testNow is Friday 2026-10-16
	tests := []struct {
		kind  models.MissionType
		start time.Time
		end   time.Time
		key   string
	}{
		{models.MissionDaily, time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), "2026-10-16"},
		{models.MissionWeekly, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), "2026-w42"},
		{models.MissionSpecial, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), "2026-10"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			start, end, key := missionWindow(tt.kind, testNow)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.key, key)
		})
	}
}
