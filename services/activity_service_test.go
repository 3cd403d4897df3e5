package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavicoins/progression/models"
)

type recordingFanOut struct{ activities []models.Activity }

func (r *recordingFanOut) FanOutActivityCreated(a *models.Activity) {
	r.activities = append(r.activities, *a)
}

func TestCreateActivityFansOut(t *testing.T) {
	db := openDB(t)
	fanOut := &recordingFanOut{}
	svc := NewActivityService(db, fanOut)
	professor := uuid.New()

	got, err := svc.Create(context.Background(), professor, CreateActivityInput{
		Title:      "Linear equations",
		MathTopic:  "algebra",
		Xavicoins:  25,
		Difficulty: models.DifficultyMedium,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, professor, got.CreatedByID)

	require.Len(t, fanOut.activities, 1)
	assert.Equal(t, got.ID, fanOut.activities[0].ID)
}

func TestSubmitEvidenceOncePerActivity(t *testing.T) {
	db := openDB(t)
	svc := NewActivityService(db, nil)
	student := newUser(t, db, "Ana")
	activity := newActivity(t, db, 10, models.DifficultyEasy, "algebra")

	ev, err := svc.SubmitEvidence(context.Background(), student.ID, activity.ID, "https://res.cloudinary.com/demo/a.png", "done")
	require.NoError(t, err)
	assert.Equal(t, models.EvidencePending, ev.Status)

	_, err = svc.SubmitEvidence(context.Background(), student.ID, activity.ID, "https://res.cloudinary.com/demo/b.png", "again")
	assert.ErrorIs(t, err, ErrEvidenceAlreadySubmitted)

	_, err = svc.SubmitEvidence(context.Background(), student.ID, uuid.New(), "", "")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestListEvidencesFiltersByStatus(t *testing.T) {
	db := openDB(t)
	svc := NewActivityService(db, nil)
	activity := newActivity(t, db, 10, models.DifficultyEasy, "algebra")
	ana := newUser(t, db, "Ana")
	bob := newUser(t, db, "Bob")
	newEvidence(t, db, ana.ID, activity.ID)
	reviewed := newEvidence(t, db, bob.ID, activity.ID)
	require.NoError(t, db.Model(&reviewed).Update("status", models.EvidenceRejected).Error)

	all, err := svc.ListEvidences(context.Background(), activity.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.ListEvidences(context.Background(), activity.ID, models.EvidencePending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Student)
	assert.Equal(t, "Ana", pending[0].Student.FullName)

	_, err = svc.ListEvidences(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrActivityNotFound)
}
