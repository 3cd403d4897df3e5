package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMissions struct {
	ensured, expired int
	err              error
}

func (f *fakeMissions) EnsureMissions(ctx context.Context, now time.Time) (int, error) {
	f.ensured++
	return 0, f.err
}

func (f *fakeMissions) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	f.expired++
	return 0, f.err
}

type fakeSweeper struct{ maxAge time.Duration }

func (f *fakeSweeper) SweepStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	f.maxAge = maxAge
	return 1, nil
}

func TestJobsCallServices(t *testing.T) {
	m := &fakeMissions{}
	s := &fakeSweeper{}

	GenerateMissions(m)()
	ExpireMissions(m)()
	SweepStudySessions(s, 3*time.Hour)()

	assert.Equal(t, 1, m.ensured)
	assert.Equal(t, 1, m.expired)
	assert.Equal(t, 3*time.Hour, s.maxAge)

	// failures are logged, not propagated
	m.err = errors.New("db down")
	assert.NotPanics(t, GenerateMissions(m))
	assert.NotPanics(t, ExpireMissions(m))
}

func TestRegister(t *testing.T) {
	c := cron.New()
	err := Register(c, Schedule{
		GenerateMissionsSpec: "5 0 * * *",
		ExpireMissionsSpec:   "*/10 * * * *",
		StudySweepSpec:       "",
	}, &fakeMissions{}, &fakeSweeper{})
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 2)

	err = Register(cron.New(), Schedule{GenerateMissionsSpec: "not a spec"}, &fakeMissions{}, &fakeSweeper{})
	assert.ErrorContains(t, err, "generate missions")
}
