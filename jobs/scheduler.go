package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type Schedule struct {
	GenerateMissionsSpec string
	ExpireMissionsSpec   string
	StudySweepSpec       string
	StudyMaxSessionAge   time.Duration
}

// Register adds every maintenance job to c. Empty specs are skipped.
func Register(c *cron.Cron, s Schedule, missions MissionMaintainer, study StaleSessionSweeper) error {
	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"generate missions", s.GenerateMissionsSpec, GenerateMissions(missions)},
		{"expire missions", s.ExpireMissionsSpec, ExpireMissions(missions)},
		{"sweep study sessions", s.StudySweepSpec, SweepStudySessions(study, s.StudyMaxSessionAge)},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := c.AddFunc(e.spec, e.fn); err != nil {
			return fmt.Errorf("schedule %s: %w", e.name, err)
		}
	}
	return nil
}
