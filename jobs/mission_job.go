package jobs

import (
	"context"
	"log"
	"time"
)

const jobTimeout = 2 * time.Minute

type MissionMaintainer interface {
	EnsureMissions(ctx context.Context, now time.Time) (int, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// GenerateMissions creates the catalog missions for the current periods.
func GenerateMissions(m MissionMaintainer) func() {
	return func() {
		log.Println("Running job: GenerateMissions...")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, err := m.EnsureMissions(ctx, time.Now().UTC()); err != nil {
			log.Printf("🔥 Error generating missions: %v", err)
		}
	}
}

// ExpireMissions switches off missions whose period is over.
func ExpireMissions(m MissionMaintainer) func() {
	return func() {
		log.Println("Running job: ExpireMissions...")
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		n, err := m.DeactivateExpired(ctx, time.Now().UTC())
		if err != nil {
			log.Printf("🔥 Error expiring missions: %v", err)
			return
		}
		if n == 0 {
			log.Println("No expired missions found.")
		}
	}
}
