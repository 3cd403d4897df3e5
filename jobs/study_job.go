package jobs

import (
	"context"
	"log"
	"time"
)

type StaleSessionSweeper interface {
	SweepStale(ctx context.Context, maxAge time.Duration) (int64, error)
}

// SweepStudySessions cancels study sessions abandoned for longer than maxAge.
func SweepStudySessions(s StaleSessionSweeper, maxAge time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		if _, err := s.SweepStale(ctx, maxAge); err != nil {
			log.Printf("🔥 Error sweeping study sessions: %v", err)
		}
	}
}
