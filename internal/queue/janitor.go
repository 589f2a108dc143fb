package queue

import (
	"context"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"
)

// StartJanitor runs the periodic cleanup of old terminal jobs until the
// context is cancelled.
func (q *Queue) StartJanitor(ctx context.Context) {
	go func() {
		ticker := jitterbug.New(q.cleanupInterval, &jitterbug.Norm{Stdev: time.Minute, Mean: 0})
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-q.retention)
				if removed := q.RemoveFinished(cutoff); removed > 0 {
					zap.S().Named("job_queue").Infof("janitor removed %d finished jobs", removed)
				}
			case <-ctx.Done():
				zap.S().Named("job_queue").Info("janitor stopped")
				return
			}
		}
	}()
}
