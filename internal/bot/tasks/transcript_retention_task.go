package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const retentionTimeout = 5 * time.Minute

// newTranscriptRetentionTask deletes archived messages older than the
// configured retention window.
func newTranscriptRetentionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", TranscriptRetention)

	return func(ctx context.Context) error {
		retention := deps.Config.Database.Retention
		if retention <= 0 {
			log.InfoContext(ctx, "Transcript retention disabled, skipping")
			return nil
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, retentionTimeout)
		defer cancel()

		cutoff := time.Now().Add(-retention)
		deleted, err := deps.Store.DeleteMessagesBefore(timeoutCtx, cutoff)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.WarnContext(ctx, "Transcript retention timed out or was cancelled", "error", err)
			return fmt.Errorf("transcript retention timed out or was cancelled: %w", err)
		}
		if err != nil {
			return fmt.Errorf("transcript retention failed: %w", err)
		}

		log.InfoContext(ctx, "Transcript retention completed", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
		return nil
	}
}
