package tasks

import (
	"context"
)

// newConversationEvictionTask drops conversations that have been idle for
// longer than the configured TTL.
func newConversationEvictionTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", ConversationEviction)

	return func(ctx context.Context) error {
		if evicted := deps.Evictor.EvictIdle(); evicted > 0 {
			log.InfoContext(ctx, "Idle conversations evicted", "evicted", evicted)
		}
		return nil
	}
}
