package tasks

import (
	"context"
	"log/slog"
	"time"
)

// ScheduledTaskFunc defines the standard signature for all scheduled tasks.
// The context provided by the scheduler should be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Task names, matching the keys of the scheduler.tasks configuration section.
const (
	ConversationEviction = "conversation_eviction"
	TranscriptRetention  = "transcript_retention"
	SQLMaintenance       = "sql_maintenance"
)

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks keyed by name. Tasks whose dependency is missing are left out.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)
	add := func(name string, fn ScheduledTaskFunc) {
		tasks[name] = timed(deps.Logger.With("task", name), fn)
	}

	if deps.Evictor != nil {
		add(ConversationEviction, newConversationEvictionTask(deps))
	}
	if deps.Store != nil {
		add(TranscriptRetention, newTranscriptRetentionTask(deps))
		add(SQLMaintenance, newSQLMaintenanceTask(deps))
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// timed logs the duration and outcome of every run of fn.
func timed(log *slog.Logger, fn ScheduledTaskFunc) ScheduledTaskFunc {
	return func(ctx context.Context) error {
		start := time.Now()
		err := fn(ctx)
		if err != nil {
			log.ErrorContext(ctx, "Scheduled task failed", "error", err, "duration", time.Since(start))
			return err
		}
		log.DebugContext(ctx, "Scheduled task finished", "duration", time.Since(start))
		return nil
	}
}
