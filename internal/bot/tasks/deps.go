// Package tasks implements the scheduled background jobs: idle conversation
// eviction, transcript retention and SQLite maintenance.
package tasks

import (
	"log/slog"

	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/database"
)

// Evictor removes idle conversations and reports how many were removed.
type Evictor interface {
	EvictIdle() int
}

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Evictor Evictor
	Config  *config.Config
}
