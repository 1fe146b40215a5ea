package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/database"
)

type fakeStore struct {
	database.Store
	cutoff         time.Time
	deleteErr      error
	maintenanceErr error
	maintenance    int
}

func (f *fakeStore) DeleteMessagesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 3, f.deleteErr
}

func (f *fakeStore) RunSQLMaintenance(context.Context) error {
	f.maintenance++
	return f.maintenanceErr
}

type fakeEvictor struct{ calls int }

func (f *fakeEvictor) EvictIdle() int {
	f.calls++
	return 2
}

func newDeps(store database.Store, evictor Evictor, retention time.Duration) TaskDeps {
	return TaskDeps{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Store:   store,
		Evictor: evictor,
		Config:  &config.Config{Database: config.DatabaseConfig{Retention: retention}},
	}
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		deps    TaskDeps
		want    []string
		wantNot []string
	}{
		{
			name: "all dependencies",
			deps: newDeps(&fakeStore{}, &fakeEvictor{}, time.Hour),
			want: []string{ConversationEviction, TranscriptRetention, SQLMaintenance},
		},
		{
			name:    "no store",
			deps:    newDeps(nil, &fakeEvictor{}, time.Hour),
			want:    []string{ConversationEviction},
			wantNot: []string{TranscriptRetention, SQLMaintenance},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tasks := RegisterAllTasks(tt.deps)
			for _, name := range tt.want {
				if _, ok := tasks[name]; !ok {
					t.Errorf("task %s not registered", name)
				}
			}
			for _, name := range tt.wantNot {
				if _, ok := tasks[name]; ok {
					t.Errorf("task %s registered without its dependency", name)
				}
			}
		})
	}
}

func TestConversationEvictionTask(t *testing.T) {
	t.Parallel()

	evictor := &fakeEvictor{}
	task := RegisterAllTasks(newDeps(nil, evictor, 0))[ConversationEviction]
	if err := task(context.Background()); err != nil {
		t.Fatalf("task() unexpected error: %v", err)
	}
	if evictor.calls != 1 {
		t.Errorf("EvictIdle calls = %d, want 1", evictor.calls)
	}
}

func TestTranscriptRetentionTask(t *testing.T) {
	t.Parallel()

	t.Run("deletes before cutoff", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		task := newTranscriptRetentionTask(newDeps(store, nil, 24*time.Hour))

		before := time.Now().Add(-24 * time.Hour)
		if err := task(context.Background()); err != nil {
			t.Fatalf("task() unexpected error: %v", err)
		}
		if store.cutoff.Before(before) || store.cutoff.After(time.Now().Add(-24*time.Hour)) {
			t.Errorf("cutoff = %v, want about 24h ago", store.cutoff)
		}
	})

	t.Run("disabled retention", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{}
		task := newTranscriptRetentionTask(newDeps(store, nil, 0))
		if err := task(context.Background()); err != nil {
			t.Fatalf("task() unexpected error: %v", err)
		}
		if !store.cutoff.IsZero() {
			t.Error("store called with retention disabled")
		}
	})

	t.Run("store error", func(t *testing.T) {
		t.Parallel()
		store := &fakeStore{deleteErr: errors.New("disk full")}
		task := newTranscriptRetentionTask(newDeps(store, nil, time.Hour))
		if err := task(context.Background()); err == nil {
			t.Error("task() expected error")
		}
	})
}

func TestSQLMaintenanceTask(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	task := newSQLMaintenanceTask(newDeps(store, nil, time.Hour))
	if err := task(context.Background()); err != nil {
		t.Fatalf("task() unexpected error: %v", err)
	}

	store.maintenanceErr = errors.New("database is locked")
	if err := task(context.Background()); err == nil {
		t.Error("task() expected error")
	}
	if store.maintenance != 2 {
		t.Errorf("maintenance calls = %d, want 2", store.maintenance)
	}
}
