package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/edgard/npcbot/internal/world"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "..."},
		{"héllo wörld", 8, "héllo..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestEventMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "info", true)

	called := 0
	handler := EventMiddleware(log)(func(ctx context.Context, ev world.Event) { called++ })

	handler(context.Background(), world.Event{
		Kind:    world.EventPlayerChats,
		Context: world.EventContext{PlayerID: "p1"},
		Chat:    &world.PlayerChats{SenderID: "p1", Contents: "hello"},
	})
	handler(context.Background(), world.Event{
		Kind:    world.EventPlayerMoves,
		Context: world.EventContext{PlayerID: "p1"},
		Moves:   &world.PlayerMoves{MapID: "room-7"},
	})

	if called != 2 {
		t.Errorf("next called %d times, want 2", called)
	}
	out := buf.String()
	if !strings.Contains(out, `"event":"playerChats"`) || !strings.Contains(out, `"text_preview":"hello"`) {
		t.Errorf("chat event not logged: %s", out)
	}
	if strings.Contains(out, "room-7") {
		t.Errorf("movement logged at info level: %s", out)
	}
}
