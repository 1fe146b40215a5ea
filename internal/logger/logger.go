// Package logger provides structured logging for npcbot.
// It uses Go's slog package with configurable levels and formats.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/npcbot/internal/world"
)

// NewLogger creates a new slog Logger writing to stdout with the specified
// level and format, and installs it as the default logger.
// If jsonOutput is true, logs will be formatted as JSON, otherwise as text.
func NewLogger(levelStr string, jsonOutput bool) *slog.Logger {
	logger := New(os.Stdout, levelStr, jsonOutput)
	slog.SetDefault(logger)
	return logger
}

// New creates a slog Logger writing to w.
func New(w io.Writer, levelStr string, jsonOutput bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(levelStr),
	}

	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware creates a logging middleware for the Telegram operator console.
func Middleware(log *slog.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			startTime := time.Now()

			logEntry := log.With("update_id", update.ID)
			if update.Message != nil {
				var userID int64
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
				logEntry = logEntry.With(
					"update_type", "message",
					"message_id", update.Message.ID,
					"chat_id", update.Message.Chat.ID,
					"user_id", userID,
					"text_preview", truncateString(update.Message.Text, 50),
				)
			} else {
				logEntry = logEntry.With("update_type", "other")
			}

			logEntry.InfoContext(ctx, "Processing update")

			next(ctx, b, update)

			logEntry.InfoContext(ctx, "Finished processing update", "duration", time.Since(startTime))
		}
	}
}

// EventMiddleware creates a logging middleware for world events.
// Movement is logged at debug level since players emit it continuously.
func EventMiddleware(log *slog.Logger) world.Middleware {
	return func(next world.HandlerFunc) world.HandlerFunc {
		return func(ctx context.Context, ev world.Event) {
			startTime := time.Now()

			logEntry := log.With(
				"event", string(ev.Kind),
				"player_id", ev.Context.PlayerID,
				"is_npc", ev.Context.IsNPC,
			)
			switch {
			case ev.Chat != nil:
				logEntry = logEntry.With(
					"recipient_id", ev.Chat.RecipientID,
					"text_preview", truncateString(ev.Chat.Contents, 50),
				)
			case ev.Trigger != nil:
				logEntry = logEntry.With("object_id", ev.Trigger.ClosestObject)
			case ev.Moves != nil:
				logEntry = logEntry.With("map_id", ev.Moves.MapID)
			case ev.Connection != nil:
				logEntry = logEntry.With("connected", ev.Connection.Connected)
			}

			level := slog.LevelInfo
			if ev.Kind == world.EventPlayerMoves {
				level = slog.LevelDebug
			}
			logEntry.Log(ctx, level, "Processing event")

			next(ctx, ev)

			logEntry.Log(ctx, level, "Finished processing event", "duration", time.Since(startTime))
		}
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string(r[:maxLen-3]) + "..."
}
