package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Store defines the transcript archive operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a transcript record and sets its ID.
	SaveMessage(ctx context.Context, message *TranscriptMessage) error

	// GetRecentMessages returns the most recent 'limit' messages exchanged
	// between an NPC and a player, oldest first.
	GetRecentMessages(ctx context.Context, npcID, playerID string, limit int) ([]TranscriptMessage, error)

	// DeleteMessagesBefore removes records created before cutoff and returns
	// how many were deleted.
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts a transcript record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *TranscriptMessage) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.NPCID == "" {
		return fmt.Errorf("message must have a non-empty npc_id")
	}
	if message.PlayerID == "" {
		return fmt.Errorf("message must have a non-empty player_id")
	}
	if message.Role == "" {
		return fmt.Errorf("message must have a non-empty role")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	message.CreatedAt = message.CreatedAt.UTC()

	query := `
        INSERT INTO transcript_messages (npc_id, player_id, role, content, map_id, created_at)
        VALUES (:npc_id, :player_id, :role, :content, :map_id, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving transcript message",
			"npc_id", message.NPCID, "player_id", message.PlayerID, "error", err)
		return fmt.Errorf("failed to save message (npc %s, player %s): %w", message.NPCID, message.PlayerID, err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		message.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"npc_id", message.NPCID, "player_id", message.PlayerID, "error", err)
	}

	s.logger.DebugContext(ctx, "Transcript message saved",
		"npc_id", message.NPCID, "player_id", message.PlayerID, "message_id", message.ID)
	return nil
}

// GetRecentMessages returns the most recent messages of one conversation in
// chronological order.
func (s *sqlxStore) GetRecentMessages(ctx context.Context, npcID, playerID string, limit int) ([]TranscriptMessage, error) {
	if npcID == "" || playerID == "" {
		return nil, fmt.Errorf("npc_id and player_id cannot be empty")
	}

	if limit <= 0 {
		limit = defaultRecentLimit
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "npc_id", npcID, "default_limit", limit)
	} else if limit > maxRecentLimit {
		limit = maxRecentLimit
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "npc_id", npcID, "capped_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []TranscriptMessage
	query := `
        SELECT id, npc_id, player_id, role, content, map_id, created_at
        FROM transcript_messages
        WHERE npc_id = ? AND player_id = ?
        ORDER BY id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &messages, query, npcID, playerID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages",
			"npc_id", npcID, "player_id", playerID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages",
			"npc_id", npcID, "player_id", playerID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for npc %s, player %s: %w", npcID, playerID, err)
	}

	slices.Reverse(messages)
	s.logger.DebugContext(ctx, "Fetched recent messages successfully",
		"npc_id", npcID, "player_id", playerID, "count", len(messages))
	return messages, nil
}

// DeleteMessagesBefore removes transcript records older than cutoff.
func (s *sqlxStore) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if cutoff.IsZero() {
		return 0, fmt.Errorf("cutoff cannot be zero")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM transcript_messages WHERE created_at < ?;`, cutoff.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting old transcript messages", "cutoff", cutoff, "error", err)
		return 0, fmt.Errorf("failed to delete messages before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not retrieve affected rows after deleting messages", "error", err)
		return 0, nil
	}

	s.logger.InfoContext(ctx, "Deleted old transcript messages", "cutoff", cutoff, "deleted", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM cannot run inside a transaction.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
