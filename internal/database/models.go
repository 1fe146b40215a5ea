package database

import "time"

// TranscriptMessage is the durable copy of one conversation message between
// an NPC and a player.
type TranscriptMessage struct {
	ID        int64     `db:"id"`
	NPCID     string    `db:"npc_id"`
	PlayerID  string    `db:"player_id"`
	Role      string    `db:"role"`
	Content   string    `db:"content"`
	MapID     string    `db:"map_id"`
	CreatedAt time.Time `db:"created_at"`
}
