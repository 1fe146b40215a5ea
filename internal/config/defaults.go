package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix = "NPCBOT"

	// legacyNPCConfigsKey carries the flat [id, apiKey, ...] JSON array used by
	// the original deployment.
	legacyNPCConfigsKey = "npc_configs"

	DefaultPersonaName = "saylor"
)

// DefaultSaylorDescription is the persona prompt shipped with the default
// configuration.
const DefaultSaylorDescription = `You are Saylor, a weathered but cheerful ship captain who retired to run the harbor office of this virtual town. You grew up on a fishing boat, sailed cargo routes for thirty years and now spend your days telling stories, giving directions and recommending the best spots to watch the sunset. You speak warmly, with the occasional nautical expression, and keep replies short: one to three sentences. You never mention that you are an AI or a language model. If someone asks about something you do not know, you admit it and steer the conversation back to the harbor, the sea or the town.`

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("world.endpoint", "ws://localhost:8787/ws")
	v.SetDefault("world.handshake_timeout", 15*time.Second)
	v.SetDefault("world.write_timeout", 10*time.Second)
	v.SetDefault("world.event_buffer", 256)

	v.SetDefault("completion.model", "gemini-2.0-flash")
	v.SetDefault("completion.temperature", 0.5)
	v.SetDefault("completion.max_output_tokens", 500)
	v.SetDefault("completion.timeout", time.Minute)
	v.SetDefault("completion.max_retries", 2)
	v.SetDefault("completion.retry_delay", 2*time.Second)

	v.SetDefault("conversation.unknown_location", "unknown")
	v.SetDefault("conversation.fallback_player_name", "there")
	v.SetDefault("conversation.idle_ttl", 2*time.Hour)
	v.SetDefault("conversation.max_concurrent_replies", 4)
	v.SetDefault("conversation.resume_history", false)
	v.SetDefault("conversation.resume_limit", 20)

	v.SetDefault("database.path", "npcbot.db")
	v.SetDefault("database.retention", 30*24*time.Hour)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_user_id", 0)

	v.SetDefault("scheduler.tasks", map[string]any{
		"conversation_eviction": map[string]any{"enabled": true, "schedule": "0 */5 * * * *"},
		"transcript_retention":  map[string]any{"enabled": true, "schedule": "0 0 3 * * *"},
		"sql_maintenance":       map[string]any{"enabled": true, "schedule": "0 30 3 * * 0"},
	})

	v.SetDefault("messages.help", "NPC bot console.\n/status - show NPC sessions and active conversations\n/reset - clear all conversation states")
	v.SetDefault("messages.not_authorized", "You are not authorized to use this command.")
	v.SetDefault("messages.status_header", "NPC sessions:\n\n")
	v.SetDefault("messages.reset_confirm", "Cleared %d conversation(s).")
	v.SetDefault("messages.connect_failed", "NPC %s failed to connect: %v")
	v.SetDefault("messages.connection_lost", "NPC %s lost its connection to the world.")

	v.SetDefault("default_persona", DefaultPersonaName)
	v.SetDefault("personas", []map[string]any{
		{
			"name":        DefaultPersonaName,
			"description": DefaultSaylorDescription,
			"greeting":    "Hello {name}!",
		},
	})
	v.SetDefault("objects", []map[string]any{
		{
			"object_id": "HologramAvatar - e86LVs7JpcL3lbuK85oz_162ad252-6ce1-4410-8a8c-90436562252e",
			"persona":   DefaultPersonaName,
		},
	})
}

// bindEnv wires NPCBOT_* variables for every key plus the variable names of
// the original deployment.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("world.space_id", envPrefix+"_WORLD_SPACE_ID", "SPACE_ID")
	_ = v.BindEnv("completion.api_key", envPrefix+"_COMPLETION_API_KEY", "COMPLETION_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv(legacyNPCConfigsKey, envPrefix+"_NPC_CONFIGS", "NPC_CONFIGS")
}
