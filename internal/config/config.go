// Package config provides configuration loading, validation, and management
// for the npcbot application. It handles reading from YAML files, environment
// variables (including the legacy deployment variables), setting default
// values, and validating configuration parameters.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration wraps every error returned by Load.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration parameters for all components
// of the npcbot system.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"logger"`
	World        WorldConfig        `mapstructure:"world"`
	Completion   CompletionConfig   `mapstructure:"completion"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`

	// NPCs lists the bot identities; one world session is opened per entry.
	NPCs []NPCConfig `mapstructure:"npcs" validate:"required,min=1,unique=ID,dive"`
	// Personas holds the persona prompts the NPCs speak with.
	Personas []PersonaConfig `mapstructure:"personas" validate:"required,min=1,unique=Name,dive"`
	// Objects maps interactable world objects to persona names.
	Objects []ObjectConfig `mapstructure:"objects" validate:"unique=ObjectID,dive"`
	// DefaultPersona is assigned to NPCs that do not name one, which is always
	// the case for identities sourced from NPC_CONFIGS.
	DefaultPersona string `mapstructure:"default_persona"`
}

// LoggerConfig controls the slog handler.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// WorldConfig describes how to reach the virtual-world platform.
type WorldConfig struct {
	Endpoint         string        `mapstructure:"endpoint"          validate:"required,url"`
	SpaceID          string        `mapstructure:"space_id"          validate:"required"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" validate:"min=1s,max=5m"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"     validate:"min=1s,max=5m"`
	EventBuffer      int           `mapstructure:"event_buffer"      validate:"min=1,max=65536"`
}

// CompletionConfig holds the fixed generation parameters for replies.
type CompletionConfig struct {
	APIKey          string        `mapstructure:"api_key"           validate:"required"`
	Model           string        `mapstructure:"model"             validate:"required"`
	Temperature     float32       `mapstructure:"temperature"       validate:"min=0,max=2"`
	MaxOutputTokens int32         `mapstructure:"max_output_tokens" validate:"min=1,max=8192"`
	Timeout         time.Duration `mapstructure:"timeout"           validate:"min=1s,max=10m"`
	MaxRetries      int           `mapstructure:"max_retries"       validate:"min=0,max=10"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       validate:"min=0,max=1m"`
}

// ConversationConfig tunes the per-player conversation tracker.
type ConversationConfig struct {
	UnknownLocation      string        `mapstructure:"unknown_location"       validate:"required"`
	FallbackPlayerName   string        `mapstructure:"fallback_player_name"   validate:"required"`
	IdleTTL              time.Duration `mapstructure:"idle_ttl"               validate:"min=1m"`
	MaxConcurrentReplies int64         `mapstructure:"max_concurrent_replies" validate:"min=1,max=256"`
	ResumeHistory        bool          `mapstructure:"resume_history"`
	ResumeLimit          int           `mapstructure:"resume_limit"           validate:"min=1,max=500"`
}

// DatabaseConfig configures the transcript archive.
type DatabaseConfig struct {
	Path      string        `mapstructure:"path"      validate:"required"`
	Retention time.Duration `mapstructure:"retention" validate:"min=1h"`
}

// TelegramConfig configures the optional operator console. The console is
// disabled when Token is empty.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	AdminUserID int64  `mapstructure:"admin_user_id" validate:"required_with=Token"`
}

// SchedulerConfig holds the cron jobs keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds operator console texts.
type MessagesConfig struct {
	Help           string `mapstructure:"help"            validate:"required"`
	NotAuthorized  string `mapstructure:"not_authorized"  validate:"required"`
	StatusHeader   string `mapstructure:"status_header"   validate:"required"`
	ResetConfirm   string `mapstructure:"reset_confirm"   validate:"required"`
	ConnectFailed  string `mapstructure:"connect_failed"  validate:"required"`
	ConnectionLost string `mapstructure:"connection_lost" validate:"required"`
}

// NPCConfig is one bot identity.
type NPCConfig struct {
	ID      string `mapstructure:"id"      validate:"required"`
	APIKey  string `mapstructure:"api_key" validate:"required"`
	Persona string `mapstructure:"persona"`
}

// PersonaConfig is a persona prompt definition.
type PersonaConfig struct {
	Name        string `mapstructure:"name"        validate:"required"`
	Description string `mapstructure:"description" validate:"required"`
	Greeting    string `mapstructure:"greeting"`
}

// ObjectConfig binds an interactable world object to a persona.
type ObjectConfig struct {
	ObjectID string `mapstructure:"object_id" validate:"required"`
	Persona  string `mapstructure:"persona"   validate:"required"`
}

// Load reads configuration from the given YAML file (optional), overlays
// environment variables and validates the result. Malformed configuration is
// rejected before any connection is attempted.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if raw := strings.TrimSpace(v.GetString(legacyNPCConfigsKey)); raw != "" {
		npcs, err := ParseNPCConfigs(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
		}
		cfg.NPCs = npcs
	}
	cfg.applyDefaultPersona()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	slog.Info("Configuration loaded successfully",
		"npcs", len(cfg.NPCs),
		"personas", len(cfg.Personas),
		"objects", len(cfg.Objects),
		"model", cfg.Completion.Model,
		"space_id", cfg.World.SpaceID)
	return cfg, nil
}

// Validate runs struct tag validation followed by the cross-reference checks
// between NPCs, objects and personas.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.validateReferences()
}

// Persona returns the persona definition with the given name.
func (c *Config) Persona(name string) (PersonaConfig, bool) {
	for _, p := range c.Personas {
		if p.Name == name {
			return p, true
		}
	}
	return PersonaConfig{}, false
}

func (c *Config) applyDefaultPersona() {
	for i := range c.NPCs {
		if c.NPCs[i].Persona == "" {
			c.NPCs[i].Persona = c.DefaultPersona
		}
	}
}
