package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/edgard/npcbot/internal/config"
)

func TestParseNPCConfigs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    []config.NPCConfig
		wantErr bool
	}{
		{
			name:  "single pair",
			input: `["npc-1","key-1"]`,
			want:  []config.NPCConfig{{ID: "npc-1", APIKey: "key-1"}},
		},
		{
			name:  "two pairs keep order",
			input: `["npc-1","key-1","npc-2","key-2"]`,
			want: []config.NPCConfig{
				{ID: "npc-1", APIKey: "key-1"},
				{ID: "npc-2", APIKey: "key-2"},
			},
		},
		{
			name:    "odd length",
			input:   `["npc-1","key-1","npc-2"]`,
			wantErr: true,
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantErr: true,
		},
		{
			name:    "not an array of strings",
			input:   `[1,2]`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `npc-1,key-1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := config.ParseNPCConfigs(tt.input)
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalidNPCConfigs) {
					t.Fatalf("ParseNPCConfigs(%q) error = %v, want ErrInvalidNPCConfigs", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNPCConfigs(%q) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseNPCConfigs(%q) returned %d npcs, want %d", tt.input, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("npc[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
world:
  endpoint: ws://world.test/ws
  space_id: space-1
completion:
  api_key: secret
  temperature: 0.7
  timeout: 30s
personas:
  - name: guide
    description: You are a tour guide.
    greeting: Welcome, {name}.
objects:
  - object_id: obj-1
    persona: guide
npcs:
  - id: npc-1
    api_key: npc-key
    persona: guide
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.World.SpaceID != "space-1" {
		t.Errorf("SpaceID = %q, want space-1", cfg.World.SpaceID)
	}
	if cfg.Completion.Temperature != 0.7 {
		t.Errorf("Temperature = %v, want 0.7", cfg.Completion.Temperature)
	}
	if cfg.Completion.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Completion.Timeout)
	}
	if cfg.Completion.MaxOutputTokens != 500 {
		t.Errorf("MaxOutputTokens = %d, want default 500", cfg.Completion.MaxOutputTokens)
	}
	if len(cfg.NPCs) != 1 || cfg.NPCs[0].Persona != "guide" {
		t.Fatalf("NPCs = %+v, want one npc with persona guide", cfg.NPCs)
	}
	if len(cfg.Objects) != 1 || cfg.Objects[0].ObjectID != "obj-1" {
		t.Errorf("Objects = %+v, want obj-1", cfg.Objects)
	}
	if cfg.Conversation.UnknownLocation != "unknown" {
		t.Errorf("UnknownLocation = %q, want unknown", cfg.Conversation.UnknownLocation)
	}
	task, ok := cfg.Scheduler.Tasks["conversation_eviction"]
	if !ok || !task.Enabled || task.Schedule == "" {
		t.Errorf("conversation_eviction task = %+v, want enabled default", task)
	}
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("SPACE_ID", "legacy-space")
	t.Setenv("COMPLETION_API_KEY", "legacy-key")
	t.Setenv("NPC_CONFIGS", `["npc-a","key-a","npc-b","key-b"]`)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.World.SpaceID != "legacy-space" {
		t.Errorf("SpaceID = %q, want legacy-space", cfg.World.SpaceID)
	}
	if cfg.Completion.APIKey != "legacy-key" {
		t.Errorf("APIKey = %q, want legacy-key", cfg.Completion.APIKey)
	}
	if len(cfg.NPCs) != 2 {
		t.Fatalf("NPCs = %+v, want 2 entries", cfg.NPCs)
	}
	for _, npc := range cfg.NPCs {
		if npc.Persona != config.DefaultPersonaName {
			t.Errorf("npc %s persona = %q, want default %q", npc.ID, npc.Persona, config.DefaultPersonaName)
		}
	}
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		body string
	}{
		{
			name: "odd npc configs",
			env: map[string]string{
				"SPACE_ID":           "space",
				"COMPLETION_API_KEY": "key",
				"NPC_CONFIGS":        `["npc-a","key-a","npc-b"]`,
			},
		},
		{
			name: "missing space id",
			env: map[string]string{
				"SPACE_ID":           "",
				"COMPLETION_API_KEY": "key",
				"NPC_CONFIGS":        `["npc-a","key-a"]`,
			},
		},
		{
			name: "unknown persona",
			body: `
world:
  space_id: space
completion:
  api_key: key
npcs:
  - id: npc-1
    api_key: k
    persona: nobody
`,
		},
		{
			name: "duplicate npc ids",
			body: `
world:
  space_id: space
completion:
  api_key: key
npcs:
  - id: npc-1
    api_key: k
  - id: npc-1
    api_key: k2
`,
		},
		{
			name: "telegram token without admin",
			body: `
world:
  space_id: space
completion:
  api_key: key
telegram:
  token: "123:abc"
npcs:
  - id: npc-1
    api_key: k
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(t.TempDir(), "missing.yaml")
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}

			_, err := config.Load(path)
			if !errors.Is(err, config.ErrConfiguration) {
				t.Fatalf("Load() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "config.example.yaml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if len(cfg.NPCs) != 1 || cfg.NPCs[0].Persona != "saylor" {
		t.Errorf("NPCs = %+v, want one saylor npc", cfg.NPCs)
	}
	if p, ok := cfg.Persona("saylor"); !ok || p.Greeting != "Hello {name}!" {
		t.Errorf("saylor persona = %+v, %v", p, ok)
	}
	if len(cfg.Scheduler.Tasks) != 3 {
		t.Errorf("scheduler tasks = %d, want 3", len(cfg.Scheduler.Tasks))
	}
}
