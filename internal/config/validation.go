package config

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidNPCConfigs is returned when NPC_CONFIGS is not a flat JSON array
// of strings with an even number of entries.
var ErrInvalidNPCConfigs = errors.New("invalid NPC configs")

// ParseNPCConfigs decodes the legacy NPC_CONFIGS value. Adjacent strings are
// paired together as [id, apiKey].
func ParseNPCConfigs(raw string) ([]NPCConfig, error) {
	var flat []string
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNPCConfigs, err)
	}
	if len(flat) == 0 || len(flat)%2 != 0 {
		return nil, fmt.Errorf("%w: expected [id, apiKey] pairs, got %d entries", ErrInvalidNPCConfigs, len(flat))
	}

	npcs := make([]NPCConfig, 0, len(flat)/2)
	for i := 0; i < len(flat); i += 2 {
		npcs = append(npcs, NPCConfig{ID: flat[i], APIKey: flat[i+1]})
	}
	return npcs, nil
}

// validateReferences checks that every persona referenced by an NPC or an
// object is defined.
func (c *Config) validateReferences() error {
	for _, npc := range c.NPCs {
		if npc.Persona == "" {
			return fmt.Errorf("npc %q has no persona and no default_persona is set", npc.ID)
		}
		if _, ok := c.Persona(npc.Persona); !ok {
			return fmt.Errorf("npc %q references unknown persona %q", npc.ID, npc.Persona)
		}
	}
	for _, obj := range c.Objects {
		if _, ok := c.Persona(obj.Persona); !ok {
			return fmt.Errorf("object %q references unknown persona %q", obj.ObjectID, obj.Persona)
		}
	}
	return nil
}
