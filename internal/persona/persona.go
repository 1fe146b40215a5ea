// Package persona holds the injected persona table: the persona prompts NPCs
// speak with and the mapping from interactable world objects to personas.
package persona

import (
	"fmt"
	"strings"

	"github.com/edgard/npcbot/internal/config"
)

const namePlaceholder = "{name}"

// DefaultGreeting is used when a persona does not define one.
const DefaultGreeting = "Hello {name}!"

// Persona is the static character an NPC plays.
type Persona struct {
	Name        string
	Description string
	Greeting    string
}

// Greet renders the greeting for the given player display name.
func (p Persona) Greet(playerName string) string {
	greeting := p.Greeting
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return strings.ReplaceAll(greeting, namePlaceholder, playerName)
}

// Directory resolves personas by name and by interactable object.
type Directory struct {
	personas map[string]Persona
	objects  map[string]string
}

// NewDirectory builds a Directory from persona definitions and an
// object-id to persona-name table. Every object must reference a known persona.
func NewDirectory(personas []Persona, objects map[string]string) (*Directory, error) {
	d := &Directory{
		personas: make(map[string]Persona, len(personas)),
		objects:  make(map[string]string, len(objects)),
	}
	for _, p := range personas {
		if p.Name == "" {
			return nil, fmt.Errorf("persona name cannot be empty")
		}
		if _, dup := d.personas[p.Name]; dup {
			return nil, fmt.Errorf("duplicate persona %q", p.Name)
		}
		d.personas[p.Name] = p
	}
	for objectID, name := range objects {
		if _, ok := d.personas[name]; !ok {
			return nil, fmt.Errorf("object %q references unknown persona %q", objectID, name)
		}
		d.objects[objectID] = name
	}
	return d, nil
}

// FromConfig builds a Directory from the application configuration.
func FromConfig(cfg *config.Config) (*Directory, error) {
	personas := make([]Persona, 0, len(cfg.Personas))
	for _, p := range cfg.Personas {
		personas = append(personas, Persona{Name: p.Name, Description: p.Description, Greeting: p.Greeting})
	}
	objects := make(map[string]string, len(cfg.Objects))
	for _, o := range cfg.Objects {
		objects[o.ObjectID] = o.Persona
	}
	return NewDirectory(personas, objects)
}

// Lookup returns the persona with the given name.
func (d *Directory) Lookup(name string) (Persona, bool) {
	p, ok := d.personas[name]
	return p, ok
}

// ForObject resolves an interactable object to its persona.
func (d *Directory) ForObject(objectID string) (Persona, bool) {
	name, ok := d.objects[objectID]
	if !ok {
		return Persona{}, false
	}
	return d.Lookup(name)
}
