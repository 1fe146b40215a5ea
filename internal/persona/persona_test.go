package persona_test

import (
	"testing"

	"github.com/edgard/npcbot/internal/persona"
)

func TestGreet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		greeting string
		player   string
		expected string
	}{
		{name: "default greeting", greeting: "", player: "Ada", expected: "Hello Ada!"},
		{name: "custom template", greeting: "Ahoy, {name}. Welcome aboard.", player: "Ada", expected: "Ahoy, Ada. Welcome aboard."},
		{name: "no placeholder", greeting: "Welcome!", player: "Ada", expected: "Welcome!"},
		{name: "repeated placeholder", greeting: "{name}? {name}!", player: "Bo", expected: "Bo? Bo!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := persona.Persona{Name: "saylor", Greeting: tt.greeting}
			if got := p.Greet(tt.player); got != tt.expected {
				t.Errorf("Greet(%q) = %q, want %q", tt.player, got, tt.expected)
			}
		})
	}
}

func TestDirectory(t *testing.T) {
	t.Parallel()

	dir, err := persona.NewDirectory(
		[]persona.Persona{
			{Name: "saylor", Description: "A sailor."},
			{Name: "baker", Description: "A baker."},
		},
		map[string]string{"obj-1": "saylor", "obj-2": "baker"},
	)
	if err != nil {
		t.Fatalf("NewDirectory() unexpected error: %v", err)
	}

	p, ok := dir.ForObject("obj-1")
	if !ok || p.Name != "saylor" {
		t.Errorf("ForObject(obj-1) = %+v, %v, want saylor", p, ok)
	}
	p, ok = dir.ForObject("obj-2")
	if !ok || p.Name != "baker" {
		t.Errorf("ForObject(obj-2) = %+v, %v, want baker", p, ok)
	}
	if _, ok := dir.ForObject("obj-3"); ok {
		t.Error("ForObject(obj-3) resolved an unknown object")
	}
	if _, ok := dir.Lookup("nobody"); ok {
		t.Error("Lookup(nobody) resolved an unknown persona")
	}
}

func TestNewDirectoryRejectsBadTables(t *testing.T) {
	t.Parallel()

	if _, err := persona.NewDirectory([]persona.Persona{{Name: "a"}}, map[string]string{"obj": "b"}); err == nil {
		t.Error("expected error for object referencing unknown persona")
	}
	if _, err := persona.NewDirectory([]persona.Persona{{Name: "a"}, {Name: "a"}}, nil); err == nil {
		t.Error("expected error for duplicate persona")
	}
	if _, err := persona.NewDirectory([]persona.Persona{{Name: ""}}, nil); err == nil {
		t.Error("expected error for empty persona name")
	}
}
