package conversation_test

import (
	"testing"

	"github.com/edgard/npcbot/internal/conversation"
)

func TestRenderHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		messages []conversation.Message
		expected string
	}{
		{
			name:     "empty",
			messages: nil,
			expected: "",
		},
		{
			name: "player then bot",
			messages: []conversation.Message{
				{Role: conversation.RolePlayer, Text: "hi"},
				{Role: conversation.RoleBot, Text: "hello"},
			},
			expected: "player: hi\nbot: hello",
		},
		{
			name: "consecutive player lines keep order",
			messages: []conversation.Message{
				{Role: conversation.RoleBot, Text: "Hello Ada!"},
				{Role: conversation.RolePlayer, Text: "one"},
				{Role: conversation.RolePlayer, Text: "two"},
			},
			expected: "bot: Hello Ada!\nplayer: one\nplayer: two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := conversation.RenderHistory(tt.messages); got != tt.expected {
				t.Errorf("RenderHistory() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	messages := []conversation.Message{
		{Role: conversation.RoleBot, Text: "Hello Ada!"},
		{Role: conversation.RolePlayer, Text: "hello"},
	}
	got := conversation.BuildPrompt("  You are Saylor.\n", messages)
	expected := "You are Saylor.\n\nbot: Hello Ada!\nplayer: hello\nbot:"
	if got != expected {
		t.Errorf("BuildPrompt() = %q, want %q", got, expected)
	}

	if got := conversation.BuildPrompt("You are Saylor.", nil); got != "You are Saylor.\n\nbot:" {
		t.Errorf("BuildPrompt() without history = %q", got)
	}
}
