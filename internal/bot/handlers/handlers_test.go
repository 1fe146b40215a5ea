package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/conversation"
	"github.com/edgard/npcbot/internal/npc"
)

const adminID int64 = 42

type sentMessage struct {
	ChatID string
	Text   string
}

// fakeAPI records sendMessage calls made against the Bot API.
type fakeAPI struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Path, "/sendMessage") {
		_ = r.ParseMultipartForm(1 << 20)
		f.mu.Lock()
		f.sent = append(f.sent, sentMessage{ChatID: r.FormValue("chat_id"), Text: r.FormValue("text")})
		f.mu.Unlock()
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"}}}`)
}

func (f *fakeAPI) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeFleet struct {
	statuses []npc.Status
	resets   int
}

func (f *fakeFleet) Statuses() []npc.Status { return f.statuses }

func (f *fakeFleet) ResetConversations() int {
	f.resets++
	total := 0
	for _, s := range f.statuses {
		total += s.Conversations
	}
	return total
}

func newTestBot(t *testing.T) (*tgbot.Bot, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	b, err := tgbot.New("123456:test-token", tgbot.WithSkipGetMe(), tgbot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("bot.New() unexpected error: %v", err)
	}
	return b, api
}

func newTestDeps(fleet Fleet) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Telegram: config.TelegramConfig{AdminUserID: adminID},
			Messages: config.MessagesConfig{
				Help:          "help text",
				NotAuthorized: "not authorized",
				StatusHeader:  "NPC sessions:\n\n",
				ResetConfirm:  "Cleared %d conversation(s).",
			},
		},
		Fleet: fleet,
	}
}

func commandUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   1,
			Text: text,
			Chat: models.Chat{ID: userID},
			From: &models.User{ID: userID},
		},
	}
}

func dispatch(ctx context.Context, b *tgbot.Bot, h RegisteredHandler, update *models.Update) {
	handler := h.Handler
	for i := len(h.Middleware) - 1; i >= 0; i-- {
		handler = h.Middleware[i](handler)
	}
	handler(ctx, b, update)
}

func TestCommands(t *testing.T) {
	t.Parallel()

	statuses := []npc.Status{
		{NPCID: "npc-1", Persona: "saylor", Connected: true, Conversations: 2, PlayerIDs: []string{"p1", "p2"}},
		{NPCID: "npc-2", Persona: "saylor", Connected: false},
	}

	tests := []struct {
		name       string
		command    string
		userID     int64
		wantText   string
		wantResets int
	}{
		{name: "help", command: "/help", userID: adminID, wantText: "help text"},
		{name: "status", command: "/status", userID: adminID, wantText: "NPC sessions:\n\nnpc-1 (saylor): online, 2 conversation(s)\n  players: p1, p2\n\nnpc-2 (saylor): offline, 0 conversation(s)"},
		{name: "reset", command: "/reset", userID: adminID, wantText: "Cleared 2 conversation(s).", wantResets: 1},
		{name: "reset by stranger", command: "/reset", userID: 7, wantText: "not authorized"},
		{name: "status by stranger", command: "/status", userID: 7, wantText: "not authorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fleet := &fakeFleet{statuses: statuses}
			b, api := newTestBot(t)
			registry := RegisterAllCommands(newTestDeps(fleet))

			h, ok := registry[tt.command]
			if !ok {
				t.Fatalf("command %s not registered", tt.command)
			}
			dispatch(context.Background(), b, h, commandUpdate(tt.userID, tt.command))

			sent := api.Sent()
			if len(sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(sent))
			}
			if sent[0].Text != tt.wantText {
				t.Errorf("text = %q, want %q", sent[0].Text, tt.wantText)
			}
			if fleet.resets != tt.wantResets {
				t.Errorf("resets = %d, want %d", fleet.resets, tt.wantResets)
			}
		})
	}
}

func TestFormatStatus(t *testing.T) {
	t.Parallel()

	players := make([]string, 12)
	for i := range players {
		players[i] = string(rune('a' + i))
	}

	tests := []struct {
		name     string
		statuses []npc.Status
		want     string
	}{
		{name: "no npcs", want: "H:No NPCs configured."},
		{
			name:     "truncates player list",
			statuses: []npc.Status{{NPCID: "n", Persona: "p", Connected: true, Conversations: 12, PlayerIDs: players}},
			want:     "H:n (p): online, 12 conversation(s)\n  players: a, b, c, d, e, f, g, h, i, j (+2 more)",
		},
		{
			name: "awaiting replies",
			statuses: []npc.Status{{
				NPCID: "n", Persona: "p", Connected: true, Conversations: 1, PlayerIDs: []string{"a"},
				Phases: map[conversation.Phase]int{conversation.PhaseAwaitingReply: 1},
			}},
			want: "H:n (p): online, 1 conversation(s), 1 awaiting reply\n  players: a",
		},
	}
	for _, tt := range tests {
		if got := FormatStatus("H:", tt.statuses); got != tt.want {
			t.Errorf("%s: FormatStatus() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
