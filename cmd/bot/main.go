// Package main contains the entrypoint for the NPC bot service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/npcbot/internal/bot"
	"github.com/edgard/npcbot/internal/bot/handlers"
	"github.com/edgard/npcbot/internal/bot/tasks"
	"github.com/edgard/npcbot/internal/completion"
	"github.com/edgard/npcbot/internal/config"
	"github.com/edgard/npcbot/internal/database"
	"github.com/edgard/npcbot/internal/logger"
	"github.com/edgard/npcbot/internal/npc"
	"github.com/edgard/npcbot/internal/persona"
	"github.com/edgard/npcbot/internal/telegram"
	"github.com/edgard/npcbot/internal/world"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run wires configuration, logging, the transcript database, the completion
// client, the NPC agents, the scheduler and the optional operator console,
// then blocks until shutdown. It returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	completionClient, err := completion.NewClient(ctx, cfg.Completion, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "error", err)
		return 1
	}

	directory, err := persona.FromConfig(cfg)
	if err != nil {
		log.Error("Failed to build persona directory", "error", err)
		return 1
	}

	var tg *tgbot.Bot
	var notifier npc.Notifier
	if cfg.Telegram.Token != "" {
		tg, err = telegram.NewTelegramBot(cfg.Telegram.Token, log,
			tgbot.WithMiddlewares(logger.Middleware(log)),
			tgbot.WithDefaultHandler(func(context.Context, *tgbot.Bot, *models.Update) {}),
		)
		if err != nil {
			log.Error("Failed to create Telegram bot", "error", err)
			return 1
		}
		tgNotifier, err := telegram.NewNotifier(tg, cfg.Telegram.AdminUserID, log)
		if err != nil {
			log.Error("Failed to create operator notifier", "error", err)
			return 1
		}
		notifier = tgNotifier
	} else {
		log.Info("Telegram token not set, operator console disabled")
	}

	fleet, err := newFleet(cfg, log, directory, completionClient, store, notifier)
	if err != nil {
		log.Error("Failed to create NPC agents", "error", err)
		return 1
	}

	if tg != nil {
		hDeps := handlers.HandlerDeps{Logger: log, Config: cfg, Fleet: fleet}
		commands := handlers.RegisterAllCommands(hDeps)
		if err := telegram.RegisterHandlers(tg, log, commands); err != nil {
			log.Error("Failed to register Telegram handlers", "error", err)
			return 1
		}
		if err := telegram.PublishCommands(ctx, tg, commands); err != nil {
			log.Warn("Failed to publish Telegram command menu", "error", err)
		}
	}

	tDeps := tasks.TaskDeps{Logger: log, Store: store, Evictor: fleet, Config: cfg}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := bot.NewBot(log, fleet, tg, sched)

	log.Info("Starting bot...", "space_id", cfg.World.SpaceID, "npcs", len(fleet))
	runErr := app.Run(ctx)
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}

// newFleet creates one websocket session and agent per configured NPC.
func newFleet(
	cfg *config.Config,
	log *slog.Logger,
	directory *persona.Directory,
	completionClient completion.Client,
	store database.Store,
	notifier npc.Notifier,
) (npc.Fleet, error) {
	fleet := make(npc.Fleet, 0, len(cfg.NPCs))
	middleware := []world.Middleware{logger.EventMiddleware(log)}

	for _, n := range cfg.NPCs {
		p, ok := directory.Lookup(n.Persona)
		if !ok {
			return nil, fmt.Errorf("npc %s references unknown persona %q", n.ID, n.Persona)
		}

		conn, err := world.NewWebsocketConnector(world.WebsocketConfig{
			Endpoint:         cfg.World.Endpoint,
			SpaceID:          cfg.World.SpaceID,
			NPCID:            n.ID,
			APIKey:           n.APIKey,
			HandshakeTimeout: cfg.World.HandshakeTimeout,
			WriteTimeout:     cfg.World.WriteTimeout,
			EventBuffer:      cfg.World.EventBuffer,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("npc %s: %w", n.ID, err)
		}

		agent, err := npc.NewAgent(npc.Deps{
			Logger:       log,
			Connector:    conn,
			Completion:   completionClient,
			Persona:      p,
			Personas:     directory,
			Transcripts:  store,
			Notifier:     notifier,
			Conversation: cfg.Conversation,
			Messages:     cfg.Messages,
			Middleware:   middleware,
		})
		if err != nil {
			return nil, fmt.Errorf("npc %s: %w", n.ID, err)
		}
		fleet = append(fleet, agent)
	}
	return fleet, nil
}
