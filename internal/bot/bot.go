// Package bot orchestrates the NPC agents, the scheduler and the optional
// operator console, and manages their lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/npcbot/internal/npc"
)

// ErrAllSessionsEnded is returned by Run when every NPC session has stopped
// while the process was still meant to be running.
var ErrAllSessionsEnded = errors.New("all NPC sessions ended")

// Bot represents the main application and manages its components' lifecycle.
type Bot struct {
	logger    *slog.Logger
	agents    npc.Fleet
	tgBot     *tgbot.Bot
	scheduler *Scheduler
}

// NewBot creates the orchestrator. tgBot may be nil when the operator
// console is disabled.
func NewBot(logger *slog.Logger, agents npc.Fleet, tgBot *tgbot.Bot, scheduler *Scheduler) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		agents:    agents,
		tgBot:     tgBot,
		scheduler: scheduler,
	}
}

// Run starts every component and blocks until ctx is cancelled or a
// component fails. An NPC that cannot connect is logged and does not stop
// the others.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator...", "npcs", len(b.agents))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var agents errgroup.Group
		for _, agent := range b.agents {
			agents.Go(func() error {
				if err := agent.Run(gCtx); err != nil {
					if errors.Is(err, npc.ErrConnect) {
						b.logger.Error("NPC inactive", "npc_id", agent.ID(), "error", err)
					} else {
						b.logger.Error("NPC stopped with error", "npc_id", agent.ID(), "error", err)
					}
				}
				return nil
			})
		}
		_ = agents.Wait()

		if gCtx.Err() == nil {
			b.logger.Warn("Every NPC session has ended")
			return ErrAllSessionsEnded
		}
		return nil
	})

	if b.tgBot != nil {
		g.Go(func() error {
			b.logger.Info("Starting Telegram operator console...")
			b.tgBot.Start(gCtx)
			b.logger.Info("Telegram operator console stopped.")

			if gCtx.Err() == nil {
				b.logger.Warn("Telegram listener stopped unexpectedly without context cancellation.")
				return fmt.Errorf("telegram listener stopped unexpectedly")
			}
			return nil
		})
	}

	if b.scheduler != nil {
		g.Go(func() error {
			if err := b.scheduler.Start(gCtx); err != nil {
				b.logger.Error("Failed to start scheduler", "error", err)
				return fmt.Errorf("failed to start scheduler: %w", err)
			}

			<-gCtx.Done()
			b.logger.Info("Shutdown signal received, stopping scheduler...")
			if err := b.scheduler.Stop(); err != nil {
				b.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully.")
	return nil
}
