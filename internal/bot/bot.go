// Package bot implements lifecycle management and component
// orchestration for the title bot.
package bot

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net/http"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/titulobot/internal/config"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/notifier"
	"github.com/edgard/titulobot/internal/telegram"
)

const webhookShutdownTimeout = 5 * time.Second

// Bot represents the main application and manages its components'
// lifecycle: the update listener, the scheduler, and the alert worker.
type Bot struct {
	logger    *slog.Logger
	cfg       *config.Config
	db        *sqlx.DB
	store     database.TitleStore
	client    telegram.Client
	tgBot     *tgbot.Bot
	scheduler *Scheduler
	notifier  *notifier.Notifier
	runID     string
}

// NewBot creates the orchestrator with all required dependencies.
func NewBot(
	logger *slog.Logger,
	cfg *config.Config,
	db *sqlx.DB,
	store database.TitleStore,
	client telegram.Client,
	tgBot *tgbot.Bot,
	scheduler *Scheduler,
	alerts *notifier.Notifier,
) *Bot {
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		cfg:       cfg,
		db:        db,
		store:     store,
		client:    client,
		tgBot:     tgBot,
		scheduler: scheduler,
		notifier:  alerts,
		runID:     newRunID(),
	}
}

// newRunID derives a short identifier for this process run, used to
// tell lifecycle notices of successive restarts apart.
func newRunID() string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d", time.Now().UnixNano())
	return fmt.Sprintf("%08x", h.Sum32())
}

// Run starts all components and blocks until the context is cancelled
// or a component fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator", "run_id", b.runID, "mode", b.cfg.Bot.Mode)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.runListener(gCtx)
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		<-gCtx.Done()
		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		return b.notifier.Run(gCtx)
	})

	b.notifier.Reportf("bot online (run %s)", b.runID)

	err := g.Wait()
	b.sendOfflineNotice()

	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}

// runListener runs the update transport: long polling by default, or a
// webhook endpoint behind an HTTP server.
func (b *Bot) runListener(ctx context.Context) error {
	if b.cfg.Bot.Mode == "webhook" {
		return b.runWebhook(ctx)
	}

	b.logger.Info("Starting Telegram long polling listener")
	b.tgBot.Start(ctx)
	b.logger.Info("Telegram listener stopped")

	if ctx.Err() == nil {
		return fmt.Errorf("telegram listener stopped unexpectedly")
	}
	return nil
}

func (b *Bot) runWebhook(ctx context.Context) error {
	if _, err := b.tgBot.SetWebhook(ctx, &tgbot.SetWebhookParams{
		URL: b.cfg.Bot.WebhookURL,
	}); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}

	srv := &http.Server{
		Addr:    b.cfg.Bot.ListenAddr,
		Handler: b.tgBot.WebhookHandler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		b.logger.Info("Starting webhook HTTP server", "addr", b.cfg.Bot.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	go b.tgBot.StartWebhook(ctx)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("webhook server failed: %w", err)
		}
		return fmt.Errorf("webhook server stopped unexpectedly")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), webhookShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		b.logger.Error("Error shutting down webhook server", "error", err)
	}
	return nil
}

// sendOfflineNotice delivers the shutdown notice directly, the alert
// worker is already stopped at this point.
func (b *Bot) sendOfflineNotice() {
	if b.cfg.Telegram.DebugChatID == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	text := fmt.Sprintf("bot offline (run %s)", b.runID)
	if err := b.client.SendMessage(ctx, b.cfg.Telegram.DebugChatID, text, 0); err != nil {
		b.logger.Warn("Failed to send offline notice", "error", err)
	}
}
