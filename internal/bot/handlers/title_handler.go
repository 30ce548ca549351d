package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/perm"
)

// NewTitleHandler returns a handler for the /title command, which
// grants the sender the requested custom title, promoting them first
// when they are still a plain member.
func NewTitleHandler(deps HandlerDeps) bot.HandlerFunc {
	return titleHandler{deps}.Handle
}

type titleHandler struct {
	deps HandlerDeps
}

func (h titleHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "title")
	if update.Message == nil {
		return
	}

	conv := h.deps.newGroupConversation(ctx, log, update.Message)
	if conv == nil {
		return
	}

	title := commandArgument(update.Message.Text)
	if title == "" {
		h.deps.respond(ctx, log, conv, convo.ErrEmptyTitle)
		return
	}

	resolved := h.deps.resolveConversation(ctx, log, conv)
	if resolved == nil {
		return
	}

	if err := perm.BotIsAdmin(resolved.Snapshot()); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	// Check the claim before PrepareForEdit so a taken title never
	// promotes anyone.
	existing, err := h.deps.Store.GetByTitle(ctx, resolved.ChatID(), title)
	if err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}
	if existing != nil && existing.UserID != resolved.Sender().ID {
		h.deps.respond(ctx, log, resolved, fmt.Errorf("%w: %q", database.ErrTitleInUse, title))
		return
	}

	if err := resolved.PrepareForEdit(ctx); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := resolved.SetTitle(ctx, title); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	log.InfoContext(ctx, "Title granted",
		"chat_id", resolved.ChatID(), "user_id", resolved.Sender().ID, "title", title)

	if err := resolved.Done(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err)
	}
}
