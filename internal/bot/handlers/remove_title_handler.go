package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/perm"
)

// NewRemoveTitleHandler returns a handler for the /removetitle command,
// an owner-only operation that evicts a title from the index by name.
// The holder keeps whatever platform privileges they have; only the
// index claim is released.
func NewRemoveTitleHandler(deps HandlerDeps) bot.HandlerFunc {
	return removeTitleHandler{deps}.Handle
}

type removeTitleHandler struct {
	deps HandlerDeps
}

func (h removeTitleHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "remove_title")
	if update.Message == nil {
		return
	}

	resolved := h.deps.resolveGroupCommand(ctx, log, update.Message)
	if resolved == nil {
		return
	}

	if err := perm.SenderIsOwner(resolved.Snapshot()); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	title := commandArgument(update.Message.Text)
	if title == "" {
		h.deps.respond(ctx, log, resolved, convo.ErrEmptyTitle)
		return
	}

	if err := resolved.RemoveTitleByName(ctx, title); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	log.InfoContext(ctx, "Title record removed by owner",
		"chat_id", resolved.ChatID(), "title", title)

	if err := resolved.ReplyTo(ctx, "Done."); err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err)
	}
}
