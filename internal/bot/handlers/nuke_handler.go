package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/perm"
)

// NewNukeHandler returns a handler for the /nuke command, an owner-only
// bulk demotion of every admin the bot is allowed to edit. The command
// message is deleted afterwards to keep the purge out of the history.
func NewNukeHandler(deps HandlerDeps) bot.HandlerFunc {
	return nukeHandler{deps}.Handle
}

type nukeHandler struct {
	deps HandlerDeps
}

func (h nukeHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "nuke")
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

	if err := perm.BotCanPromote(resolved.Snapshot()); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	attempted, succeeded, err := resolved.Nuke(ctx)
	if err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	log.InfoContext(ctx, "Bulk demotion finished",
		"chat_id", resolved.ChatID(), "attempted", attempted, "succeeded", succeeded)

	text := fmt.Sprintf("Demoted %d of %d editable admins.", succeeded, attempted)
	if err := resolved.ReplyTo(ctx, text); err != nil {
		log.ErrorContext(ctx, "Failed to send nuke summary", "error", err)
	}

	if err := resolved.DeleteCommandMessage(ctx); err != nil {
		log.WarnContext(ctx, "Failed to delete nuke command message", "error", err)
	}
}
