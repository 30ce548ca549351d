package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/perm"
)

// NewAnonymousHandler returns a handler for the /anonymous command,
// which re-promotes the sender with the anonymity flag. A registered
// title is required first: once anonymous, the sender can only be
// identified back through the title signature on their messages.
func NewAnonymousHandler(deps HandlerDeps) bot.HandlerFunc {
	return anonymousHandler{deps}.Handle
}

type anonymousHandler struct {
	deps HandlerDeps
}

func (h anonymousHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "anonymous")
	if update.Message == nil {
		return
	}

	resolved := h.deps.resolveGroupCommand(ctx, log, update.Message)
	if resolved == nil {
		return
	}

	snap := resolved.Snapshot()
	if snap.SenderAnonymous || snap.Sender.IsAnonymous {
		h.deps.respond(ctx, log, resolved, convo.ErrAlreadyAnonymous)
		return
	}

	record, err := h.deps.Store.GetByUser(ctx, resolved.ChatID(), resolved.Sender().ID)
	if err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}
	if record == nil {
		h.deps.respond(ctx, log, resolved, convo.ErrNotRegistered)
		return
	}

	if err := perm.BotAnonymous(snap); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := resolved.PrepareForEdit(ctx); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := resolved.MakeAnonymous(ctx); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	// The anonymity flag wipes the custom title, so write it back.
	if err := resolved.SetTitle(ctx, record.Title); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	log.InfoContext(ctx, "Member made anonymous",
		"chat_id", resolved.ChatID(), "user_id", resolved.Sender().ID)

	if err := resolved.Done(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err)
	}
}
