package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/perm"
)

// NewDeanonymousHandler returns a handler for the /deanonymous command,
// which drops the sender's anonymity. The sender arrives masked behind
// the shared anonymous-admin alias, so the real identity must first be
// recovered from the title signature; the restored title survives the
// re-promotion.
func NewDeanonymousHandler(deps HandlerDeps) bot.HandlerFunc {
	return deanonymousHandler{deps}.Handle
}

type deanonymousHandler struct {
	deps HandlerDeps
}

func (h deanonymousHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "deanonymous")
	if update.Message == nil {
		return
	}

	resolved := h.deps.resolveGroupCommand(ctx, log, update.Message)
	if resolved == nil {
		return
	}

	snap := resolved.Snapshot()
	if !snap.SenderAnonymous && !snap.Sender.IsAnonymous {
		h.deps.respond(ctx, log, resolved, convo.ErrNotAnonymous)
		return
	}

	if err := perm.BotCanPromote(snap); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := perm.Editable(snap); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := resolved.RemoveAnonymous(ctx); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	// Re-promotion clears the custom title, restore it from the index.
	record, err := h.deps.Store.GetByUser(ctx, resolved.ChatID(), resolved.Sender().ID)
	if err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}
	if record != nil {
		if err := resolved.SetTitle(ctx, record.Title); err != nil {
			h.deps.respond(ctx, log, resolved, err)
			return
		}
	}

	log.InfoContext(ctx, "Member de-anonymized",
		"chat_id", resolved.ChatID(), "user_id", resolved.Sender().ID)

	if err := resolved.Done(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err)
	}
}
