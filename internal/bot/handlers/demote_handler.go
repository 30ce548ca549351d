package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/perm"
)

// NewDemoteHandler returns a handler for the /demote command. By
// default the sender demotes themselves; replying to another member's
// message targets that member instead, which only the chat owner may
// do. Demotion also releases the target's title record.
func NewDemoteHandler(deps HandlerDeps) bot.HandlerFunc {
	return demoteHandler{deps}.Handle
}

type demoteHandler struct {
	deps HandlerDeps
}

func (h demoteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "demote")
	if update.Message == nil {
		return
	}

	resolved := h.deps.resolveGroupCommand(ctx, log, update.Message)
	if resolved == nil {
		return
	}

	target := resolved
	if replied := replyTarget(update.Message, resolved.Sender().ID); replied != nil {
		if err := perm.SenderIsOwner(resolved.Snapshot()); err != nil {
			h.deps.respond(ctx, log, resolved, err)
			return
		}
		derived, err := resolved.WithSender(ctx, *replied)
		if err != nil {
			h.deps.respond(ctx, log, resolved, err)
			return
		}
		target = derived
	} else if err := perm.SenderIsAdmin(resolved.Snapshot()); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := perm.Editable(target.Snapshot()); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if err := target.Demote(ctx); err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	log.InfoContext(ctx, "Member demoted",
		"chat_id", resolved.ChatID(), "user_id", target.Sender().ID)

	if err := resolved.Done(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to send confirmation", "error", err)
	}
}

// replyTarget returns the user a reply-based command acts on, or nil
// when the command targets the sender: no replied-to message, a reply
// to a bot, or a reply to the sender's own message.
func replyTarget(msg *models.Message, senderID int64) *models.User {
	if msg.ReplyToMessage == nil || msg.ReplyToMessage.From == nil {
		return nil
	}
	from := msg.ReplyToMessage.From
	if from.IsBot || from.ID == senderID {
		return nil
	}
	return from
}
