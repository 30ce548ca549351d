package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const helpText = `I manage custom admin titles in this group.

/title <text> - claim a custom title (you get promoted if needed)
/titles - list all registered titles
/demote - give up your admin privileges (owner: reply to demote someone else)
/anonymous - become an anonymous admin (register a title first)
/deanonymous - drop your anonymity
/removetitle <text> - release a title by name (owner only)
/nuke - demote every admin I can edit (owner only)

I need to be an admin with promotion rights to do most of this.`

// NewHelpHandler returns a handler for the /help command.
func NewHelpHandler(deps HandlerDeps) bot.HandlerFunc {
	return helpHandler{deps}.Handle
}

type helpHandler struct {
	deps HandlerDeps
}

func (h helpHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "help")
	if update.Message == nil {
		return
	}

	if err := h.deps.Client.SendMessage(ctx, update.Message.Chat.ID, helpText, update.Message.ID); err != nil {
		log.ErrorContext(ctx, "Failed to send help message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
