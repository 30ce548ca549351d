package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTitlesHandler returns a handler for the /titles command, which
// lists every registered title of the chat.
func NewTitlesHandler(deps HandlerDeps) bot.HandlerFunc {
	return titlesHandler{deps}.Handle
}

type titlesHandler struct {
	deps HandlerDeps
}

func (h titlesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "titles")
	if update.Message == nil {
		return
	}

	resolved := h.deps.resolveGroupCommand(ctx, log, update.Message)
	if resolved == nil {
		return
	}

	records, err := resolved.ListTitles(ctx)
	if err != nil {
		h.deps.respond(ctx, log, resolved, err)
		return
	}

	if len(records) == 0 {
		if err := resolved.ReplyTo(ctx, "No titles registered in this chat."); err != nil {
			log.ErrorContext(ctx, "Failed to send titles reply", "error", err)
		}
		return
	}

	var sb strings.Builder
	sb.WriteString("Registered titles:\n")
	for _, record := range records {
		sb.WriteString(record.String())
		sb.WriteByte('\n')
	}

	if err := resolved.ReplyTo(ctx, strings.TrimRight(sb.String(), "\n")); err != nil {
		log.ErrorContext(ctx, "Failed to send titles reply", "error", err)
	}
}
