package handlers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
)

// commandArgument returns the text following the command itself, so
// "/title His Excellency" yields "His Excellency". The command token
// may carry a @botname suffix.
func commandArgument(text string) string {
	_, rest, found := strings.Cut(text, " ")
	if !found {
		return ""
	}
	return strings.TrimSpace(rest)
}

// newGroupConversation builds the conversation for a command message
// and rejects non-group chats, both without any network call. On
// failure the user has already been answered and nil is returned.
func (d HandlerDeps) newGroupConversation(ctx context.Context, log *slog.Logger, msg *models.Message) *convo.Conversation {
	conv, err := convo.New(d.convoDeps(), msg)
	if err != nil {
		log.WarnContext(ctx, "Command message has no identifiable sender")
		return nil
	}

	if err := conv.AssertInGroup(); err != nil {
		d.respond(ctx, log, conv, err)
		return nil
	}

	return conv
}

// resolveConversation fetches the role snapshot and unmasks an
// anonymous sender. On failure the user has already been answered.
func (d HandlerDeps) resolveConversation(ctx context.Context, log *slog.Logger, conv *convo.Conversation) *convo.Resolved {
	resolved, err := conv.Resolve(ctx)
	if err != nil {
		d.respond(ctx, log, conv, err)
		return nil
	}

	if err := resolved.ResolveAnonymousIdentity(ctx); err != nil {
		d.respond(ctx, log, resolved, err)
		return nil
	}

	return resolved
}

// resolveGroupCommand runs the shared front half of a group command
// that needs no input validation before the role fetch.
func (d HandlerDeps) resolveGroupCommand(ctx context.Context, log *slog.Logger, msg *models.Message) *convo.Resolved {
	conv := d.newGroupConversation(ctx, log, msg)
	if conv == nil {
		return nil
	}
	return d.resolveConversation(ctx, log, conv)
}
