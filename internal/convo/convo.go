// Package convo models the handling of one inbound command as a
// two-stage conversation context. A Conversation is created cheaply
// from the incoming message and supports only checks that need no
// network round trip; Resolve fetches the bot's and the sender's chat
// memberships and yields a Resolved context, the only stage on which
// permission checks and privileged actions exist. The split is two
// concrete types joined by one fallible conversion, so an action can't
// be compiled against role data that was never fetched.
package convo

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/perm"
	"github.com/edgard/titulobot/internal/telegram"
)

// Reporter receives operational alerts about infrastructure trouble.
type Reporter interface {
	Reportf(format string, args ...any)
}

// Deps are the collaborators a conversation needs. BotID is the bot's
// own user id, resolved once at startup and injected here.
type Deps struct {
	API         telegram.Client
	Store       database.TitleStore
	Reporter    Reporter
	Logger      *slog.Logger
	BotID       int64
	SettleDelay time.Duration
}

// Conversation is the unresolved stage: message identity only, no role
// data. It is scoped to one inbound command and discarded afterwards.
type Conversation struct {
	deps   Deps
	msg    *models.Message
	sender models.User
}

// New creates an unresolved conversation for one command message.
// It fails with ErrNoSender when the message carries no sender.
func New(deps Deps, msg *models.Message) (*Conversation, error) {
	if msg == nil || msg.From == nil {
		return nil, ErrNoSender
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Conversation{
		deps:   deps,
		msg:    msg,
		sender: *msg.From,
	}, nil
}

// ChatID returns the chat this conversation happens in.
func (c *Conversation) ChatID() int64 { return c.msg.Chat.ID }

// Sender returns the current sender identity. After anonymous
// resolution this is the real user behind the title, not the alias.
func (c *Conversation) Sender() models.User { return c.sender }

// AssertInGroup checks the chat kind without any I/O.
func (c *Conversation) AssertInGroup() error {
	switch c.msg.Chat.Type {
	case models.ChatTypeGroup, models.ChatTypeSupergroup:
		return nil
	default:
		return ErrNotInGroup
	}
}

// ReplyTo sends text to the chat as a reply to the command message.
// It is available before resolution so early rejections (wrong chat
// kind, bad input) can be answered without any role fetch.
func (c *Conversation) ReplyTo(ctx context.Context, text string) error {
	return c.deps.API.SendMessage(ctx, c.ChatID(), text, c.msg.ID)
}

// Resolve fetches the bot's and the sender's memberships concurrently
// and joins them into a Resolved context. A failed fetch is reported to
// the operational channel and returned as a PlatformError.
func (c *Conversation) Resolve(ctx context.Context) (*Resolved, error) {
	var botMember, senderMember *models.ChatMember

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		botMember, err = c.deps.API.GetChatMember(gCtx, c.ChatID(), c.deps.BotID)
		return err
	})
	g.Go(func() error {
		var err error
		senderMember, err = c.deps.API.GetChatMember(gCtx, c.ChatID(), c.sender.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		c.deps.Reporter.Reportf("role snapshot fetch failed in chat %d: %v", c.ChatID(), err)
		return nil, &PlatformError{Op: "getChatMember", Err: err}
	}

	return &Resolved{
		conv: *c,
		snap: perm.Snapshot{
			Bot:    perm.RoleOf(botMember),
			Sender: perm.RoleOf(senderMember),
		},
	}, nil
}

// Resolved is the terminal stage: the conversation plus the immutable
// role snapshot captured for this command.
type Resolved struct {
	conv Conversation
	snap perm.Snapshot
}

// Snapshot returns the captured role pair.
func (r *Resolved) Snapshot() perm.Snapshot { return r.snap }

// ChatID returns the chat this conversation happens in.
func (r *Resolved) ChatID() int64 { return r.conv.ChatID() }

// Sender returns the current sender identity.
func (r *Resolved) Sender() models.User { return r.conv.sender }

// ResolveAnonymousIdentity recovers the real sender behind the
// anonymous-admin alias. The message author signature is the custom
// title of the posting admin, so it doubles as a reverse lookup key
// into the title index. On a hit the sender identity and role are
// swapped for the real user and the snapshot is flagged anonymous; a
// miss means the admin never registered a title. Senders that are not
// the alias pass through unchanged.
func (r *Resolved) ResolveAnonymousIdentity(ctx context.Context) error {
	if !telegram.IsAnonymousAlias(&r.conv.sender) {
		return nil
	}

	sig := r.conv.msg.AuthorSignature
	if sig == "" {
		return ErrUnknownAnonymous
	}

	record, err := r.conv.deps.Store.GetByTitle(ctx, r.ChatID(), sig)
	if err != nil {
		return err
	}
	if record == nil {
		return ErrUnknownAnonymous
	}

	// The alias's own membership is useless for permission checks, so
	// refetch the sender side for the real user id behind the title.
	member, err := r.conv.deps.API.GetChatMember(ctx, r.ChatID(), record.UserID)
	if err != nil {
		r.conv.deps.Reporter.Reportf("anonymous identity fetch failed in chat %d: %v", r.ChatID(), err)
		return &PlatformError{Op: "getChatMember", Err: err}
	}

	if u := telegram.MemberUser(member); u != nil {
		r.conv.sender = *u
	} else {
		r.conv.sender = models.User{ID: record.UserID, FirstName: sig}
	}
	r.snap.Sender = perm.RoleOf(member)
	r.snap.SenderAnonymous = true

	r.conv.deps.Logger.DebugContext(ctx, "Anonymous sender resolved",
		"chat_id", r.ChatID(), "user_id", record.UserID, "title", sig)
	return nil
}

// WithSender derives a new Resolved context acting on target instead of
// the original sender, keeping the bot's side of the snapshot. It is
// only called after an owner-level check authorized acting on a third
// party. The original context is left untouched.
func (r *Resolved) WithSender(ctx context.Context, target models.User) (*Resolved, error) {
	member, err := r.conv.deps.API.GetChatMember(ctx, r.ChatID(), target.ID)
	if err != nil {
		r.conv.deps.Reporter.Reportf("target role fetch failed in chat %d: %v", r.ChatID(), err)
		return nil, &PlatformError{Op: "getChatMember", Err: err}
	}

	derived := &Resolved{conv: r.conv, snap: r.snap.WithSender(perm.RoleOf(member))}
	derived.conv.sender = target
	return derived, nil
}

// ReplyTo sends text to the chat as a reply to the command message.
func (r *Resolved) ReplyTo(ctx context.Context, text string) error {
	return r.conv.ReplyTo(ctx, text)
}

// Done acknowledges a successful privilege change. Telegram applies
// these eventually, hence the wording.
func (r *Resolved) Done(ctx context.Context) error {
	return r.ReplyTo(ctx, "Done! Wait for a while to take effect.")
}

// DeleteCommandMessage removes the invoking command message itself.
func (r *Resolved) DeleteCommandMessage(ctx context.Context) error {
	if err := r.conv.deps.API.DeleteMessage(ctx, r.ChatID(), r.conv.msg.ID); err != nil {
		return &PlatformError{Op: "deleteMessage", Err: err}
	}
	return nil
}
