package convo

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/perm"
	"github.com/edgard/titulobot/internal/telegram"
)

// promote issues one promoteChatMember call for the current sender.
// Privilege checks are the caller's responsibility.
func (r *Resolved) promote(ctx context.Context, p telegram.Privileges) error {
	if err := r.conv.deps.API.PromoteChatMember(ctx, r.ChatID(), r.Sender().ID, p); err != nil {
		r.conv.deps.Reporter.Reportf("promoteChatMember failed in chat %d: %v", r.ChatID(), err)
		return &PlatformError{Op: "promoteChatMember", Err: err}
	}
	return nil
}

// PrepareForEdit makes sure the sender holds an administrator grant the
// bot can write a title into. An existing admin only needs to be
// editable; a plain member is promoted live, followed by a bounded
// settle delay because the platform applies promotions eventually.
// Every other role is rejected outright.
func (r *Resolved) PrepareForEdit(ctx context.Context) error {
	switch r.snap.Sender.Kind {
	case perm.KindOwner, perm.KindAdministrator:
		return perm.Editable(r.snap)
	case perm.KindMember:
		if err := perm.BotCanPromote(r.snap); err != nil {
			return err
		}
		if err := r.promote(ctx, telegram.Privileges{CanInviteUsers: true}); err != nil {
			return err
		}
		select {
		case <-time.After(r.conv.deps.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	default:
		return &perm.RejectionError{
			Reason: fmt.Sprintf("I can't edit you because of your status (%s)", r.snap.Sender.Kind),
		}
	}
}

// SetTitle grants the sender a custom title and records it in the
// index. The conflict check runs first so a taken title never causes a
// title call; the store insert re-checks atomically when it commits
// the pair. Callers that promote beforehand pre-check the claim
// themselves.
func (r *Resolved) SetTitle(ctx context.Context, title string) error {
	existing, err := r.conv.deps.Store.GetByTitle(ctx, r.ChatID(), title)
	if err != nil {
		return err
	}
	if existing != nil && existing.UserID != r.Sender().ID {
		return fmt.Errorf("%w: %q", database.ErrTitleInUse, title)
	}

	if err := r.conv.deps.API.SetChatAdministratorCustomTitle(ctx, r.ChatID(), r.Sender().ID, title); err != nil {
		r.conv.deps.Reporter.Reportf("setChatAdministratorCustomTitle failed in chat %d: %v", r.ChatID(), err)
		return &PlatformError{Op: "setChatAdministratorCustomTitle", Err: err}
	}

	return r.conv.deps.Store.InsertTitle(ctx, r.ChatID(), r.Sender().ID, title)
}

// RemoveTitleRecord drops the sender's index record, if any.
func (r *Resolved) RemoveTitleRecord(ctx context.Context) error {
	return r.conv.deps.Store.RemoveByUser(ctx, r.ChatID(), r.Sender().ID)
}

// RemoveTitleByName drops the index record holding the given title, if
// any. Used by the owner's forced removal.
func (r *Resolved) RemoveTitleByName(ctx context.Context, title string) error {
	return r.conv.deps.Store.RemoveByTitle(ctx, r.ChatID(), title)
}

// Demote strips the sender of all administrator privileges and removes
// the index record afterwards, so the index never claims a title for a
// user the platform already demoted.
func (r *Resolved) Demote(ctx context.Context) error {
	if err := r.promote(ctx, telegram.Privileges{}); err != nil {
		return err
	}
	return r.RemoveTitleRecord(ctx)
}

// MakeAnonymous re-promotes the sender with the anonymity flag set.
func (r *Resolved) MakeAnonymous(ctx context.Context) error {
	return r.promote(ctx, telegram.Privileges{CanInviteUsers: true, IsAnonymous: true})
}

// RemoveAnonymous re-promotes the sender with a visible grant. Only
// meaningful after ResolveAnonymousIdentity swapped in the real user.
func (r *Resolved) RemoveAnonymous(ctx context.Context) error {
	return r.promote(ctx, telegram.Privileges{CanInviteUsers: true})
}

// ListTitles returns all title records of this chat.
func (r *Resolved) ListTitles(ctx context.Context) ([]database.TitleRecord, error) {
	return r.conv.deps.Store.ListByChat(ctx, r.ChatID())
}

// Nuke demotes every administrator the bot is allowed to edit. The
// index record of each target is removed before its demotion call, and
// the demotions run concurrently; one member failing does not stop the
// others, it only lowers the success count. The index may briefly run
// ahead of platform state for members whose demotion failed, which is
// accepted over attempting a distributed rollback.
func (r *Resolved) Nuke(ctx context.Context) (attempted, succeeded int, err error) {
	admins, err := r.conv.deps.API.GetChatAdministrators(ctx, r.ChatID())
	if err != nil {
		r.conv.deps.Reporter.Reportf("getChatAdministrators failed in chat %d: %v", r.ChatID(), err)
		return 0, 0, &PlatformError{Op: "getChatAdministrators", Err: err}
	}

	var targets []int64
	for i := range admins {
		a := admins[i].Administrator
		if admins[i].Type != models.ChatMemberTypeAdministrator || a == nil || !a.CanBeEdited {
			continue
		}
		targets = append(targets, a.User.ID)
	}

	var ok atomic.Int64
	g := new(errgroup.Group)
	for _, userID := range targets {
		g.Go(func() error {
			if err := r.conv.deps.Store.RemoveByUser(ctx, r.ChatID(), userID); err != nil {
				r.conv.deps.Logger.WarnContext(ctx, "Failed to remove title record during nuke",
					"chat_id", r.ChatID(), "user_id", userID, "error", err)
			}
			if err := r.conv.deps.API.PromoteChatMember(ctx, r.ChatID(), userID, telegram.Privileges{}); err != nil {
				r.conv.deps.Logger.WarnContext(ctx, "Failed to demote member during nuke",
					"chat_id", r.ChatID(), "user_id", userID, "error", err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return len(targets), int(ok.Load()), nil
}
