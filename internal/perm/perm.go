package perm

import "fmt"

// RejectionError is a permission decision against the requested action.
// The reason is intended to be shown verbatim to the invoking user.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string { return e.Reason }

func reject(format string, args ...any) error {
	return &RejectionError{Reason: fmt.Sprintf(format, args...)}
}

// BotIsAdmin checks that the bot holds any admin presence in the chat.
func BotIsAdmin(s Snapshot) error {
	if s.Bot.IsAdmin() {
		return nil
	}
	return reject("I am not an admin, please contact admin (currently %s)", s.Bot.Kind)
}

// BotCanPromote checks that the bot's admin grant carries delegated
// promotion rights. Promoting requires both can_promote_members and
// can_invite_users on the bot's own grant.
func BotCanPromote(s Snapshot) error {
	if s.Bot.Kind == KindAdministrator && s.Bot.CanPromoteMembers && s.Bot.CanInviteUsers {
		return nil
	}
	return reject("I don't have the privilege to promote others, please contact admin")
}

// BotAnonymous checks that the bot can grant anonymity: Telegram only
// lets an admin pass on privileges it holds itself, so the bot must be
// an anonymous admin with promotion rights.
func BotAnonymous(s Snapshot) error {
	if s.Bot.Kind == KindAdministrator && s.Bot.CanPromoteMembers && s.Bot.IsAnonymous {
		return nil
	}
	return reject("I can't make others anonymous: I need to be an anonymous admin with promotion rights myself")
}

// SenderIsAdmin checks that the sender holds an admin grant, or was
// identified through the anonymous-admin alias (which only admins can
// post as).
func SenderIsAdmin(s Snapshot) error {
	if s.Sender.IsAdmin() || s.SenderAnonymous {
		return nil
	}
	return reject("You are not admin, please contact admin (currently %s)", s.Sender.Kind)
}

// SenderIsOwner gates owner-only actions such as the bulk demotion and
// forced title removal.
func SenderIsOwner(s Snapshot) error {
	if s.Sender.Kind == KindOwner {
		return nil
	}
	return reject("Only the chat owner can do that (you are %s)", s.Sender.Kind)
}

// Editable decides whether the bot may alter the sender's privileges:
// the bot owns the chat, or the bot is an admin and the sender is either
// a plain member or an admin the bot promoted (can_be_edited).
func Editable(s Snapshot) error {
	switch s.Bot.Kind {
	case KindOwner:
		return nil
	case KindAdministrator:
		switch s.Sender.Kind {
		case KindAdministrator:
			if s.Sender.CanBeEdited {
				return nil
			}
			return reject("I can't change your info (are you promoted by others?)")
		case KindMember:
			return nil
		default:
			return reject("I can't edit you because of your status (%s)", s.Sender.Kind)
		}
	default:
		return reject("I'm not an admin, please promote me with promotion privilege first")
	}
}
