// Package perm holds the per-chat role model and the pure permission
// decision functions gating every privilege change the bot performs.
package perm

import (
	"github.com/go-telegram/bot/models"
)

// Kind is the closed set of chat membership kinds Telegram reports.
type Kind int

const (
	KindOwner Kind = iota
	KindAdministrator
	KindMember
	KindRestricted
	KindLeft
	KindBanned
)

// String returns the short name used in user-facing rejection messages.
func (k Kind) String() string {
	switch k {
	case KindOwner:
		return "owner"
	case KindAdministrator:
		return "admin"
	case KindMember:
		return "member"
	case KindRestricted:
		return "restricted"
	case KindLeft:
		return "left"
	case KindBanned:
		return "banned"
	default:
		return "unknown"
	}
}

// Role is one side of a snapshot: a membership kind plus the
// administrator capability flags relevant to title management.
// The flags are only meaningful when Kind is KindAdministrator.
type Role struct {
	Kind              Kind
	CanBeEdited       bool
	CanPromoteMembers bool
	CanInviteUsers    bool
	IsAnonymous       bool
}

// RoleOf derives a Role from a fetched chat member.
func RoleOf(m *models.ChatMember) Role {
	switch m.Type {
	case models.ChatMemberTypeOwner:
		r := Role{Kind: KindOwner}
		if m.Owner != nil {
			r.IsAnonymous = m.Owner.IsAnonymous
		}
		return r
	case models.ChatMemberTypeAdministrator:
		r := Role{Kind: KindAdministrator}
		if a := m.Administrator; a != nil {
			r.CanBeEdited = a.CanBeEdited
			r.CanPromoteMembers = a.CanPromoteMembers
			r.CanInviteUsers = a.CanInviteUsers
			r.IsAnonymous = a.IsAnonymous
		}
		return r
	case models.ChatMemberTypeMember:
		return Role{Kind: KindMember}
	case models.ChatMemberTypeRestricted:
		return Role{Kind: KindRestricted}
	case models.ChatMemberTypeBanned:
		return Role{Kind: KindBanned}
	default:
		return Role{Kind: KindLeft}
	}
}

// IsAdmin reports whether the role carries an administrator grant of any
// strength, including ownership.
func (r Role) IsAdmin() bool {
	return r.Kind == KindOwner || r.Kind == KindAdministrator
}

// Snapshot is the immutable pair of memberships captured for one chat:
// the bot's own membership and the acting sender's. SenderAnonymous is
// set when the sender was identified through the anonymous-admin alias
// rather than a direct platform id.
type Snapshot struct {
	Bot             Role
	Sender          Role
	SenderAnonymous bool
}

// WithSender returns a copy of the snapshot with the sender side
// replaced, used when an owner acts on a third party.
func (s Snapshot) WithSender(target Role) Snapshot {
	return Snapshot{Bot: s.Bot, Sender: target}
}
