package telegram

import "github.com/go-telegram/bot/models"

// MemberUser extracts the user behind a chat member, whichever variant
// the platform reported.
func MemberUser(m *models.ChatMember) *models.User {
	switch m.Type {
	case models.ChatMemberTypeOwner:
		if m.Owner != nil {
			return m.Owner.User
		}
	case models.ChatMemberTypeAdministrator:
		// Administrator is the one variant carrying User by value.
		if m.Administrator != nil {
			return &m.Administrator.User
		}
	case models.ChatMemberTypeMember:
		if m.Member != nil {
			return m.Member.User
		}
	case models.ChatMemberTypeRestricted:
		if m.Restricted != nil {
			return m.Restricted.User
		}
	case models.ChatMemberTypeLeft:
		if m.Left != nil {
			return m.Left.User
		}
	case models.ChatMemberTypeBanned:
		if m.Banned != nil {
			return m.Banned.User
		}
	}
	return nil
}
