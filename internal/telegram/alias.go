package telegram

import "github.com/go-telegram/bot/models"

// Telegram attributes messages from anonymous admins to a shared
// service account. Detection is brittle and platform-version-dependent,
// so it lives behind this single predicate: the id is authoritative,
// the display name is the historical fallback.
const anonymousAdminID int64 = 1087968824

// IsAnonymousAlias reports whether a message sender is the
// anonymous-admin alias rather than a real user.
func IsAnonymousAlias(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.ID == anonymousAdminID || u.Username == "GroupAnonymousBot" || u.FirstName == "Group"
}
