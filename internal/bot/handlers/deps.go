package handlers

import (
	"log/slog"

	"github.com/edgard/titulobot/internal/config"
	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/telegram"
)

// HandlerDeps provides dependencies for Telegram command handlers.
// BotID is the bot's own user id, fetched once at startup.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.TitleStore
	Client   telegram.Client
	Reporter convo.Reporter
	BotID    int64
}

// convoDeps maps the handler dependencies onto a conversation context.
func (d HandlerDeps) convoDeps() convo.Deps {
	return convo.Deps{
		API:         d.Client,
		Store:       d.Store,
		Reporter:    d.Reporter,
		Logger:      d.Logger,
		BotID:       d.BotID,
		SettleDelay: d.Config.Bot.SettleDelay,
	}
}
