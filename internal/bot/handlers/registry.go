// Package handlers contains the Telegram command handlers and their
// registration logic.
package handlers

import (
	"fmt"
	"log/slog"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// RegisteredHandler represents a command handler with its matching rule
// and the description shown in the Telegram command menu.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	MatchType   tgbot.MatchType
	Description string
}

// RegisterAllCommands initializes and returns a map of all available
// bot commands keyed by their slash form.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	command := func(pattern, description string, handler tgbot.HandlerFunc) {
		handlers["/"+pattern] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeMessageText,
			Pattern:     pattern,
			Handler:     handler,
			MatchType:   tgbot.MatchTypeCommandStartOnly,
			Description: description,
		}
	}

	command("start", "Introduction and setup hints", NewStartHandler(deps))
	command("help", "List available commands", NewHelpHandler(deps))
	command("title", "Claim a custom admin title", NewTitleHandler(deps))
	command("titles", "List registered titles", NewTitlesHandler(deps))
	command("demote", "Give up admin privileges", NewDemoteHandler(deps))
	command("anonymous", "Become an anonymous admin", NewAnonymousHandler(deps))
	command("deanonymous", "Drop anonymity", NewDeanonymousHandler(deps))
	command("removetitle", "Release a title by name (owner only)", NewRemoveTitleHandler(deps))
	command("nuke", "Demote all editable admins (owner only)", NewNukeHandler(deps))

	return handlers
}

// RegisterHandlers attaches the command handlers to the bot instance.
func RegisterHandlers(b *tgbot.Bot, logger *slog.Logger, registeredHandlers map[string]RegisteredHandler) error {
	if b == nil {
		return fmt.Errorf("bot instance cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "handler_registry")

	for _, regHandler := range registeredHandlers {
		if regHandler.Handler == nil {
			log.Warn("Skipping registration for nil handler", "pattern", regHandler.Pattern)
			continue
		}
		b.RegisterHandler(regHandler.HandlerType, regHandler.Pattern, regHandler.MatchType, regHandler.Handler)
		log.Debug("Registered handler", "pattern", regHandler.Pattern, "match_type", regHandler.MatchType)
	}

	log.Info("Registered Telegram handlers", "count", len(registeredHandlers))
	return nil
}

// BotCommands builds the command menu entries from the registry.
func BotCommands(registeredHandlers map[string]RegisteredHandler) []models.BotCommand {
	commands := make([]models.BotCommand, 0, len(registeredHandlers))
	for _, regHandler := range registeredHandlers {
		if regHandler.Description == "" {
			continue
		}
		commands = append(commands, models.BotCommand{
			Command:     regHandler.Pattern,
			Description: regHandler.Description,
		})
	}
	return commands
}
