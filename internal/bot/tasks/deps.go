// Package tasks implements the scheduled background tasks of the bot.
package tasks

import (
	"log/slog"

	"github.com/edgard/titulobot/internal/config"
	"github.com/edgard/titulobot/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.TitleStore
	Config *config.Config
}
