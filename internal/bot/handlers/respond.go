package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/perm"
)

const generalErrorMsg = "Something went wrong, please try again later."

// replier is the reply surface shared by both conversation stages.
type replier interface {
	ReplyTo(ctx context.Context, text string) error
}

// isUserFacing reports whether an error's text is safe and useful to
// show to the invoking user: input validation, permission rejections,
// and title conflicts. Everything else is infrastructure trouble.
func isUserFacing(err error) bool {
	var rejection *perm.RejectionError
	if errors.As(err, &rejection) {
		return true
	}
	if errors.Is(err, database.ErrTitleInUse) {
		return true
	}
	for _, sentinel := range []error{
		convo.ErrNoSender,
		convo.ErrNotInGroup,
		convo.ErrEmptyTitle,
		convo.ErrAlreadyAnonymous,
		convo.ErrNotAnonymous,
		convo.ErrNotRegistered,
		convo.ErrUnknownAnonymous,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// respond maps a failed command to its user-visible reply. User-facing
// errors are shown verbatim. Platform failures were already reported at
// their call site and get a generic reply; anything else (storage
// trouble mostly) is escalated to the operational channel here.
func (d HandlerDeps) respond(ctx context.Context, log *slog.Logger, r replier, err error) {
	var text string
	switch {
	case isUserFacing(err):
		text = err.Error()

	default:
		var platformErr *convo.PlatformError
		if !errors.As(err, &platformErr) {
			d.Reporter.Reportf("command failed: %v", err)
		}
		log.ErrorContext(ctx, "Command failed", "error", err)
		text = generalErrorMsg
	}

	if sendErr := r.ReplyTo(ctx, text); sendErr != nil {
		log.ErrorContext(ctx, "Failed to send error reply", "error", sendErr)
	}
}
