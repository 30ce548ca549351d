package convo

import (
	"errors"
	"fmt"
)

// Input errors: rejected before any network call. Their text is shown
// verbatim to the invoking user.
var (
	ErrNoSender         = errors.New("the message has no identifiable sender")
	ErrNotInGroup       = errors.New("this command can only be used in a group")
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrAlreadyAnonymous = errors.New("you are already anonymous")
	ErrNotAnonymous     = errors.New("you are not anonymous")
	ErrNotRegistered    = errors.New("before going anonymous, use /title first to register a title")
	ErrUnknownAnonymous = errors.New("I don't recognize you, please contact admin to manually de-anonymize")
)

// PlatformError wraps a failed messaging-platform call. It is escalated
// to the operational channel and never shown raw to the end user.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform call %s failed: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }
