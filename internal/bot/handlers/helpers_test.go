package handlers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/titulobot/internal/convo"
	"github.com/edgard/titulobot/internal/database"
	"github.com/edgard/titulobot/internal/perm"
)

func TestCommandArgument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "no argument", text: "/title", want: ""},
		{name: "simple", text: "/title Duke", want: "Duke"},
		{name: "multi word", text: "/title His Excellency", want: "His Excellency"},
		{name: "bot suffix", text: "/title@titulobot Duke", want: "Duke"},
		{name: "trailing space", text: "/title Duke  ", want: "Duke"},
		{name: "only spaces", text: "/title    ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := commandArgument(tt.text); got != tt.want {
				t.Errorf("commandArgument(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "permission rejection", err: &perm.RejectionError{Reason: "no"}, want: true},
		{name: "title conflict", err: fmt.Errorf("%w: %q", database.ErrTitleInUse, "Duke"), want: true},
		{name: "empty title", err: convo.ErrEmptyTitle, want: true},
		{name: "not in group", err: convo.ErrNotInGroup, want: true},
		{name: "unknown anonymous", err: convo.ErrUnknownAnonymous, want: true},
		{name: "platform failure", err: &convo.PlatformError{Op: "promoteChatMember", Err: errors.New("boom")}, want: false},
		{name: "storage failure", err: errors.New("database is locked"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isUserFacing(tt.err); got != tt.want {
				t.Errorf("isUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestReplyTarget(t *testing.T) {
	t.Parallel()

	const senderID = int64(100)

	tests := []struct {
		name string
		msg  *models.Message
		want *models.User
	}{
		{
			name: "no reply",
			msg:  &models.Message{},
			want: nil,
		},
		{
			name: "reply to other user",
			msg:  &models.Message{ReplyToMessage: &models.Message{From: &models.User{ID: 200}}},
			want: &models.User{ID: 200},
		},
		{
			name: "reply to self",
			msg:  &models.Message{ReplyToMessage: &models.Message{From: &models.User{ID: senderID}}},
			want: nil,
		},
		{
			name: "reply to bot",
			msg:  &models.Message{ReplyToMessage: &models.Message{From: &models.User{ID: 300, IsBot: true}}},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := replyTarget(tt.msg, senderID)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("replyTarget() = %v, want %v", got, tt.want)
			}
			if got != nil && got.ID != tt.want.ID {
				t.Errorf("replyTarget().ID = %d, want %d", got.ID, tt.want.ID)
			}
		})
	}
}
