// Package telegram wraps the go-telegram/bot library behind the narrow
// platform capability surface the rest of the bot consumes.
package telegram

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Privileges are the administrator rights granted by a promotion call.
// The zero value revokes everything, which Telegram treats as demotion.
type Privileges struct {
	CanInviteUsers bool
	IsAnonymous    bool
}

// Client is the platform capability surface used by the conversation
// flows. All methods are fallible network operations.
type Client interface {
	GetChatMember(ctx context.Context, chatID, userID int64) (*models.ChatMember, error)
	GetChatAdministrators(ctx context.Context, chatID int64) ([]models.ChatMember, error)
	PromoteChatMember(ctx context.Context, chatID, userID int64, p Privileges) error
	SetChatAdministratorCustomTitle(ctx context.Context, chatID, userID int64, title string) error
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

type botClient struct {
	b *bot.Bot
}

// NewClient wraps a connected bot instance as a Client.
func NewClient(b *bot.Bot) Client {
	return &botClient{b: b}
}

func (c *botClient) GetChatMember(ctx context.Context, chatID, userID int64) (*models.ChatMember, error) {
	member, err := c.b.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return nil, fmt.Errorf("getChatMember(%d, %d): %w", chatID, userID, err)
	}
	return member, nil
}

func (c *botClient) GetChatAdministrators(ctx context.Context, chatID int64) ([]models.ChatMember, error) {
	admins, err := c.b.GetChatAdministrators(ctx, &bot.GetChatAdministratorsParams{
		ChatID: chatID,
	})
	if err != nil {
		return nil, fmt.Errorf("getChatAdministrators(%d): %w", chatID, err)
	}
	return admins, nil
}

func (c *botClient) PromoteChatMember(ctx context.Context, chatID, userID int64, p Privileges) error {
	ok, err := c.b.PromoteChatMember(ctx, &bot.PromoteChatMemberParams{
		ChatID:         chatID,
		UserID:         userID,
		CanInviteUsers: p.CanInviteUsers,
		IsAnonymous:    p.IsAnonymous,
	})
	if err != nil {
		return fmt.Errorf("promoteChatMember(%d, %d): %w", chatID, userID, err)
	}
	if !ok {
		return fmt.Errorf("promoteChatMember(%d, %d): platform declined", chatID, userID)
	}
	return nil
}

func (c *botClient) SetChatAdministratorCustomTitle(ctx context.Context, chatID, userID int64, title string) error {
	ok, err := c.b.SetChatAdministratorCustomTitle(ctx, &bot.SetChatAdministratorCustomTitleParams{
		ChatID:      chatID,
		UserID:      userID,
		CustomTitle: title,
	})
	if err != nil {
		return fmt.Errorf("setChatAdministratorCustomTitle(%d, %d): %w", chatID, userID, err)
	}
	if !ok {
		return fmt.Errorf("setChatAdministratorCustomTitle(%d, %d): platform declined", chatID, userID)
	}
	return nil
}

func (c *botClient) SendMessage(ctx context.Context, chatID int64, text string, replyTo int) error {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if replyTo != 0 {
		params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo}
	}
	if _, err := c.b.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("sendMessage(%d): %w", chatID, err)
	}
	return nil
}

func (c *botClient) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	ok, err := c.b.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return fmt.Errorf("deleteMessage(%d, %d): %w", chatID, messageID, err)
	}
	if !ok {
		return fmt.Errorf("deleteMessage(%d, %d): platform declined", chatID, messageID)
	}
	return nil
}
