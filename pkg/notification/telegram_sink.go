package notification

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spendlog/spendlog/pkg/user"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink messages the chat a user linked in their settings.
type TelegramSink struct {
	bot telegramSender
}

func NewTelegramSink(token string) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{bot: bot}, nil
}

func (s *TelegramSink) Name() string {
	return "telegram"
}

func (s *TelegramSink) Permission(ctx context.Context, recipient user.User) Permission {
	if recipient.Settings.TelegramChatId == 0 {
		return PermissionDefault
	}
	return PermissionGranted
}

// RequestPermission cannot grant anything by itself: the user has to link a chat first.
func (s *TelegramSink) RequestPermission(ctx context.Context, recipient user.User) Permission {
	return s.Permission(ctx, recipient)
}

func (s *TelegramSink) Send(ctx context.Context, recipient user.User, n Notification) error {
	msg := tgbotapi.NewMessage(recipient.Settings.TelegramChatId, n.Title+"\n"+n.Body)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
