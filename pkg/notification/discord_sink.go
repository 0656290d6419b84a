package notification

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spendlog/spendlog/pkg/user"
)

type discordSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordSink posts notifications of every user to one configured channel.
type DiscordSink struct {
	session   discordSender
	channelId string
}

// NewDiscordSink creates a bot session for token. The session only uses the REST API, no gateway connection is opened.
func NewDiscordSink(token, channelId string) (*DiscordSink, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordSink{session: session, channelId: channelId}, nil
}

func (s *DiscordSink) Name() string {
	return "discord"
}

func (s *DiscordSink) Permission(ctx context.Context, recipient user.User) Permission {
	if s.channelId == "" {
		return PermissionDenied
	}
	return PermissionGranted
}

func (s *DiscordSink) RequestPermission(ctx context.Context, recipient user.User) Permission {
	return s.Permission(ctx, recipient)
}

func (s *DiscordSink) Send(ctx context.Context, recipient user.User, n Notification) error {
	name := recipient.DisplayName
	if name == "" {
		name = recipient.Username
	}
	content := fmt.Sprintf("**%s** (%s)\n%s", n.Title, name, n.Body)
	if _, err := s.session.ChannelMessageSend(s.channelId, content); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}
