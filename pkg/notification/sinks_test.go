package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rabbitmq/amqp091-go"
	"github.com/spendlog/spendlog/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDiscord struct {
	channelId string
	content   string
}

func (f *fakeDiscord) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channelId = channelID
	f.content = content
	return &discordgo.Message{}, nil
}

type fakeTelegram struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error {
	f.exchange = exchange
	f.key = key
	f.msg = msg
	return nil
}

var alert = Notification{Title: BudgetAlertTitle, Body: "You have used 85% of your monthly budget (₹850 / ₹1000)."}

func TestDiscordSink(t *testing.T) {
	// given
	fake := &fakeDiscord{}
	sink := &DiscordSink{session: fake, channelId: "1234"}

	// when
	err := sink.Send(ctx, recipient, alert)

	// then
	require.NoError(t, err)
	assert.Equal(t, PermissionGranted, sink.Permission(ctx, recipient))
	assert.Equal(t, "1234", fake.channelId)
	assert.Contains(t, fake.content, "**Budget Alert** (meera)")
	assert.Contains(t, fake.content, alert.Body)
}

func TestTelegramSink(t *testing.T) {
	t.Run("should need a linked chat", func(t *testing.T) {
		sink := &TelegramSink{bot: &fakeTelegram{}}

		assert.Equal(t, PermissionDefault, sink.Permission(ctx, recipient))
		assert.Equal(t, PermissionDefault, sink.RequestPermission(ctx, recipient))
	})

	t.Run("should message the linked chat", func(t *testing.T) {
		// given
		fake := &fakeTelegram{}
		sink := &TelegramSink{bot: fake}
		linked := recipient
		linked.Settings.TelegramChatId = 5551234

		// when
		err := sink.Send(ctx, linked, alert)

		// then
		require.NoError(t, err)
		assert.Equal(t, PermissionGranted, sink.Permission(ctx, linked))
		require.Len(t, fake.sent, 1)
		msg, ok := fake.sent[0].(tgbotapi.MessageConfig)
		require.True(t, ok)
		assert.Equal(t, int64(5551234), msg.ChatID)
		assert.Equal(t, "Budget Alert\n"+alert.Body, msg.Text)
	})

	t.Run("should wrap send errors", func(t *testing.T) {
		sink := &TelegramSink{bot: &fakeTelegram{err: errors.New("blocked by user")}}

		err := sink.Send(ctx, user.User{Settings: user.Settings{TelegramChatId: 1}}, alert)

		assert.ErrorContains(t, err, "telegram send: blocked by user")
	})
}

func TestAMQPSink(t *testing.T) {
	// given
	fake := &fakePublisher{}
	sink := &AMQPSink{channel: fake, exchange: "spendlog.notifications", queueName: "notifications"}

	// when
	err := sink.Send(ctx, recipient, alert)

	// then
	require.NoError(t, err)
	assert.Equal(t, "spendlog.notifications", fake.exchange)
	assert.Equal(t, "notifications", fake.key)
	assert.Equal(t, "application/json", fake.msg.ContentType)
	assert.Equal(t, amqp091.Persistent, fake.msg.DeliveryMode)
	var message Message
	require.NoError(t, json.Unmarshal(fake.msg.Body, &message))
	assert.Equal(t, recipient.Id, message.UserId)
	assert.Equal(t, "uid-9", message.Uid)
	assert.Equal(t, alert.Title, message.Title)
	assert.NoError(t, sink.Close())
}

func TestFanout(t *testing.T) {
	t.Run("should send to granted sinks only", func(t *testing.T) {
		// given
		granted := NewStubSink(PermissionGranted)
		denied := NewStubSink(PermissionDenied)
		fanout := NewFanout(granted, denied)

		// when
		err := fanout.Send(ctx, recipient, alert)

		// then
		require.NoError(t, err)
		assert.Len(t, granted.Sent, 1)
		assert.Empty(t, denied.Sent)
		assert.Equal(t, PermissionGranted, fanout.Permission(ctx, recipient))
		assert.Equal(t, "stub,stub", fanout.Name())
	})

	t.Run("should combine permissions", func(t *testing.T) {
		assert.Equal(t, PermissionDenied, NewFanout().Permission(ctx, recipient))
		assert.Equal(t, PermissionDenied, NewFanout(NewStubSink(PermissionDenied)).Permission(ctx, recipient))
		assert.Equal(t, PermissionDefault, NewFanout(NewStubSink(PermissionDenied), NewStubSink(PermissionDefault)).Permission(ctx, recipient))
	})

	t.Run("should request permission from sinks not yet granted", func(t *testing.T) {
		// given
		pending := NewStubSink(PermissionDefault)
		pending.GrantOnRequest = true
		granted := NewStubSink(PermissionGranted)

		// when
		permission := NewFanout(granted, pending).RequestPermission(ctx, recipient)

		// then
		assert.Equal(t, PermissionGranted, permission)
		assert.Equal(t, 0, granted.Requests)
		assert.Equal(t, 1, pending.Requests)
		assert.Equal(t, PermissionGranted, pending.Permission(ctx, recipient))
	})

	t.Run("should join send errors", func(t *testing.T) {
		// given
		failing := NewStubSink(PermissionGranted)
		failing.SendErr = errors.New("down")
		ok := NewStubSink(PermissionGranted)

		// when
		err := NewFanout(failing, ok).Send(ctx, recipient, alert)

		// then
		assert.ErrorContains(t, err, "down")
		assert.Len(t, ok.Sent, 1)
	})
}

func TestLogSink(t *testing.T) {
	sink := LogSink{}

	assert.Equal(t, PermissionGranted, sink.RequestPermission(ctx, recipient))
	assert.NoError(t, sink.Send(ctx, recipient, alert))
}
