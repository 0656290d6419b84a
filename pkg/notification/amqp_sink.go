package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/spendlog/spendlog/pkg/user"
	log "github.com/sirupsen/logrus"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// Message is the JSON body published for every notification.
type Message struct {
	UserId int       `json:"userId"`
	Uid    string    `json:"uid"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sentAt"`
}

// AMQPSink publishes notifications to a durable direct exchange for push delivery by another service.
type AMQPSink struct {
	conn      *amqp091.Connection
	channel   amqpPublisher
	exchange  string
	queueName string
}

func NewAMQPSink(url, exchange, queueName string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declare(channel, exchange, queueName); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return &AMQPSink{conn: conn, channel: channel, exchange: exchange, queueName: queueName}, nil
}

func declare(channel *amqp091.Channel, exchange, queueName string) error {
	err := channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// routing key is the queue name
	if err := channel.QueueBind(queueName, queueName, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

func (s *AMQPSink) Name() string {
	return "amqp"
}

func (s *AMQPSink) Permission(ctx context.Context, recipient user.User) Permission {
	return PermissionGranted
}

func (s *AMQPSink) RequestPermission(ctx context.Context, recipient user.User) Permission {
	return PermissionGranted
}

func (s *AMQPSink) Send(ctx context.Context, recipient user.User, n Notification) error {
	body, err := json.Marshal(Message{
		UserId: recipient.Id,
		Uid:    recipient.Uid,
		Title:  n.Title,
		Body:   n.Body,
		SentAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = s.channel.PublishWithContext(
		ctx,
		s.exchange,  // exchange
		s.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	log.Debugf("Published notification %q for user %d to %s", n.Title, recipient.Id, s.exchange)
	return nil
}

func (s *AMQPSink) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
