package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends BookingCreatedEvent messages to RabbitMQ.  Each call
// dials, declares the queue and publishes; bookings are rare enough that
// a long-lived channel is not worth its reconnect handling.
type Publisher struct {
	url string
	log *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{url: url, log: logger.With("component", "rabbitmq")}
}

// PublishBookingCreated publishes ev to the booking.created queue as a
// persistent JSON message.  Errors are logged and returned so the caller
// can choose to ignore them.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("dial failed", "err", err)
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("channel open failed", "err", err)
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareBookingQueue(ch); err != nil {
		p.log.Warn("queue declare failed", "err", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    ev.Reference,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",               // default exchange
		BookingQueueName, // routing key = queue name
		false,            // mandatory
		false,            // immediate
		pub,
	); err != nil {
		p.log.Warn("publish failed", "err", err, "reference", ev.Reference)
		return fmt.Errorf("publish booking %s: %w", ev.Reference, err)
	}
	return nil
}

// declareBookingQueue makes sure the durable queue exists (idempotent).
func declareBookingQueue(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		BookingQueueName, // name
		true,             // durable
		false,            // autoDelete
		false,            // exclusive
		false,            // noWait
		nil,              // args
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
