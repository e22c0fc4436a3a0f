package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends email events to a durable queue. It dials per publish:
// the volume is a handful of messages per user action.
type Publisher struct {
	url   string
	queue string
	log   *zap.Logger
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, log: log}
}

// PublishEmail publishes ev as a persistent JSON message.
func (p *Publisher) PublishEmail(ctx context.Context, ev EmailEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq dial failed", zap.Error(err))
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := declare(ch, p.queue); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal email event: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.log.Warn("rabbitmq publish failed", zap.String("queue", p.queue), zap.Error(err))
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("email event published", zap.String("kind", string(ev.Kind)), zap.String("to", ev.To))
	return nil
}

func declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return q, fmt.Errorf("queue declare %s: %w", name, err)
	}
	return q, nil
}
