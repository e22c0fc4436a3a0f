package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EmailHandler delivers one email event.
type EmailHandler func(ctx context.Context, ev EmailEvent) error

// Consumer drains the email queue into a handler.
type Consumer struct {
	url     string
	queue   string
	handle  EmailHandler
	log     *zap.Logger
	backoff time.Duration
}

func NewConsumer(url, queue string, handle EmailHandler, log *zap.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, handle: handle, log: log, backoff: time.Second}
}

// Run connects, consumes and reconnects with exponential backoff until ctx
// is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := c.backoff
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("email consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = c.backoff // reset after successful connect

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("email consumer: loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		c.log.Warn("email consumer: set QoS failed", zap.Error(err))
	}
	if _, err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("email consumer: listening", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.log.Error("email consumer: handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and passes it to the handler.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var ev EmailEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.To == "" {
		return errors.New("email event without recipient")
	}
	return c.handle(ctx, ev)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
