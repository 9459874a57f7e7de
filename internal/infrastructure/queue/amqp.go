// Package queue carries async match requests and their status updates over
// RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"skillmatch/internal/config"
	"skillmatch/internal/domain/match"
)

// UpdateRoutingKey is the topic routing key for one user's status updates.
func UpdateRoutingKey(userID uuid.UUID) string {
	return "match." + userID.String()
}

// Broker owns one AMQP connection. Publishing goes through a single shared
// channel; every consumer gets its own channel.
type Broker struct {
	conn     *amqp.Connection
	pub      *amqp.Channel
	pubMu    sync.Mutex
	queue    string
	exchange string
	logger   *zap.Logger
}

func Dial(cfg config.QueueConfig, logger *zap.Logger) (*Broker, error) {
	if !cfg.Enabled() {
		return nil, errors.New("AMQP_URL is not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := Retry(context.Background(), 5, time.Second, func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.URL)
	})
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	b := &Broker{conn: conn, pub: ch, queue: cfg.RequestQueue, exchange: cfg.UpdatesExchange, logger: logger}
	if err := b.declare(ch); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Broker) declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(
		b.queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", b.queue, err)
	}
	if err := ch.ExchangeDeclare(
		b.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", b.exchange, err)
	}
	return nil
}

func (b *Broker) publish(exchange, key string, body any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	b.pubMu.Lock()
	defer b.pubMu.Unlock()
	return b.pub.Publish(
		exchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         raw,
		},
	)
}

// PublishRequest queues an async match on the durable request queue.
func (b *Broker) PublishRequest(_ context.Context, req match.Request) error {
	return b.publish("", b.queue, req)
}

// PublishUpdate sends a status event to the updates exchange.
func (b *Broker) PublishUpdate(_ context.Context, u match.Update) error {
	return b.publish(b.exchange, UpdateRoutingKey(u.UserID), u)
}

// ConsumeRequests delivers queued requests to handle until ctx is done or the
// channel closes. See settle for how each delivery is acknowledged.
func (b *Broker) ConsumeRequests(ctx context.Context, prefetch int, handle func(context.Context, match.Request) error) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fmt.Errorf("set qos: %w", err)
		}
	}

	msgs, err := ch.Consume(
		b.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", b.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("request channel closed")
			}
			b.settle(ctx, msg, handle)
		}
	}
}

// settle runs handle for one delivery. Undecodable messages are dropped. A
// match.ErrRetryable failure on a first delivery is requeued once; anything
// else is acked, since the handler has already recorded the outcome.
func (b *Broker) settle(ctx context.Context, msg amqp.Delivery, handle func(context.Context, match.Request) error) {
	var req match.Request
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		b.logger.Warn("dropping undecodable match request", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	req.Redelivered = msg.Redelivered

	err := handle(ctx, req)
	if err != nil {
		b.logger.Error("match request failed", zap.String("match_id", req.MatchID.String()),
			zap.Bool("redelivered", msg.Redelivered), zap.Error(err))
	}
	if err != nil && errors.Is(err, match.ErrRetryable) && !msg.Redelivered {
		if err := msg.Nack(false, true); err != nil {
			b.logger.Warn("requeue failed", zap.Error(err))
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		b.logger.Warn("ack failed", zap.Error(err))
	}
}

// SubscribeUpdates binds a private queue to every user's updates and calls
// handle for each event until ctx is done.
func (b *Broker) SubscribeUpdates(ctx context.Context, handle func(match.Update)) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare update queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "match.*", b.exchange, false, nil); err != nil {
		return fmt.Errorf("bind update queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume updates: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("update channel closed")
			}
			var u match.Update
			if err := json.Unmarshal(msg.Body, &u); err != nil {
				b.logger.Warn("dropping undecodable match update", zap.Error(err))
				continue
			}
			handle(u)
		}
	}
}

func (b *Broker) Close() error {
	if b == nil {
		return nil
	}
	if b.pub != nil {
		_ = b.pub.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
